package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

func TestBuildAnalyticsKeyScopes(t *testing.T) {
	pharmacy := uuid.New()

	scoped := buildAnalyticsKey(kindProfit, domain.AnalyticsFilter{PharmacyID: pharmacy, Year: 2025, Month: 3})
	if !strings.HasPrefix(scoped, "analytics:"+pharmacy.String()+":profit:") {
		t.Fatalf("unexpected scoped key %q", scoped)
	}

	global := buildAnalyticsKey(kindDashboard, domain.AnalyticsFilter{Year: 2025})
	if !strings.HasPrefix(global, "analytics:all:dashboard:") {
		t.Fatalf("unexpected global key %q", global)
	}

	again := buildAnalyticsKey(kindProfit, domain.AnalyticsFilter{PharmacyID: pharmacy, Year: 2025, Month: 3})
	other := buildAnalyticsKey(kindProfit, domain.AnalyticsFilter{PharmacyID: pharmacy, Year: 2025, Month: 4})
	if scoped != again || scoped == other {
		t.Fatalf("key must be stable and depend on the period")
	}
}

func TestLocalLockerExcludes(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	first, err := locker.Obtain(ctx, "sale:abc", time.Second)
	if err != nil {
		t.Fatalf("obtain: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	if _, err := locker.Obtain(waitCtx, "sale:abc", time.Second); !errors.Is(err, ErrLockNotObtained) {
		t.Fatalf("expected lock to be held, got %v", err)
	}

	if _, err := locker.Obtain(ctx, "sale:other", time.Second); err != nil {
		t.Fatalf("independent key should be free: %v", err)
	}

	_ = first.Release(ctx)
	second, err := locker.Obtain(ctx, "sale:abc", time.Second)
	if err != nil {
		t.Fatalf("obtain after release: %v", err)
	}
	_ = second.Release(ctx)
}

func TestLocalLockerSerializesHolders(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := locker.Obtain(ctx, "scan:pharmacy", time.Second)
			if err != nil {
				t.Errorf("obtain: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			_ = lock.Release(ctx)
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
}
