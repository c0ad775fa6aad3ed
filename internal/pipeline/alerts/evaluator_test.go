package alerts

import (
	"testing"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)
	ev := NewEvaluator(20, time.UTC)

	cases := []struct {
		name     string
		med      domain.Medicine
		wantLow  bool
		wantDays *int
	}{
		{
			name: "healthy",
			med:  domain.Medicine{Name: "A", StockQuantity: 50, LowStockThreshold: 10, ExpiryDate: date(2025, 6, 1)},
		},
		{
			name:    "at threshold",
			med:     domain.Medicine{Name: "B", StockQuantity: 10, LowStockThreshold: 10},
			wantLow: true,
		},
		{
			name:     "expires today",
			med:      domain.Medicine{Name: "C", StockQuantity: 50, LowStockThreshold: 10, ExpiryDate: date(2025, 3, 1)},
			wantDays: intPtr(0),
		},
		{
			name:     "window edge",
			med:      domain.Medicine{Name: "D", StockQuantity: 50, LowStockThreshold: 10, ExpiryDate: date(2025, 3, 21)},
			wantDays: intPtr(20),
		},
		{
			name: "outside window",
			med:  domain.Medicine{Name: "E", StockQuantity: 50, LowStockThreshold: 10, ExpiryDate: date(2025, 3, 22)},
		},
		{
			name: "already expired",
			med:  domain.Medicine{Name: "F", StockQuantity: 50, LowStockThreshold: 10, ExpiryDate: date(2025, 2, 28)},
		},
		{
			name:     "low and expiring",
			med:      domain.Medicine{Name: "G", StockQuantity: 1, LowStockThreshold: 5, ExpiryDate: date(2025, 3, 5)},
			wantLow:  true,
			wantDays: intPtr(4),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			findings := ev.Evaluate(&tc.med, now)

			var gotLow bool
			var gotDays *int
			for _, f := range findings {
				switch f.Type {
				case domain.NotificationLowStock:
					gotLow = true
				case domain.NotificationExpiring:
					gotDays = f.DaysRemaining
				}
			}

			if gotLow != tc.wantLow {
				t.Fatalf("low stock: got %v want %v", gotLow, tc.wantLow)
			}
			if (gotDays == nil) != (tc.wantDays == nil) {
				t.Fatalf("expiring: got %v want %v", gotDays, tc.wantDays)
			}
			if gotDays != nil && *gotDays != *tc.wantDays {
				t.Fatalf("days remaining: got %d want %d", *gotDays, *tc.wantDays)
			}
		})
	}
}

func TestDaysUntilUsesLocalCalendar(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 20:00 UTC on Mar 1 is already Mar 2 in UTC+7.
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	if got := daysUntil(*date(2025, 3, 3), now, jakarta); got != 1 {
		t.Fatalf("expected 1 day, got %d", got)
	}
	if got := daysUntil(*date(2025, 3, 3), now, time.UTC); got != 2 {
		t.Fatalf("expected 2 days, got %d", got)
	}
}

func TestExpiryMessage(t *testing.T) {
	if got := expiryMessage("Ibuprofen", 0); got != "Ibuprofen expires today" {
		t.Fatalf("unexpected %q", got)
	}
	if got := expiryMessage("Ibuprofen", 7); got != "Ibuprofen expires in 7 days" {
		t.Fatalf("unexpected %q", got)
	}
}

func intPtr(v int) *int { return &v }
