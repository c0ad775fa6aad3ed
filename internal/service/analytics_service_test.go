package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// countingCache keeps everything in memory and counts invalidations.
type countingCache struct {
	mu            sync.Mutex
	dashboards    map[domain.AnalyticsFilter]*domain.Dashboard
	invalidations int
}

func newCountingCache() *countingCache {
	return &countingCache{dashboards: make(map[domain.AnalyticsFilter]*domain.Dashboard)}
}

func (c *countingCache) GetDashboard(_ context.Context, f domain.AnalyticsFilter) (*domain.Dashboard, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.dashboards[f]
	return d, ok, nil
}

func (c *countingCache) SetDashboard(_ context.Context, f domain.AnalyticsFilter, d *domain.Dashboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dashboards[f] = d
	return nil
}

func (c *countingCache) GetProfit(context.Context, domain.AnalyticsFilter) (*domain.ProfitAnalytics, bool, error) {
	return nil, false, nil
}

func (c *countingCache) SetProfit(context.Context, domain.AnalyticsFilter, *domain.ProfitAnalytics) error {
	return nil
}

func (c *countingCache) InvalidatePharmacy(context.Context, uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.dashboards = make(map[domain.AnalyticsFilter]*domain.Dashboard)
	return nil
}

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func seedSales(t *testing.T, f *fixture, at time.Time) {
	t.Helper()
	ctx := context.Background()
	a := f.addMedicine(t, "A", 20, 6, 10)
	expiring(t, f, "B", 0, at.AddDate(0, 0, 5))

	c := f.coordinator()
	record := func(when time.Time, method domain.PaymentMethod, qty int) {
		c.builder.now = func() time.Time { return when }
		if _, err := c.RecordSale(ctx, f.tenant, sale("", method, line(a.ID, qty))); err != nil {
			t.Fatalf("record sale: %v", err)
		}
	}
	record(at, domain.PaymentCash, 3)
	record(at.Add(time.Hour), domain.PaymentDebt, 1)
	record(at.AddDate(0, 0, -10), domain.PaymentCash, 2)
}

func TestGetDashboard(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	seedSales(t, f, at)

	s := NewAnalyticsService(f.store, nil, 20, time.UTC)
	s.now = func() time.Time { return at }

	d, err := s.GetDashboard(context.Background(), domain.AnalyticsFilter{PharmacyID: f.tenant.PharmacyID})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Year != 2025 || d.PharmacyCount != 1 || d.MedicineCount != 2 {
		t.Fatalf("unexpected counts %+v", d)
	}
	if d.LowStockCount != 1 || d.ExpiringSoonCount != 1 {
		t.Fatalf("expected 1 low and 1 expiring, got %d/%d", d.LowStockCount, d.ExpiringSoonCount)
	}
	if d.UnpaidDebtCount != 1 || !d.UnpaidDebtTotal.Equal(money(10)) {
		t.Fatalf("unexpected debts %d %s", d.UnpaidDebtCount, d.UnpaidDebtTotal)
	}
	if len(d.MonthlySales) != 12 || !d.MonthlySales[2].Total.Equal(money(60)) || !d.YearTotal.Equal(money(60)) {
		t.Fatalf("unexpected sales %+v total %s", d.MonthlySales, d.YearTotal)
	}
}

func TestGetProfitAnalytics(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	seedSales(t, f, at)

	s := NewAnalyticsService(f.store, nil, 20, time.UTC)
	s.now = func() time.Time { return at }

	p, err := s.GetProfitAnalytics(context.Background(), domain.AnalyticsFilter{PharmacyID: f.tenant.PharmacyID})
	if err != nil {
		t.Fatalf("profit: %v", err)
	}
	if p.Year != 2025 || p.Month != 3 || len(p.Daily) != 31 {
		t.Fatalf("unexpected period %d-%d with %d days", p.Year, p.Month, len(p.Daily))
	}

	day := p.Daily[14]
	if day.Label != "2025-03-15" || !day.Revenue.Equal(money(40)) || !day.Cost.Equal(money(24)) || !day.Profit.Equal(money(16)) {
		t.Fatalf("unexpected day %+v", day)
	}
	if !p.Daily[4].Revenue.Equal(money(20)) {
		t.Fatalf("unexpected 5th %+v", p.Daily[4])
	}
	if !p.Monthly[2].Profit.Equal(money(24)) || !p.Monthly[1].Profit.IsZero() {
		t.Fatalf("unexpected monthly %+v", p.Monthly)
	}
	if len(p.ByPharmacy) != 1 || p.ByPharmacy[0].Quantity != 6 || !p.ByPharmacy[0].Profit.Equal(money(24)) {
		t.Fatalf("unexpected by pharmacy %+v", p.ByPharmacy)
	}

	want := domain.ProfitStats{Today: money(16), Week: money(16), Month: money(24), Year: money(24)}
	got := p.Stats
	if !got.Today.Equal(want.Today) || !got.Week.Equal(want.Week) || !got.Month.Equal(want.Month) || !got.Year.Equal(want.Year) {
		t.Fatalf("unexpected stats %+v", got)
	}
}

func TestSaleInvalidatesAnalyticsCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med := f.addMedicine(t, "A", 20, 6, 10)
	cached := newCountingCache()

	s := NewAnalyticsService(f.store, cached, 20, time.UTC)
	before, err := s.GetDashboard(ctx, domain.AnalyticsFilter{PharmacyID: f.tenant.PharmacyID})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	c := NewSaleCoordinator(f.store, nil, cached, SaleOptions{})
	if _, err := c.RecordSale(ctx, f.tenant, sale("", domain.PaymentCash, line(med.ID, 1))); err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if cached.invalidations != 1 {
		t.Fatalf("expected 1 invalidation, got %d", cached.invalidations)
	}

	after, err := s.GetDashboard(ctx, domain.AnalyticsFilter{PharmacyID: f.tenant.PharmacyID})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !after.YearTotal.Equal(before.YearTotal.Add(money(10))) {
		t.Fatalf("stale dashboard: before %s after %s", before.YearTotal, after.YearTotal)
	}
}

func TestDailyProfitHandlesShortMonths(t *testing.T) {
	if got := len(dailyProfit(nil, 2024, time.February, time.UTC)); got != 29 {
		t.Fatalf("expected 29 days in Feb 2024, got %d", got)
	}
	if got := len(dailyProfit(nil, 2025, time.February, time.UTC)); got != 28 {
		t.Fatalf("expected 28 days in Feb 2025, got %d", got)
	}
}
