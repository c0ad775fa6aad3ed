package service

import (
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/cache"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/pipeline/alerts"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// AnalyticsService builds the owner dashboards from receipts and the
// catalog. uuid.Nil as pharmacy aggregates every pharmacy.
type AnalyticsService struct {
	store     *repository.Store
	cache     cache.AnalyticsCache
	evaluator *alerts.Evaluator
	location  *time.Location
	now       func() time.Time
}

func NewAnalyticsService(store *repository.Store, cacheImpl cache.AnalyticsCache, expiryWindowDays int, loc *time.Location) *AnalyticsService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalyticsCache()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{
		store:     store,
		cache:     cacheImpl,
		evaluator: alerts.NewEvaluator(expiryWindowDays, loc),
		location:  loc,
		now:       time.Now,
	}
}

func (s *AnalyticsService) normalize(filter domain.AnalyticsFilter) domain.AnalyticsFilter {
	now := s.now().In(s.location)
	if filter.Year <= 0 {
		filter.Year = now.Year()
	}
	if filter.Month < 1 || filter.Month > 12 {
		filter.Month = int(now.Month())
	}
	return filter
}

func (s *AnalyticsService) GetDashboard(ctx context.Context, filter domain.AnalyticsFilter) (*domain.Dashboard, error) {
	filter = s.normalize(filter)

	if d, ok, err := s.cache.GetDashboard(ctx, filter); err == nil && ok {
		return d, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analytics: cache get dashboard failed")
	}

	var (
		medicines []*domain.Medicine
		debts     []*domain.Receipt
		sold      []domain.SoldItem
		pharmacy  int
	)
	yearStart := time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, s.location)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if filter.PharmacyID != uuid.Nil {
			pharmacy = 1
			return nil
		}
		list, err := s.store.Pharmacies.ListPharmacies(gctx)
		pharmacy = len(list)
		return err
	})
	g.Go(func() error {
		var err error
		medicines, err = s.store.Medicines.ListMedicines(gctx, domain.MedicineFilter{PharmacyID: filter.PharmacyID})
		return err
	})
	g.Go(func() error {
		var err error
		debts, err = listAllReceipts(gctx, s.store.Receipts, domain.ReceiptFilter{PharmacyID: filter.PharmacyID, UnpaidDebtOnly: true})
		return err
	})
	g.Go(func() error {
		var err error
		sold, err = s.store.Receipts.ListSoldItems(gctx, filter.PharmacyID, yearStart, yearStart.AddDate(1, 0, 0))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &domain.Dashboard{
		Year:            filter.Year,
		PharmacyCount:   pharmacy,
		MedicineCount:   len(medicines),
		UnpaidDebtCount: len(debts),
		UnpaidDebtTotal: decimal.Zero,
		YearTotal:       decimal.Zero,
	}
	now := s.now()
	for _, m := range medicines {
		for _, f := range s.evaluator.Evaluate(m, now) {
			switch f.Type {
			case domain.NotificationLowStock:
				d.LowStockCount++
			case domain.NotificationExpiring:
				d.ExpiringSoonCount++
			}
		}
	}
	for _, r := range debts {
		d.UnpaidDebtTotal = d.UnpaidDebtTotal.Add(r.TotalAmount)
	}
	d.MonthlySales = monthlySales(sold, s.location)
	for _, m := range d.MonthlySales {
		d.YearTotal = d.YearTotal.Add(m.Total)
	}

	if err := s.cache.SetDashboard(ctx, filter, d); err != nil {
		log.Warn().Err(err).Msg("analytics: cache set dashboard failed")
	}
	return d, nil
}

func (s *AnalyticsService) GetProfitAnalytics(ctx context.Context, filter domain.AnalyticsFilter) (*domain.ProfitAnalytics, error) {
	filter = s.normalize(filter)

	if p, ok, err := s.cache.GetProfit(ctx, filter); err == nil && ok {
		return p, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analytics: cache get profit failed")
	}

	now := s.now().In(s.location)
	yearStart := time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, s.location)
	statsFrom := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, s.location)
	if weekAgo := startOfDay(now).AddDate(0, 0, -6); weekAgo.Before(statsFrom) {
		statsFrom = weekAgo
	}

	var yearItems, recentItems []domain.SoldItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		yearItems, err = s.store.Receipts.ListSoldItems(gctx, filter.PharmacyID, yearStart, yearStart.AddDate(1, 0, 0))
		return err
	})
	g.Go(func() error {
		var err error
		recentItems, err = s.store.Receipts.ListSoldItems(gctx, filter.PharmacyID, statsFrom, startOfDay(now).AddDate(0, 0, 1))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p := &domain.ProfitAnalytics{
		Year:       filter.Year,
		Month:      filter.Month,
		Daily:      dailyProfit(yearItems, filter.Year, time.Month(filter.Month), s.location),
		Monthly:    monthlyProfit(yearItems, s.location),
		ByPharmacy: profitByPharmacy(yearItems),
		Stats:      profitStats(recentItems, now),
	}

	if err := s.cache.SetProfit(ctx, filter, p); err != nil {
		log.Warn().Err(err).Msg("analytics: cache set profit failed")
	}
	return p, nil
}

func listAllReceipts(ctx context.Context, repo repository.ReceiptRepository, filter domain.ReceiptFilter) ([]*domain.Receipt, error) {
	filter.Page, filter.PageSize = 1, 200
	out := make([]*domain.Receipt, 0)
	for {
		page, total, err := repo.ListReceipts(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) == 0 || len(out) >= total {
			return out, nil
		}
		filter.Page++
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func itemCost(item domain.SoldItem) decimal.Decimal {
	return domain.RoundMoney(item.BuyingPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
}

func emptyPoint(label string) domain.ProfitPoint {
	return domain.ProfitPoint{Label: label, Revenue: decimal.Zero, Cost: decimal.Zero, Profit: decimal.Zero}
}

func addToPoint(p *domain.ProfitPoint, item domain.SoldItem) {
	p.Revenue = p.Revenue.Add(item.Total)
	p.Cost = p.Cost.Add(itemCost(item))
	p.Profit = p.Profit.Add(item.Profit)
}

func monthlySales(items []domain.SoldItem, loc *time.Location) []domain.MonthlySales {
	out := make([]domain.MonthlySales, 12)
	for i := range out {
		out[i] = domain.MonthlySales{Month: i + 1, Label: monthLabels[i], Total: decimal.Zero}
	}
	for _, item := range items {
		m := item.SoldAt.In(loc).Month()
		out[m-1].Total = out[m-1].Total.Add(item.Total)
	}
	return out
}

func monthlyProfit(items []domain.SoldItem, loc *time.Location) []domain.ProfitPoint {
	out := make([]domain.ProfitPoint, 12)
	for i := range out {
		out[i] = emptyPoint(monthLabels[i])
	}
	for _, item := range items {
		m := item.SoldAt.In(loc).Month()
		addToPoint(&out[m-1], item)
	}
	return out
}

// dailyProfit returns one point per day of the given month.
func dailyProfit(items []domain.SoldItem, year int, month time.Month, loc *time.Location) []domain.ProfitPoint {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := first.AddDate(0, 1, -1).Day()

	out := make([]domain.ProfitPoint, days)
	for i := range out {
		out[i] = emptyPoint(first.AddDate(0, 0, i).Format("2006-01-02"))
	}
	for _, item := range items {
		at := item.SoldAt.In(loc)
		if at.Year() != year || at.Month() != month {
			continue
		}
		addToPoint(&out[at.Day()-1], item)
	}
	return out
}

func profitByPharmacy(items []domain.SoldItem) []domain.PharmacyProfit {
	byID := make(map[uuid.UUID]*domain.PharmacyProfit)
	for _, item := range items {
		p, ok := byID[item.PharmacyID]
		if !ok {
			p = &domain.PharmacyProfit{
				PharmacyID:   item.PharmacyID,
				PharmacyName: item.PharmacyName,
				Revenue:      decimal.Zero,
				Profit:       decimal.Zero,
			}
			byID[item.PharmacyID] = p
		}
		p.Quantity += item.Quantity
		p.Revenue = p.Revenue.Add(item.Total)
		p.Profit = p.Profit.Add(item.Profit)
	}

	out := make([]domain.PharmacyProfit, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Profit.Cmp(out[j].Profit); c != 0 {
			return c > 0
		}
		return out[i].PharmacyName < out[j].PharmacyName
	})
	return out
}

// profitStats sums profit for today, the last seven days, this month and
// this year, all relative to now's calendar.
func profitStats(items []domain.SoldItem, now time.Time) domain.ProfitStats {
	today := startOfDay(now)
	weekStart := today.AddDate(0, 0, -6)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	stats := domain.ProfitStats{Today: decimal.Zero, Week: decimal.Zero, Month: decimal.Zero, Year: decimal.Zero}
	for _, item := range items {
		at := item.SoldAt.In(now.Location())
		if !at.Before(today) {
			stats.Today = stats.Today.Add(item.Profit)
		}
		if !at.Before(weekStart) {
			stats.Week = stats.Week.Add(item.Profit)
		}
		if !at.Before(monthStart) {
			stats.Month = stats.Month.Add(item.Profit)
		}
		if !at.Before(yearStart) {
			stats.Year = stats.Year.Add(item.Profit)
		}
	}
	return stats
}
