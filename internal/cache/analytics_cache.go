package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	analyticsKeyPrefix     = "analytics"
	analyticsScanBatchSize = 100

	kindDashboard = "dashboard"
	kindProfit    = "profit"
)

// AnalyticsCache holds computed dashboards. Entries for a pharmacy and the
// cross-pharmacy aggregates are dropped whenever that pharmacy sells.
type AnalyticsCache interface {
	GetDashboard(ctx context.Context, filter domain.AnalyticsFilter) (*domain.Dashboard, bool, error)
	SetDashboard(ctx context.Context, filter domain.AnalyticsFilter, d *domain.Dashboard) error
	GetProfit(ctx context.Context, filter domain.AnalyticsFilter) (*domain.ProfitAnalytics, bool, error)
	SetProfit(ctx context.Context, filter domain.AnalyticsFilter, p *domain.ProfitAnalytics) error
	InvalidatePharmacy(ctx context.Context, pharmacyID uuid.UUID) error
}

type redisAnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAnalyticsCache struct{}

func NewAnalyticsCache(client *redis.Client, ttlSeconds int) AnalyticsCache {
	if client == nil {
		return &noopAnalyticsCache{}
	}
	return &redisAnalyticsCache{client: client, ttl: ttlFromSeconds(ttlSeconds)}
}

func NewNoopAnalyticsCache() AnalyticsCache {
	return &noopAnalyticsCache{}
}

func (c *redisAnalyticsCache) GetDashboard(ctx context.Context, filter domain.AnalyticsFilter) (*domain.Dashboard, bool, error) {
	var d domain.Dashboard
	ok, err := c.get(ctx, buildAnalyticsKey(kindDashboard, filter), &d)
	if !ok || err != nil {
		return nil, false, err
	}
	return &d, true, nil
}

func (c *redisAnalyticsCache) SetDashboard(ctx context.Context, filter domain.AnalyticsFilter, d *domain.Dashboard) error {
	return c.set(ctx, buildAnalyticsKey(kindDashboard, filter), d)
}

func (c *redisAnalyticsCache) GetProfit(ctx context.Context, filter domain.AnalyticsFilter) (*domain.ProfitAnalytics, bool, error) {
	var p domain.ProfitAnalytics
	ok, err := c.get(ctx, buildAnalyticsKey(kindProfit, filter), &p)
	if !ok || err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (c *redisAnalyticsCache) SetProfit(ctx context.Context, filter domain.AnalyticsFilter, p *domain.ProfitAnalytics) error {
	return c.set(ctx, buildAnalyticsKey(kindProfit, filter), p)
}

func (c *redisAnalyticsCache) InvalidatePharmacy(ctx context.Context, pharmacyID uuid.UUID) error {
	if err := deleteKeysWithPrefix(ctx, c.client, scopePrefix(pharmacyID), analyticsScanBatchSize); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, scopePrefix(uuid.Nil), analyticsScanBatchSize)
}

func (c *redisAnalyticsCache) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode analytics cache: %w", err)
	}
	return true, nil
}

func (c *redisAnalyticsCache) set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode analytics cache: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopAnalyticsCache) GetDashboard(ctx context.Context, filter domain.AnalyticsFilter) (*domain.Dashboard, bool, error) {
	return nil, false, nil
}

func (n *noopAnalyticsCache) SetDashboard(ctx context.Context, filter domain.AnalyticsFilter, d *domain.Dashboard) error {
	return nil
}

func (n *noopAnalyticsCache) GetProfit(ctx context.Context, filter domain.AnalyticsFilter) (*domain.ProfitAnalytics, bool, error) {
	return nil, false, nil
}

func (n *noopAnalyticsCache) SetProfit(ctx context.Context, filter domain.AnalyticsFilter, p *domain.ProfitAnalytics) error {
	return nil
}

func (n *noopAnalyticsCache) InvalidatePharmacy(ctx context.Context, pharmacyID uuid.UUID) error {
	return nil
}

// scopePrefix is "analytics:all:" for cross-pharmacy entries.
func scopePrefix(pharmacyID uuid.UUID) string {
	scope := "all"
	if pharmacyID != uuid.Nil {
		scope = pharmacyID.String()
	}
	return fmt.Sprintf("%s:%s:", analyticsKeyPrefix, scope)
}

func buildAnalyticsKey(kind string, filter domain.AnalyticsFilter) string {
	return scopePrefix(filter.PharmacyID) + kind + ":" + analyticsFilterHash(filter)
}

func analyticsFilterHash(filter domain.AnalyticsFilter) string {
	raw := fmt.Sprintf("year=%d|month=%d", filter.Year, filter.Month)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
