// Package app assembles repositories, cache, locker and services from
// configuration. Both the HTTP server and the admin CLI build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/api"
	"github.com/andresuchdata/pharmadesk/internal/cache"
	"github.com/andresuchdata/pharmadesk/internal/config"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/andresuchdata/pharmadesk/internal/repository/memory"
	"github.com/andresuchdata/pharmadesk/internal/repository/postgres"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/andresuchdata/pharmadesk/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config   *config.Config
	Store    *repository.Store
	Services *api.Services
	Location *time.Location

	db    *postgres.DB
	redis *redis.Client
}

// New connects the configured backends. With CACHE_ENABLED unset the
// analytics cache is a no-op and sale/scan locks are process-local.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.With("app")

	loc, err := time.LoadLocation(cfg.Alerts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ALERTS_TIMEZONE %q: %w", cfg.Alerts.Timezone, err)
	}

	a := &App{Config: cfg, Location: loc}

	switch cfg.Database.Backend {
	case config.StorageBackendMemory:
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		a.Store = memory.NewStore().Repositories()
	case config.StorageBackendPostgres, "":
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		a.Store = postgres.NewStore(db)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Database.Backend)
	}

	analytics := cache.NewNoopAnalyticsCache()
	locker := cache.NewLocalLocker()
	if cfg.Cache.Enabled {
		client, err := cache.NewRedisClient(cfg.Cache)
		if err != nil {
			log.Error().Err(err).Msg("redis unavailable, falling back to local cache and locks")
		} else {
			a.redis = client
			analytics = cache.NewAnalyticsCache(client, cfg.Cache.AnalyticsTTLSeconds)
			locker = cache.NewRedisLocker(client)
		}
	}

	a.Services = &api.Services{
		Sales: service.NewSaleCoordinator(a.Store, locker, analytics, service.SaleOptions{
			PersistRetries: cfg.Sale.PersistRetries,
			RetryBackoff:   time.Duration(cfg.Sale.RetryBackoffMillis) * time.Millisecond,
			LockTTL:        time.Duration(cfg.Sale.LockTTLSeconds) * time.Second,
		}),
		Receipts:  service.NewReceiptService(a.Store.Receipts),
		Debts:     service.NewDebtService(a.Store.Receipts, a.Store.AdminDebts, analytics),
		Medicines: service.NewMedicineService(a.Store.Medicines, analytics),
		Alerts: service.NewAlertService(a.Store, locker, service.AlertOptions{
			ExpiryWindowDays: cfg.Alerts.ExpiryWindowDays,
			Location:         loc,
			MaxConcurrency:   cfg.Alerts.MaxConcurrency,
		}),
		Analytics:  service.NewAnalyticsService(a.Store, analytics, cfg.Alerts.ExpiryWindowDays, loc),
		Pharmacies: service.NewPharmacyService(a.Store.Pharmacies),
	}

	return a, nil
}

// Migrate applies the schema. It is a no-op for the memory backend.
func (a *App) Migrate(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.Migrate(ctx)
}

func (a *App) Close() error {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
