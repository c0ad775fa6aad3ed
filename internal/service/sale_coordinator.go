package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/cache"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/metrics"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/andresuchdata/pharmadesk/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const defaultLockTTL = 10 * time.Second

type SaleOptions struct {
	PersistRetries int
	RetryBackoff   time.Duration
	LockTTL        time.Duration
}

// SaleCoordinator runs a sale as a saga: validate, snapshot prices,
// reserve stock, persist the receipt. Any failure after stock was reserved
// is compensated before the call returns.
type SaleCoordinator struct {
	ledger    *InventoryLedger
	pricing   *PricingSnapshot
	builder   *ReceiptBuilder
	receipts  repository.ReceiptRepository
	locker    cache.Locker
	analytics cache.AnalyticsCache
	inflight  singleflight.Group
	lockTTL   time.Duration
	log       zerolog.Logger
}

func NewSaleCoordinator(store *repository.Store, locker cache.Locker, analytics cache.AnalyticsCache, opts SaleOptions) *SaleCoordinator {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	if analytics == nil {
		analytics = cache.NewNoopAnalyticsCache()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	return &SaleCoordinator{
		ledger:    NewInventoryLedger(store.Medicines),
		pricing:   NewPricingSnapshot(store.Medicines),
		builder:   NewReceiptBuilder(store.Receipts, opts.PersistRetries, opts.RetryBackoff),
		receipts:  store.Receipts,
		locker:    locker,
		analytics: analytics,
		lockTTL:   opts.LockTTL,
		log:       logger.With("sale"),
	}
}

// RecordSale records a sale for the tenant. With a request token the call
// is idempotent: a token that already produced a receipt returns that
// receipt with Replayed set, and concurrent calls with the same token run
// the sale once. If the caller running the sale goes away before anything
// is persisted, the callers still waiting on the token take over the run.
func (c *SaleCoordinator) RecordSale(ctx context.Context, tenant domain.TenantContext, req domain.SaleRequest) (*domain.SaleResult, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	req.Token = strings.TrimSpace(req.Token)
	if err := req.Validate(); err != nil {
		metrics.SalesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	fingerprint := req.Fingerprint(tenant.PharmacyID)

	if req.Token == "" {
		return c.execute(ctx, tenant, req, fingerprint)
	}

	if result, err := c.replay(ctx, tenant.PharmacyID, req.Token, fingerprint); result != nil || err != nil {
		return result, err
	}

	key := tenant.PharmacyID.String() + ":" + req.Token
	var (
		v      interface{}
		err    error
		leader bool
	)
	for {
		leader = false
		v, err, _ = c.inflight.Do(key, func() (interface{}, error) {
			leader = true
			result, err := c.recordLocked(ctx, tenant, req, fingerprint, key)
			if err != nil && ctx.Err() != nil && abortedBeforePersisting(err) {
				return nil, &abandonedRun{err: err}
			}
			return result, err
		})
		var gone *abandonedRun
		if !errors.As(err, &gone) {
			break
		}
		if leader || ctx.Err() != nil {
			return nil, gone.err
		}
		c.log.Debug().Str("key", key).Msg("sale run abandoned by its caller, retrying")
	}
	if err != nil {
		return nil, err
	}

	result := v.(*domain.SaleResult)
	if !leader && !result.Replayed {
		// Coalesced onto another caller's run of the same token.
		copied := *result
		copied.Replayed = true
		metrics.SalesTotal.WithLabelValues("replayed").Inc()
		return &copied, nil
	}
	return result, nil
}

// abandonedRun marks a shared run that stopped because its own caller's
// context ended. Nothing was persisted, so other callers may run again.
type abandonedRun struct {
	err error
}

func (e *abandonedRun) Error() string { return e.err.Error() }

func abortedBeforePersisting(err error) bool {
	var aborted *domain.SaleAbortedError
	return errors.As(err, &aborted) && aborted.Stage != domain.SalePersisting
}

func (c *SaleCoordinator) recordLocked(ctx context.Context, tenant domain.TenantContext, req domain.SaleRequest, fingerprint, key string) (*domain.SaleResult, error) {
	lockCtx, cancel := context.WithTimeout(ctx, c.lockTTL)
	defer cancel()

	lock, err := c.locker.Obtain(lockCtx, "sale:"+key, c.lockTTL)
	if err != nil {
		metrics.SalesTotal.WithLabelValues("aborted").Inc()
		return nil, &domain.SaleAbortedError{Stage: domain.SaleCollecting, Cause: err}
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("could not release sale lock")
		}
	}()

	// Another process may have committed while we waited for the lock.
	if result, err := c.replay(ctx, tenant.PharmacyID, req.Token, fingerprint); result != nil || err != nil {
		return result, err
	}
	return c.execute(ctx, tenant, req, fingerprint)
}

func (c *SaleCoordinator) replay(ctx context.Context, pharmacyID uuid.UUID, token, fingerprint string) (*domain.SaleResult, error) {
	existing, err := c.receipts.FindReceiptByToken(ctx, pharmacyID, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up request token: %w", err)
	}
	if existing.RequestHash != nil && *existing.RequestHash != fingerprint {
		metrics.SalesTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrTokenConflict
	}
	metrics.SalesTotal.WithLabelValues("replayed").Inc()
	return &domain.SaleResult{Receipt: existing, Replayed: true}, nil
}

func (c *SaleCoordinator) execute(ctx context.Context, tenant domain.TenantContext, req domain.SaleRequest, fingerprint string) (*domain.SaleResult, error) {
	log := c.log.With().
		Str("pharmacy_id", tenant.PharmacyID.String()).
		Str("staff_id", tenant.StaffID.String()).
		Str("token", req.Token).
		Logger()

	// Validating
	lines := req.Lines()
	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.MedicineID
	}

	prices, err := c.pricing.Capture(ctx, tenant.PharmacyID, ids)
	if err != nil {
		return nil, c.reject(err, domain.SaleValidating)
	}
	for _, line := range lines {
		if p := prices[line.MedicineID]; p.Stock < line.Quantity {
			return nil, c.reject(&domain.InsufficientStockError{
				MedicineID:   line.MedicineID,
				MedicineName: p.Name,
				Available:    p.Stock,
				Requested:    line.Quantity,
			}, domain.SaleValidating)
		}
	}

	receipt, err := c.builder.Build(tenant, req, lines, prices, fingerprint)
	if err != nil {
		return nil, c.reject(err, domain.SaleValidating)
	}

	// Reserving
	if err := ctx.Err(); err != nil {
		return nil, c.reject(err, domain.SaleValidating)
	}
	reservations, err := c.ledger.ReserveAll(ctx, tenant.PharmacyID, lines)
	if err != nil {
		return nil, c.reject(err, domain.SaleReserving)
	}

	// Last point at which the caller can still cancel.
	if err := ctx.Err(); err != nil {
		if relErr := c.ledger.ReleaseAll(context.WithoutCancel(ctx), tenant.PharmacyID, reservations); relErr != nil {
			return nil, c.reconcile(log, relErr)
		}
		return nil, c.reject(err, domain.SaleReserving)
	}

	// Persisting runs to completion or compensation regardless of the caller.
	pctx := context.WithoutCancel(ctx)
	if err := c.builder.Persist(pctx, receipt); err != nil {
		return c.compensate(pctx, log, tenant, req, fingerprint, reservations, err)
	}

	// Committed
	if err := c.analytics.InvalidatePharmacy(pctx, tenant.PharmacyID); err != nil {
		log.Warn().Err(err).Msg("analytics cache invalidation failed")
	}
	metrics.SalesTotal.WithLabelValues("committed").Inc()
	log.Info().
		Str("receipt_id", receipt.ID.String()).
		Str("total", receipt.TotalAmount.StringFixed(2)).
		Int("items", len(receipt.Items)).
		Msg("sale committed")

	return &domain.SaleResult{Receipt: receipt}, nil
}

func (c *SaleCoordinator) compensate(ctx context.Context, log zerolog.Logger, tenant domain.TenantContext, req domain.SaleRequest, fingerprint string, reservations []domain.Reservation, persistErr error) (*domain.SaleResult, error) {
	relErr := c.ledger.ReleaseAll(ctx, tenant.PharmacyID, reservations)

	var recon *domain.ReconciliationRequiredError
	if errors.As(persistErr, &recon) {
		var relRecon *domain.ReconciliationRequiredError
		if errors.As(relErr, &relRecon) {
			recon.Unreleased = append(recon.Unreleased, relRecon.Unreleased...)
		}
		return nil, c.reconcile(log, recon)
	}
	if relErr != nil {
		return nil, c.reconcile(log, relErr)
	}

	// Lost a race with another process holding the same token.
	if errors.Is(persistErr, domain.ErrDuplicateToken) && req.Token != "" {
		if result, err := c.replay(ctx, tenant.PharmacyID, req.Token, fingerprint); result != nil || err != nil {
			return result, err
		}
	}

	metrics.SalesTotal.WithLabelValues("aborted").Inc()
	log.Warn().Err(persistErr).Msg("sale aborted, stock restored")
	return nil, &domain.SaleAbortedError{Stage: domain.SalePersisting, Cause: persistErr}
}

// reject maps a pre-persistence failure onto the error the caller sees.
func (c *SaleCoordinator) reject(err error, stage domain.SaleState) error {
	switch {
	case errors.Is(err, domain.ErrReconciliationRequired):
		return c.reconcile(c.log, err)
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation):
		metrics.SalesTotal.WithLabelValues("rejected").Inc()
		return err
	}
	metrics.SalesTotal.WithLabelValues("aborted").Inc()
	return &domain.SaleAbortedError{Stage: stage, Cause: err}
}

func (c *SaleCoordinator) reconcile(log zerolog.Logger, err error) error {
	metrics.SalesTotal.WithLabelValues("reconciliation").Inc()
	log.Error().Err(err).Msg("sale needs manual reconciliation")
	return err
}
