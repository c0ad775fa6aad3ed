package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/cache"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/metrics"
	"github.com/andresuchdata/pharmadesk/internal/pipeline/alerts"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultScanConcurrency = 4
	scanLockTTL            = 2 * time.Minute
	scanLockWait           = 2 * time.Second
)

type AlertOptions struct {
	ExpiryWindowDays int
	Location         *time.Location
	MaxConcurrency   int
}

// AlertService raises low-stock and expiry notifications. Scans are
// triggered from outside (scheduler, CLI, HTTP) and are idempotent.
type AlertService struct {
	medicines     repository.MedicineRepository
	notifications repository.NotificationRepository
	pharmacies    repository.PharmacyRepository
	evaluator     *alerts.Evaluator
	locker        cache.Locker
	concurrency   int
	lockWait      time.Duration
	now           func() time.Time
}

func NewAlertService(store *repository.Store, locker cache.Locker, opts AlertOptions) *AlertService {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultScanConcurrency
	}
	return &AlertService{
		medicines:     store.Medicines,
		notifications: store.Notifications,
		pharmacies:    store.Pharmacies,
		evaluator:     alerts.NewEvaluator(opts.ExpiryWindowDays, opts.Location),
		locker:        locker,
		concurrency:   opts.MaxConcurrency,
		lockWait:      scanLockWait,
		now:           time.Now,
	}
}

func (s *AlertService) RunAlertScan(ctx context.Context, pharmacyID uuid.UUID) (*domain.AlertScanResult, error) {
	if pharmacyID == uuid.Nil {
		return nil, domain.NewValidationError("pharmacy_id", "required")
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	lock, err := s.locker.Obtain(lockCtx, "alerts:"+pharmacyID.String(), scanLockTTL)
	if errors.Is(err, cache.ErrLockNotObtained) {
		return nil, domain.ErrScanInProgress
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("alerts: could not release scan lock")
		}
	}()

	medicines, err := s.medicines.ListMedicines(ctx, domain.MedicineFilter{PharmacyID: pharmacyID})
	if err != nil {
		return nil, err
	}

	result := &domain.AlertScanResult{
		PharmacyID:       pharmacyID,
		MedicinesScanned: len(medicines),
		Notifications:    make([]*domain.Notification, 0),
	}
	now := s.now()
	for _, m := range medicines {
		for _, finding := range s.evaluator.Evaluate(m, now) {
			n := &domain.Notification{
				PharmacyID:    pharmacyID,
				MedicineID:    m.ID,
				Type:          finding.Type,
				Message:       finding.Message,
				DaysRemaining: finding.DaysRemaining,
			}
			outcome, err := s.notifications.UpsertNotification(ctx, n)
			if err != nil {
				return nil, fmt.Errorf("upsert %s alert for %s: %w", finding.Type, m.ID, err)
			}
			metrics.AlertsUpserted.WithLabelValues(string(finding.Type), outcome.String()).Inc()
			switch outcome {
			case domain.UpsertInserted:
				result.AlertsRaised++
				result.Notifications = append(result.Notifications, n)
			case domain.UpsertRefreshed:
				result.AlertsRefreshed++
			default:
				result.AlertsSkipped++
			}
		}
	}

	log.Info().
		Str("pharmacy_id", pharmacyID.String()).
		Int("medicines", result.MedicinesScanned).
		Int("raised", result.AlertsRaised).
		Int("refreshed", result.AlertsRefreshed).
		Int("skipped", result.AlertsSkipped).
		Msg("alerts: scan finished")

	return result, nil
}

// ScanAll scans every pharmacy with bounded concurrency. One pharmacy
// failing does not stop the others; their errors are joined.
func (s *AlertService) ScanAll(ctx context.Context) ([]*domain.AlertScanResult, error) {
	pharmacies, err := s.pharmacies.ListPharmacies(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.AlertScanResult, len(pharmacies))
	errs := make([]error, len(pharmacies))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, p := range pharmacies {
		g.Go(func() error {
			res, err := s.RunAlertScan(ctx, p.ID)
			if err != nil {
				log.Error().Err(err).Str("pharmacy_id", p.ID.String()).Msg("alerts: scan failed")
				errs[i] = fmt.Errorf("pharmacy %s: %w", p.ID, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*domain.AlertScanResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, errors.Join(errs...)
}

func (s *AlertService) ListNotifications(ctx context.Context, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	return s.notifications.ListNotifications(ctx, filter)
}

// ConfirmNotification is the only way an alert is resolved.
func (s *AlertService) ConfirmNotification(ctx context.Context, tenant domain.TenantContext, id uuid.UUID) (*domain.Notification, error) {
	if tenant.StaffID == uuid.Nil {
		return nil, domain.NewValidationError("staff_id", "tenant has no staff member")
	}
	return s.notifications.ConfirmNotification(ctx, tenant.PharmacyID, id, tenant.StaffID, s.now().UTC())
}
