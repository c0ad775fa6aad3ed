package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/metrics"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const releaseAttempts = 2

// InventoryLedger owns stock quantities. Every decrement is a single
// compare-and-set in the store, so concurrent sales of the same medicine
// serialize there and nowhere else.
type InventoryLedger struct {
	repo    repository.MedicineRepository
	release retryPolicy
}

func NewInventoryLedger(repo repository.MedicineRepository) *InventoryLedger {
	return &InventoryLedger{repo: repo, release: retryPolicy{retries: releaseAttempts - 1}}
}

func (l *InventoryLedger) Reserve(ctx context.Context, pharmacyID, medicineID uuid.UUID, qty int) error {
	if qty <= 0 {
		return domain.NewValidationError("quantity", "must be greater than zero")
	}
	_, err := l.repo.DecrementStock(ctx, pharmacyID, medicineID, qty)
	return err
}

func (l *InventoryLedger) Release(ctx context.Context, pharmacyID, medicineID uuid.UUID, qty int) error {
	if qty <= 0 {
		return domain.NewValidationError("quantity", "must be greater than zero")
	}
	_, err := l.repo.IncrementStock(ctx, pharmacyID, medicineID, qty)
	return err
}

// ReserveAll reserves lines in ascending medicine id order. On any
// failure the reservations already taken are released before returning.
func (l *InventoryLedger) ReserveAll(ctx context.Context, pharmacyID uuid.UUID, lines []domain.SaleLine) ([]domain.Reservation, error) {
	ordered := make([]domain.SaleLine, len(lines))
	copy(ordered, lines)
	domain.SortLines(ordered)

	reserved := make([]domain.Reservation, 0, len(ordered))
	for _, line := range ordered {
		err := ctx.Err()
		if err == nil {
			err = l.Reserve(ctx, pharmacyID, line.MedicineID, line.Quantity)
		}
		if err != nil {
			if relErr := l.ReleaseAll(context.WithoutCancel(ctx), pharmacyID, reserved); relErr != nil {
				return nil, relErr
			}
			return nil, err
		}
		reserved = append(reserved, domain.Reservation{MedicineID: line.MedicineID, Quantity: line.Quantity})
	}
	return reserved, nil
}

// ReleaseAll returns reserved stock, newest first. Anything that cannot be
// returned is reported in a *domain.ReconciliationRequiredError.
func (l *InventoryLedger) ReleaseAll(ctx context.Context, pharmacyID uuid.UUID, reservations []domain.Reservation) error {
	var (
		unreleased []domain.Reservation
		errs       []error
	)
	for i := len(reservations) - 1; i >= 0; i-- {
		r := reservations[i]
		err := l.release.do(ctx, "release stock", func() error {
			return l.Release(ctx, pharmacyID, r.MedicineID, r.Quantity)
		})
		if err != nil {
			metrics.StockCompensations.WithLabelValues("failed").Inc()
			log.Error().Err(err).
				Str("pharmacy_id", pharmacyID.String()).
				Str("medicine_id", r.MedicineID.String()).
				Int("quantity", r.Quantity).
				Msg("ledger: could not release reserved stock")
			unreleased = append(unreleased, r)
			errs = append(errs, fmt.Errorf("release %s: %w", r.MedicineID, err))
			continue
		}
		metrics.StockCompensations.WithLabelValues("released").Inc()
	}

	if len(unreleased) == 0 {
		return nil
	}
	return &domain.ReconciliationRequiredError{Unreleased: unreleased, Cause: errors.Join(errs...)}
}

// Restock adds delivered units.
func (l *InventoryLedger) Restock(ctx context.Context, pharmacyID, medicineID uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.NewValidationError("quantity", "must be greater than zero")
	}
	return l.repo.IncrementStock(ctx, pharmacyID, medicineID, qty)
}
