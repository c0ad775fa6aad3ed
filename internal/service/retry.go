package service

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/metrics"
	"github.com/rs/zerolog/log"
)

// retryPolicy retries transient store failures. Domain outcomes and
// context errors are final.
type retryPolicy struct {
	retries int
	backoff time.Duration
}

func (p retryPolicy) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			metrics.StoreRetries.Inc()
			log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("retrying store write")
			if p.backoff > 0 {
				select {
				case <-time.After(p.backoff * time.Duration(attempt)):
				case <-ctx.Done():
					return err
				}
			}
		}
		if err = fn(); err == nil || !isTransient(err) {
			return err
		}
	}
	return err
}

func isTransient(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrDuplicateToken),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrMedicineInUse):
		return false
	}
	return true
}
