package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

type NotificationRepository interface {
	// UpsertNotification inserts or refreshes the unconfirmed alert for
	// (medicine, type). Confirmed alerts are left as they are.
	UpsertNotification(ctx context.Context, n *domain.Notification) (domain.UpsertOutcome, error)
	ListNotifications(ctx context.Context, filter domain.NotificationFilter) ([]*domain.Notification, error)
	ConfirmNotification(ctx context.Context, pharmacyID, id, staffID uuid.UUID, at time.Time) (*domain.Notification, error)
}
