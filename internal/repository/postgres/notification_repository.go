package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

const notificationColumns = `id, pharmacy_id, medicine_id, type, message, days_remaining,
	is_confirmed, confirmed_by, confirmed_at, created_at`

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) UpsertNotification(ctx context.Context, n *domain.Notification) (domain.UpsertOutcome, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO notifications (id, pharmacy_id, medicine_id, type, message, days_remaining, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (medicine_id, type) DO UPDATE
		SET message = EXCLUDED.message, days_remaining = EXCLUDED.days_remaining
		WHERE notifications.is_confirmed = FALSE
		RETURNING ` + notificationColumns + `, (xmax = 0) AS inserted`

	// xmax is zero only for a row version created by this INSERT.
	var row struct {
		domain.Notification
		Inserted bool `db:"inserted"`
	}
	err := r.db.QueryRowxContext(ctx, query,
		n.ID, n.PharmacyID, n.MedicineID, string(n.Type), n.Message, n.DaysRemaining, n.CreatedAt,
	).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UpsertSkipped, nil
	}
	if err != nil {
		return domain.UpsertSkipped, fmt.Errorf("failed to upsert notification: %w", err)
	}
	*n = row.Notification
	if row.Inserted {
		return domain.UpsertInserted, nil
	}
	return domain.UpsertRefreshed, nil
}

func (r *notificationRepository) ListNotifications(ctx context.Context, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	where, args := buildNotificationFilterClause(filter, "")
	query := `SELECT ` + notificationColumns + ` FROM notifications` + where + ` ORDER BY created_at DESC, id ASC`

	notifications := make([]*domain.Notification, 0)
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// ConfirmNotification is idempotent: confirming twice keeps the first
// confirmer.
func (r *notificationRepository) ConfirmNotification(ctx context.Context, pharmacyID, id, staffID uuid.UUID, at time.Time) (*domain.Notification, error) {
	query := `
		UPDATE notifications
		SET is_confirmed = TRUE, confirmed_by = $2, confirmed_at = $3
		WHERE id = $1 AND is_confirmed = FALSE`
	args := []interface{}{id, staffID, at}
	if pharmacyID != uuid.Nil {
		query += ` AND pharmacy_id = $4`
		args = append(args, pharmacyID)
	}
	query += ` RETURNING ` + notificationColumns

	var n domain.Notification
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&n)
	if err == nil {
		return &n, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to confirm notification: %w", err)
	}

	lookup := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	lookupArgs := []interface{}{id}
	if pharmacyID != uuid.Nil {
		lookup += ` AND pharmacy_id = $2`
		lookupArgs = append(lookupArgs, pharmacyID)
	}
	if err := r.db.GetContext(ctx, &n, lookup, lookupArgs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("notification", id)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}
