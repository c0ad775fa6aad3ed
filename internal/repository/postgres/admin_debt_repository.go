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

const adminDebtColumns = `id, person_name, phone_number, amount, expected_payment_date, notes,
	is_paid, paid_at, created_at`

type adminDebtRepository struct {
	db *DB
}

func NewAdminDebtRepository(db *DB) *adminDebtRepository {
	return &adminDebtRepository{db: db}
}

func (r *adminDebtRepository) CreateAdminDebt(ctx context.Context, d *domain.AdminDebt) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO admin_debts (` + adminDebtColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		d.ID, d.PersonName, d.PhoneNumber, d.Amount, d.ExpectedPaymentDate, d.Notes,
		d.IsPaid, d.PaidAt, d.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create admin debt: %w", err)
	}
	return nil
}

func (r *adminDebtRepository) GetAdminDebt(ctx context.Context, id uuid.UUID) (*domain.AdminDebt, error) {
	var d domain.AdminDebt
	err := r.db.GetContext(ctx, &d, `SELECT `+adminDebtColumns+` FROM admin_debts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("admin debt", id)
		}
		return nil, fmt.Errorf("failed to get admin debt: %w", err)
	}
	return &d, nil
}

func (r *adminDebtRepository) ListAdminDebts(ctx context.Context, filter domain.AdminDebtFilter) ([]*domain.AdminDebt, error) {
	query := `SELECT ` + adminDebtColumns + ` FROM admin_debts`
	var args []interface{}
	if filter.Paid != nil {
		query += ` WHERE is_paid = $1`
		args = append(args, *filter.Paid)
	}
	query += ` ORDER BY created_at DESC`

	debts := make([]*domain.AdminDebt, 0)
	if err := r.db.SelectContext(ctx, &debts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list admin debts: %w", err)
	}
	return debts, nil
}

func (r *adminDebtRepository) UpdateAdminDebt(ctx context.Context, d *domain.AdminDebt) error {
	query := `
		UPDATE admin_debts
		SET person_name = $2, phone_number = $3, amount = $4, expected_payment_date = $5,
			notes = $6, is_paid = $7, paid_at = $8
		WHERE id = $1
		RETURNING created_at`
	err := r.db.QueryRowxContext(ctx, query,
		d.ID, d.PersonName, d.PhoneNumber, d.Amount, d.ExpectedPaymentDate, d.Notes, d.IsPaid, d.PaidAt,
	).Scan(&d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFound("admin debt", d.ID)
		}
		return fmt.Errorf("failed to update admin debt: %w", err)
	}
	return nil
}

func (r *adminDebtRepository) DeleteAdminDebt(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_debts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin debt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFound("admin debt", id)
	}
	return nil
}
