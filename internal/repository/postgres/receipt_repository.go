package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const receiptColumns = `id, pharmacy_id, staff_id, customer_name, payment_method, total_amount,
	request_token, request_hash, created_at, debt_paid_at, debt_paid_by`

const receiptItemColumns = `id, receipt_id, medicine_id, medicine_name, quantity,
	buying_price, selling_price, profit, total`

type receiptRepository struct {
	db *DB
}

func NewReceiptRepository(db *DB) *receiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, rc *domain.Receipt) error {
	if rc.ID == uuid.Nil {
		rc.ID = uuid.New()
	}
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = time.Now().UTC()
	}

	release, err := r.db.guard(ctx)
	if err != nil {
		return err
	}
	defer release()

	query := `INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query,
		rc.ID, rc.PharmacyID, rc.StaffID, rc.CustomerName, string(rc.PaymentMethod), rc.TotalAmount,
		rc.RequestToken, rc.RequestHash, rc.CreatedAt, rc.DebtPaidAt, rc.DebtPaidBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateToken
		}
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

func (r *receiptRepository) CreateReceiptItems(ctx context.Context, receiptID uuid.UUID, items []domain.ReceiptItem) error {
	query := `INSERT INTO receipt_items (` + receiptItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare receipt item insert: %w", err)
		}
		defer stmt.Close()

		for i := range items {
			item := &items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.ReceiptID = receiptID
			if _, err := stmt.ExecContext(ctx,
				item.ID, item.ReceiptID, item.MedicineID, item.MedicineName, item.Quantity,
				item.BuyingPrice, item.SellingPrice, item.Profit, item.Total,
			); err != nil {
				return fmt.Errorf("failed to insert receipt item %s: %w", item.MedicineID, err)
			}
		}
		return nil
	})
}

func (r *receiptRepository) DeleteReceipt(ctx context.Context, pharmacyID, id uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM receipt_items WHERE receipt_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete receipt items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM receipts WHERE pharmacy_id = $1 AND id = $2`, pharmacyID, id); err != nil {
			return fmt.Errorf("failed to delete receipt: %w", err)
		}
		return nil
	})
}

func (r *receiptRepository) GetReceipt(ctx context.Context, pharmacyID, id uuid.UUID) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1`
	args := []interface{}{id}
	if pharmacyID != uuid.Nil {
		query += ` AND pharmacy_id = $2`
		args = append(args, pharmacyID)
	}

	var rc domain.Receipt
	if err := r.db.GetContext(ctx, &rc, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("receipt", id)
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	if err := r.attachItems(ctx, []*domain.Receipt{&rc}); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *receiptRepository) FindReceiptByToken(ctx context.Context, pharmacyID uuid.UUID, token string) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE pharmacy_id = $1 AND request_token = $2`

	var rc domain.Receipt
	if err := r.db.GetContext(ctx, &rc, query, pharmacyID, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "receipt with token", ID: token}
		}
		return nil, fmt.Errorf("failed to find receipt by token: %w", err)
	}
	if err := r.attachItems(ctx, []*domain.Receipt{&rc}); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *receiptRepository) ListReceipts(ctx context.Context, filter domain.ReceiptFilter) ([]*domain.Receipt, int, error) {
	filter.Normalize()
	where, args := buildReceiptFilterClause(filter, "")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM receipts`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count receipts: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM receipts%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		receiptColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	receipts := make([]*domain.Receipt, 0)
	if err := r.db.SelectContext(ctx, &receipts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list receipts: %w", err)
	}
	if err := r.attachItems(ctx, receipts); err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

func (r *receiptRepository) MarkDebtPaid(ctx context.Context, pharmacyID, id, staffID uuid.UUID, at time.Time) (*domain.Receipt, error) {
	query := `
		UPDATE receipts
		SET debt_paid_at = $3, debt_paid_by = $4
		WHERE pharmacy_id = $1 AND id = $2 AND payment_method = 'debt' AND debt_paid_at IS NULL
		RETURNING ` + receiptColumns

	var rc domain.Receipt
	err := r.db.QueryRowxContext(ctx, query, pharmacyID, id, at, staffID).StructScan(&rc)
	if err == nil {
		if err := r.attachItems(ctx, []*domain.Receipt{&rc}); err != nil {
			return nil, err
		}
		return &rc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark debt paid: %w", err)
	}

	existing, err := r.GetReceipt(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	if existing.PaymentMethod != domain.PaymentDebt {
		return nil, domain.NewValidationError("payment_method", "receipt was not paid by debt")
	}
	return nil, domain.ErrDebtAlreadySettled
}

func (r *receiptRepository) ListSoldItems(ctx context.Context, pharmacyID uuid.UUID, from, to time.Time) ([]domain.SoldItem, error) {
	query := `
		SELECT r.pharmacy_id, p.name AS pharmacy_name, r.created_at AS sold_at,
			ri.quantity, ri.buying_price, ri.selling_price, ri.profit, ri.total
		FROM receipt_items ri
		JOIN receipts r ON r.id = ri.receipt_id
		JOIN pharmacies p ON p.id = r.pharmacy_id
		WHERE r.created_at >= $1 AND r.created_at < $2
	`
	args := []interface{}{from, to}
	if pharmacyID != uuid.Nil {
		query += ` AND r.pharmacy_id = $3`
		args = append(args, pharmacyID)
	}
	query += ` ORDER BY r.created_at ASC`

	items := make([]domain.SoldItem, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list sold items: %w", err)
	}
	return items, nil
}

func (r *receiptRepository) attachItems(ctx context.Context, receipts []*domain.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(receipts))
	byID := make(map[uuid.UUID]*domain.Receipt, len(receipts))
	for i, rc := range receipts {
		ids[i] = rc.ID
		rc.Items = make([]domain.ReceiptItem, 0)
		byID[rc.ID] = rc
	}

	query := `SELECT ` + receiptItemColumns + ` FROM receipt_items
		WHERE receipt_id = ANY($1::uuid[]) ORDER BY medicine_id ASC`

	var items []domain.ReceiptItem
	if err := r.db.SelectContext(ctx, &items, query, uuidArray(ids)); err != nil {
		return fmt.Errorf("failed to load receipt items: %w", err)
	}
	for _, item := range items {
		if rc, ok := byID[item.ReceiptID]; ok {
			rc.Items = append(rc.Items, item)
		}
	}
	return nil
}
