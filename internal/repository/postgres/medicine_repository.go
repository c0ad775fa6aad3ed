package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const medicineColumns = `id, pharmacy_id, name, category, description, buying_price, selling_price,
	stock_quantity, low_stock_threshold, expiry_date, created_by, created_at, updated_at`

type medicineRepository struct {
	db *DB
}

func NewMedicineRepository(db *DB) *medicineRepository {
	return &medicineRepository{db: db}
}

func (r *medicineRepository) GetMedicine(ctx context.Context, pharmacyID, id uuid.UUID) (*domain.Medicine, error) {
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE pharmacy_id = $1 AND id = $2`

	var m domain.Medicine
	if err := r.db.GetContext(ctx, &m, query, pharmacyID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("medicine", id)
		}
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	return &m, nil
}

func (r *medicineRepository) GetMedicinesByIDs(ctx context.Context, pharmacyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Medicine, error) {
	result := make(map[uuid.UUID]*domain.Medicine, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE pharmacy_id = $1 AND id = ANY($2::uuid[])`

	var rows []*domain.Medicine
	if err := r.db.SelectContext(ctx, &rows, query, pharmacyID, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to get medicines: %w", err)
	}
	for _, m := range rows {
		result[m.ID] = m
	}
	return result, nil
}

func (r *medicineRepository) ListMedicines(ctx context.Context, filter domain.MedicineFilter) ([]*domain.Medicine, error) {
	where, args := buildMedicineFilterClause(filter, "")
	query := `SELECT ` + medicineColumns + ` FROM medicines` + where + ` ORDER BY name ASC, id ASC`

	medicines := make([]*domain.Medicine, 0)
	if err := r.db.SelectContext(ctx, &medicines, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	return medicines, nil
}

func (r *medicineRepository) CreateMedicine(ctx context.Context, m *domain.Medicine) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	query := `
		INSERT INTO medicines (` + medicineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.PharmacyID, m.Name, m.Category, m.Description, m.BuyingPrice, m.SellingPrice,
		m.StockQuantity, m.LowStockThreshold, m.ExpiryDate, m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewNotFound("pharmacy", m.PharmacyID)
		}
		if isCheckViolation(err) {
			return domain.NewValidationError("medicine", "prices and quantities must not be negative")
		}
		return fmt.Errorf("failed to create medicine: %w", err)
	}
	return nil
}

// UpdateMedicine writes catalog fields only. Stock moves through
// DecrementStock and IncrementStock.
func (r *medicineRepository) UpdateMedicine(ctx context.Context, m *domain.Medicine) error {
	m.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE medicines
		SET name = $3, category = $4, description = $5, buying_price = $6, selling_price = $7,
			low_stock_threshold = $8, expiry_date = $9, updated_at = $10
		WHERE pharmacy_id = $1 AND id = $2
		RETURNING stock_quantity, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		m.PharmacyID, m.ID, m.Name, m.Category, m.Description, m.BuyingPrice, m.SellingPrice,
		m.LowStockThreshold, m.ExpiryDate, m.UpdatedAt,
	).Scan(&m.StockQuantity, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFound("medicine", m.ID)
		}
		if isCheckViolation(err) {
			return domain.NewValidationError("medicine", "prices and quantities must not be negative")
		}
		return fmt.Errorf("failed to update medicine: %w", err)
	}
	return nil
}

func (r *medicineRepository) DeleteMedicine(ctx context.Context, pharmacyID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE pharmacy_id = $1 AND id = $2`, pharmacyID, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrMedicineInUse
		}
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFound("medicine", id)
	}
	return nil
}

func (r *medicineRepository) DecrementStock(ctx context.Context, pharmacyID, id uuid.UUID, qty int) (int, error) {
	release, err := r.db.guard(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	query := `
		UPDATE medicines
		SET stock_quantity = stock_quantity - $3, updated_at = NOW()
		WHERE pharmacy_id = $1 AND id = $2 AND stock_quantity >= $3
		RETURNING stock_quantity
	`
	var remaining int
	err = r.db.QueryRowxContext(ctx, query, pharmacyID, id, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	// The guard failed: tell a missing row apart from a short one.
	var current struct {
		Name  string `db:"name"`
		Stock int    `db:"stock_quantity"`
	}
	err = r.db.GetContext(ctx, &current,
		`SELECT name, stock_quantity FROM medicines WHERE pharmacy_id = $1 AND id = $2`, pharmacyID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.NewNotFound("medicine", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	return current.Stock, &domain.InsufficientStockError{
		MedicineID:   id,
		MedicineName: current.Name,
		Available:    current.Stock,
		Requested:    qty,
	}
}

func (r *medicineRepository) IncrementStock(ctx context.Context, pharmacyID, id uuid.UUID, qty int) (int, error) {
	release, err := r.db.guard(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	query := `
		UPDATE medicines
		SET stock_quantity = stock_quantity + $3, updated_at = NOW()
		WHERE pharmacy_id = $1 AND id = $2
		RETURNING stock_quantity
	`
	var remaining int
	if err := r.db.QueryRowxContext(ctx, query, pharmacyID, id, qty).Scan(&remaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.NewNotFound("medicine", id)
		}
		return 0, fmt.Errorf("failed to increment stock: %w", err)
	}
	return remaining, nil
}

func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
