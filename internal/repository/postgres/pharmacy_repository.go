package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
)

type pharmacyRepository struct {
	db *DB
}

func NewPharmacyRepository(db *DB) *pharmacyRepository {
	return &pharmacyRepository{db: db}
}

// NewStore wires every postgres repository onto one pool.
func NewStore(db *DB) *repository.Store {
	return &repository.Store{
		Medicines:     NewMedicineRepository(db),
		Receipts:      NewReceiptRepository(db),
		Notifications: NewNotificationRepository(db),
		AdminDebts:    NewAdminDebtRepository(db),
		Pharmacies:    NewPharmacyRepository(db),
	}
}

func (r *pharmacyRepository) CreatePharmacy(ctx context.Context, p *domain.Pharmacy) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pharmacies (id, name, address, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Address, p.Phone, p.Email, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pharmacy: %w", err)
	}
	return nil
}

func (r *pharmacyRepository) GetPharmacy(ctx context.Context, id uuid.UUID) (*domain.Pharmacy, error) {
	var p domain.Pharmacy
	err := r.db.GetContext(ctx, &p, `
		SELECT id, name, address, phone, email, created_at, updated_at
		FROM pharmacies WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("pharmacy", id)
		}
		return nil, fmt.Errorf("failed to get pharmacy: %w", err)
	}
	return &p, nil
}

func (r *pharmacyRepository) ListPharmacies(ctx context.Context) ([]*domain.Pharmacy, error) {
	pharmacies := make([]*domain.Pharmacy, 0)
	err := r.db.SelectContext(ctx, &pharmacies, `
		SELECT id, name, address, phone, email, created_at, updated_at
		FROM pharmacies ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pharmacies: %w", err)
	}
	return pharmacies, nil
}

func (r *pharmacyRepository) CreateStaff(ctx context.Context, s *domain.StaffMember) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pharmacy_staff (id, pharmacy_id, full_name, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.PharmacyID, s.FullName, s.Email, string(s.Role), s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("email", "already registered in this pharmacy")
		}
		if isForeignKeyViolation(err) {
			return domain.NewNotFound("pharmacy", s.PharmacyID)
		}
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	return nil
}

func (r *pharmacyRepository) ListStaff(ctx context.Context, pharmacyID uuid.UUID) ([]*domain.StaffMember, error) {
	staff := make([]*domain.StaffMember, 0)
	err := r.db.SelectContext(ctx, &staff, `
		SELECT id, pharmacy_id, full_name, email, role, created_at
		FROM pharmacy_staff WHERE pharmacy_id = $1 ORDER BY full_name ASC`, pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}
