package repository

import (
	"context"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

// MedicineRepository is the catalog and the inventory ledger store.
type MedicineRepository interface {
	GetMedicine(ctx context.Context, pharmacyID, id uuid.UUID) (*domain.Medicine, error)
	GetMedicinesByIDs(ctx context.Context, pharmacyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Medicine, error)
	ListMedicines(ctx context.Context, filter domain.MedicineFilter) ([]*domain.Medicine, error)
	CreateMedicine(ctx context.Context, m *domain.Medicine) error
	UpdateMedicine(ctx context.Context, m *domain.Medicine) error
	DeleteMedicine(ctx context.Context, pharmacyID, id uuid.UUID) error

	// DecrementStock removes qty units only if at least qty are on hand.
	// It returns *domain.InsufficientStockError or *domain.NotFoundError
	// when the decrement cannot apply.
	DecrementStock(ctx context.Context, pharmacyID, id uuid.UUID, qty int) (remaining int, err error)
	IncrementStock(ctx context.Context, pharmacyID, id uuid.UUID, qty int) (remaining int, err error)
}
