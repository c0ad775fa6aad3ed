package repository

import (
	"context"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

type PharmacyRepository interface {
	CreatePharmacy(ctx context.Context, p *domain.Pharmacy) error
	GetPharmacy(ctx context.Context, id uuid.UUID) (*domain.Pharmacy, error)
	ListPharmacies(ctx context.Context) ([]*domain.Pharmacy, error)
	CreateStaff(ctx context.Context, s *domain.StaffMember) error
	ListStaff(ctx context.Context, pharmacyID uuid.UUID) ([]*domain.StaffMember, error)
}

// Store groups every repository the services need.
type Store struct {
	Medicines     MedicineRepository
	Receipts      ReceiptRepository
	Notifications NotificationRepository
	AdminDebts    AdminDebtRepository
	Pharmacies    PharmacyRepository
}
