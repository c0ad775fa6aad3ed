package repository

import (
	"context"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

type AdminDebtRepository interface {
	CreateAdminDebt(ctx context.Context, d *domain.AdminDebt) error
	GetAdminDebt(ctx context.Context, id uuid.UUID) (*domain.AdminDebt, error)
	ListAdminDebts(ctx context.Context, filter domain.AdminDebtFilter) ([]*domain.AdminDebt, error)
	UpdateAdminDebt(ctx context.Context, d *domain.AdminDebt) error
	DeleteAdminDebt(ctx context.Context, id uuid.UUID) error
}
