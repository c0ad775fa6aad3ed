package service

import (
	"context"
	"strings"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/cache"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DebtService tracks receipts paid by debt and the owner's own AdminDebt
// ledger.
type DebtService struct {
	receipts   repository.ReceiptRepository
	adminDebts repository.AdminDebtRepository
	analytics  cache.AnalyticsCache
	now        func() time.Time
}

func NewDebtService(receipts repository.ReceiptRepository, adminDebts repository.AdminDebtRepository, analytics cache.AnalyticsCache) *DebtService {
	if analytics == nil {
		analytics = cache.NewNoopAnalyticsCache()
	}
	return &DebtService{
		receipts:   receipts,
		adminDebts: adminDebts,
		analytics:  analytics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ListUnpaidDebts returns every unsettled debt receipt. uuid.Nil lists
// all pharmacies.
func (s *DebtService) ListUnpaidDebts(ctx context.Context, pharmacyID uuid.UUID) ([]*domain.Receipt, error) {
	return listAllReceipts(ctx, s.receipts, domain.ReceiptFilter{PharmacyID: pharmacyID, UnpaidDebtOnly: true})
}

func (s *DebtService) MarkDebtPaid(ctx context.Context, tenant domain.TenantContext, receiptID uuid.UUID) (*domain.Receipt, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	receipt, err := s.receipts.MarkDebtPaid(ctx, tenant.PharmacyID, receiptID, tenant.StaffID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.analytics.InvalidatePharmacy(ctx, tenant.PharmacyID); err != nil {
		log.Warn().Err(err).Msg("debts: analytics cache invalidation failed")
	}
	return receipt, nil
}

type AdminDebtInput struct {
	PersonName          string
	PhoneNumber         *string
	Amount              decimal.Decimal
	ExpectedPaymentDate *time.Time
	Notes               *string
}

func (in AdminDebtInput) validate() error {
	if strings.TrimSpace(in.PersonName) == "" {
		return domain.NewValidationError("person_name", "required")
	}
	if !in.Amount.IsPositive() {
		return domain.NewValidationError("amount", "must be greater than zero")
	}
	return nil
}

func (s *DebtService) ListAdminDebts(ctx context.Context, filter domain.AdminDebtFilter) ([]*domain.AdminDebt, error) {
	return s.adminDebts.ListAdminDebts(ctx, filter)
}

func (s *DebtService) CreateAdminDebt(ctx context.Context, in AdminDebtInput) (*domain.AdminDebt, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	debt := &domain.AdminDebt{
		PersonName:          strings.TrimSpace(in.PersonName),
		PhoneNumber:         trimmedOrNil(in.PhoneNumber),
		Amount:              domain.RoundMoney(in.Amount),
		ExpectedPaymentDate: in.ExpectedPaymentDate,
		Notes:               trimmedOrNil(in.Notes),
		CreatedAt:           s.now(),
	}
	if err := s.adminDebts.CreateAdminDebt(ctx, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

func (s *DebtService) UpdateAdminDebt(ctx context.Context, id uuid.UUID, in AdminDebtInput) (*domain.AdminDebt, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	debt, err := s.adminDebts.GetAdminDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	debt.PersonName = strings.TrimSpace(in.PersonName)
	debt.PhoneNumber = trimmedOrNil(in.PhoneNumber)
	debt.Amount = domain.RoundMoney(in.Amount)
	debt.ExpectedPaymentDate = in.ExpectedPaymentDate
	debt.Notes = trimmedOrNil(in.Notes)

	if err := s.adminDebts.UpdateAdminDebt(ctx, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

// ToggleAdminDebtPaid flips the paid flag, stamping or clearing paid_at.
func (s *DebtService) ToggleAdminDebtPaid(ctx context.Context, id uuid.UUID) (*domain.AdminDebt, error) {
	debt, err := s.adminDebts.GetAdminDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	debt.IsPaid = !debt.IsPaid
	if debt.IsPaid {
		now := s.now()
		debt.PaidAt = &now
	} else {
		debt.PaidAt = nil
	}
	if err := s.adminDebts.UpdateAdminDebt(ctx, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

func (s *DebtService) DeleteAdminDebt(ctx context.Context, id uuid.UUID) error {
	return s.adminDebts.DeleteAdminDebt(ctx, id)
}
