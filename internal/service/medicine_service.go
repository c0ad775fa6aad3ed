package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/cache"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MedicineInput is the editable catalog data of a medicine. StockQuantity
// is only read on create; later changes go through Restock or a sale.
type MedicineInput struct {
	Name              string
	Category          *string
	Description       *string
	BuyingPrice       decimal.Decimal
	SellingPrice      decimal.Decimal
	StockQuantity     int
	LowStockThreshold int
	ExpiryDate        *time.Time
}

func (in MedicineInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return domain.NewValidationError("name", "required")
	case in.BuyingPrice.IsNegative():
		return domain.NewValidationError("buying_price", "must not be negative")
	case in.SellingPrice.IsNegative():
		return domain.NewValidationError("selling_price", "must not be negative")
	case in.StockQuantity < 0:
		return domain.NewValidationError("stock_quantity", "must not be negative")
	case in.LowStockThreshold < 0:
		return domain.NewValidationError("low_stock_threshold", "must not be negative")
	}
	return nil
}

type MedicineService struct {
	repo      repository.MedicineRepository
	ledger    *InventoryLedger
	analytics cache.AnalyticsCache
}

func NewMedicineService(repo repository.MedicineRepository, analytics cache.AnalyticsCache) *MedicineService {
	if analytics == nil {
		analytics = cache.NewNoopAnalyticsCache()
	}
	return &MedicineService{repo: repo, ledger: NewInventoryLedger(repo), analytics: analytics}
}

func (s *MedicineService) ListMedicines(ctx context.Context, filter domain.MedicineFilter) ([]*domain.Medicine, error) {
	return s.repo.ListMedicines(ctx, filter)
}

func (s *MedicineService) GetMedicine(ctx context.Context, pharmacyID, id uuid.UUID) (*domain.Medicine, error) {
	return s.repo.GetMedicine(ctx, pharmacyID, id)
}

func (s *MedicineService) CreateMedicine(ctx context.Context, tenant domain.TenantContext, in MedicineInput) (*domain.Medicine, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	m := &domain.Medicine{PharmacyID: tenant.PharmacyID, StockQuantity: in.StockQuantity}
	applyMedicineInput(m, in)
	if tenant.StaffID != uuid.Nil {
		createdBy := tenant.StaffID
		m.CreatedBy = &createdBy
	}
	if err := s.repo.CreateMedicine(ctx, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenant.PharmacyID)
	return m, nil
}

// UpdateMedicine edits catalog data. Receipt items keep the prices they
// were sold at.
func (s *MedicineService) UpdateMedicine(ctx context.Context, tenant domain.TenantContext, id uuid.UUID, in MedicineInput) (*domain.Medicine, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m, err := s.repo.GetMedicine(ctx, tenant.PharmacyID, id)
	if err != nil {
		return nil, err
	}
	applyMedicineInput(m, in)
	if err := s.repo.UpdateMedicine(ctx, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenant.PharmacyID)
	return m, nil
}

func (s *MedicineService) DeleteMedicine(ctx context.Context, tenant domain.TenantContext, id uuid.UUID) error {
	if err := s.repo.DeleteMedicine(ctx, tenant.PharmacyID, id); err != nil {
		return err
	}
	s.invalidate(ctx, tenant.PharmacyID)
	return nil
}

func (s *MedicineService) Restock(ctx context.Context, tenant domain.TenantContext, id uuid.UUID, qty int) (*domain.Medicine, error) {
	if _, err := s.ledger.Restock(ctx, tenant.PharmacyID, id, qty); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenant.PharmacyID)
	return s.repo.GetMedicine(ctx, tenant.PharmacyID, id)
}

// ImportResult reports a bulk catalog load.
type ImportResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportMedicines creates every valid row and reports the rest by row
// number (1-based, header excluded).
func (s *MedicineService) ImportMedicines(ctx context.Context, tenant domain.TenantContext, rows []MedicineInput) (*ImportResult, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	res := &ImportResult{}
	for i, in := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := s.CreateMedicine(ctx, tenant, in); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		res.Created++
	}
	return res, nil
}

func (s *MedicineService) invalidate(ctx context.Context, pharmacyID uuid.UUID) {
	if err := s.analytics.InvalidatePharmacy(ctx, pharmacyID); err != nil {
		log.Warn().Err(err).Msg("medicines: analytics cache invalidation failed")
	}
}

func applyMedicineInput(m *domain.Medicine, in MedicineInput) {
	m.Name = strings.TrimSpace(in.Name)
	m.Category = trimmedOrNil(in.Category)
	m.Description = trimmedOrNil(in.Description)
	m.BuyingPrice = domain.RoundMoney(in.BuyingPrice)
	m.SellingPrice = domain.RoundMoney(in.SellingPrice)
	m.LowStockThreshold = in.LowStockThreshold
	m.ExpiryDate = in.ExpiryDate
}
