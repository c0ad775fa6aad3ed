package service

import (
	"context"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSnapshot is what a receipt item copies from the catalog. Stock is
// only used for the optimistic pre-check.
type PriceSnapshot struct {
	MedicineID   uuid.UUID
	Name         string
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
	Stock        int
}

type PricingSnapshot struct {
	repo repository.MedicineRepository
}

func NewPricingSnapshot(repo repository.MedicineRepository) *PricingSnapshot {
	return &PricingSnapshot{repo: repo}
}

// Capture reads every listed medicine in one call. A missing id is
// reported as *domain.NotFoundError.
func (p *PricingSnapshot) Capture(ctx context.Context, pharmacyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]PriceSnapshot, error) {
	medicines, err := p.repo.GetMedicinesByIDs(ctx, pharmacyID, ids)
	if err != nil {
		return nil, err
	}

	snapshots := make(map[uuid.UUID]PriceSnapshot, len(ids))
	for _, id := range ids {
		m, ok := medicines[id]
		if !ok {
			return nil, domain.NewNotFound("medicine", id)
		}
		snapshots[id] = PriceSnapshot{
			MedicineID:   m.ID,
			Name:         m.Name,
			BuyingPrice:  m.BuyingPrice,
			SellingPrice: m.SellingPrice,
			Stock:        m.StockQuantity,
		}
	}
	return snapshots, nil
}
