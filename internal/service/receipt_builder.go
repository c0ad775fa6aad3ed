package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReceiptBuilder struct {
	repo  repository.ReceiptRepository
	retry retryPolicy
	now   func() time.Time
}

func NewReceiptBuilder(repo repository.ReceiptRepository, retries int, backoff time.Duration) *ReceiptBuilder {
	if retries < 0 {
		retries = 0
	}
	return &ReceiptBuilder{
		repo:  repo,
		retry: retryPolicy{retries: retries, backoff: backoff},
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Build assembles an unsaved receipt from merged lines and a price
// snapshot. It performs no I/O.
func (b *ReceiptBuilder) Build(tenant domain.TenantContext, req domain.SaleRequest, lines []domain.SaleLine, prices map[uuid.UUID]PriceSnapshot, fingerprint string) (*domain.Receipt, error) {
	if len(lines) == 0 {
		return nil, domain.NewValidationError("items", "at least one item is required")
	}
	if !req.PaymentMethod.Valid() {
		return nil, domain.NewValidationError("payment_method", "unsupported payment method")
	}

	receipt := &domain.Receipt{
		ID:            uuid.New(),
		PharmacyID:    tenant.PharmacyID,
		StaffID:       tenant.StaffID,
		CustomerName:  trimmedOrNil(req.CustomerName),
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   decimal.Zero,
		CreatedAt:     b.now(),
		Items:         make([]domain.ReceiptItem, 0, len(lines)),
	}
	if req.Token != "" {
		token := req.Token
		receipt.RequestToken = &token
		receipt.RequestHash = &fingerprint
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", "must be greater than zero")
		}
		price, ok := prices[line.MedicineID]
		if !ok {
			return nil, domain.NewNotFound("medicine", line.MedicineID)
		}

		total, profit := domain.LineAmounts(price.BuyingPrice, price.SellingPrice, line.Quantity)
		receipt.Items = append(receipt.Items, domain.ReceiptItem{
			ID:           uuid.New(),
			ReceiptID:    receipt.ID,
			MedicineID:   line.MedicineID,
			MedicineName: price.Name,
			Quantity:     line.Quantity,
			BuyingPrice:  price.BuyingPrice,
			SellingPrice: price.SellingPrice,
			Profit:       profit,
			Total:        total,
		})
		receipt.TotalAmount = receipt.TotalAmount.Add(total)
	}

	return receipt, nil
}

// Persist writes the receipt and then its items, retrying transient
// failures. On any failure the receipt row is deleted again, since a
// header insert whose reply was lost may still have committed. When the
// delete fails too a *domain.ReconciliationRequiredError carries the
// orphaned receipt id.
func (b *ReceiptBuilder) Persist(ctx context.Context, receipt *domain.Receipt) error {
	attempt := 0
	err := b.retry.do(ctx, "create receipt", func() error {
		attempt++
		err := b.repo.CreateReceipt(ctx, receipt)
		if attempt > 1 && errors.Is(err, domain.ErrDuplicateToken) && b.landed(ctx, receipt) {
			// An earlier attempt committed but its reply was lost.
			return nil
		}
		return err
	})
	if err != nil {
		return b.discard(ctx, receipt, err)
	}

	items := make([]domain.ReceiptItem, len(receipt.Items))
	copy(items, receipt.Items)
	err = b.retry.do(ctx, "create receipt items", func() error {
		return b.repo.CreateReceiptItems(ctx, receipt.ID, items)
	})
	if err == nil {
		return nil
	}
	return b.discard(ctx, receipt, err)
}

// discard removes the receipt row, if any, and returns cause. Deleting an
// absent row is a no-op in every store.
func (b *ReceiptBuilder) discard(ctx context.Context, receipt *domain.Receipt, cause error) error {
	delErr := b.retry.do(ctx, "delete receipt", func() error {
		return b.repo.DeleteReceipt(ctx, receipt.PharmacyID, receipt.ID)
	})
	if delErr != nil {
		id := receipt.ID
		return &domain.ReconciliationRequiredError{ReceiptID: &id, Cause: errors.Join(cause, delErr)}
	}
	return cause
}

func (b *ReceiptBuilder) landed(ctx context.Context, receipt *domain.Receipt) bool {
	existing, err := b.repo.GetReceipt(ctx, receipt.PharmacyID, receipt.ID)
	return err == nil && existing.ID == receipt.ID
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
