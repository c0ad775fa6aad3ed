package service

import (
	"context"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
)

type ReceiptService struct {
	repo repository.ReceiptRepository
}

func NewReceiptService(repo repository.ReceiptRepository) *ReceiptService {
	return &ReceiptService{repo: repo}
}

// ListReceipts returns one page of receipts, newest first.
func (s *ReceiptService) ListReceipts(ctx context.Context, filter domain.ReceiptFilter) (*domain.ReceiptPage, error) {
	filter.Normalize()
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, domain.NewValidationError("from", "must be before to")
	}

	receipts, total, err := s.repo.ListReceipts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &domain.ReceiptPage{
		Items:    receipts,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (s *ReceiptService) GetReceipt(ctx context.Context, pharmacyID, id uuid.UUID) (*domain.Receipt, error) {
	return s.repo.GetReceipt(ctx, pharmacyID, id)
}
