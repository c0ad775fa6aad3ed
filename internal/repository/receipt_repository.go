package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

type ReceiptRepository interface {
	// CreateReceipt stores the header row. A second receipt with the same
	// (pharmacy, request token) fails with domain.ErrDuplicateToken.
	CreateReceipt(ctx context.Context, r *domain.Receipt) error
	CreateReceiptItems(ctx context.Context, receiptID uuid.UUID, items []domain.ReceiptItem) error
	// DeleteReceipt removes a receipt and its items. Only the sale
	// coordinator calls it, to compensate a half-written sale.
	DeleteReceipt(ctx context.Context, pharmacyID, id uuid.UUID) error

	GetReceipt(ctx context.Context, pharmacyID, id uuid.UUID) (*domain.Receipt, error)
	FindReceiptByToken(ctx context.Context, pharmacyID uuid.UUID, token string) (*domain.Receipt, error)
	ListReceipts(ctx context.Context, filter domain.ReceiptFilter) ([]*domain.Receipt, int, error)

	// MarkDebtPaid settles an unpaid debt receipt in a single conditional
	// write.
	MarkDebtPaid(ctx context.Context, pharmacyID, id, staffID uuid.UUID, at time.Time) (*domain.Receipt, error)

	ListSoldItems(ctx context.Context, pharmacyID uuid.UUID, from, to time.Time) ([]domain.SoldItem, error)
}
