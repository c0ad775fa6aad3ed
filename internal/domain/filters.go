package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ReceiptFilter narrows receipt listings. PharmacyID uuid.Nil means every
// pharmacy and is only reachable from admin routes.
type ReceiptFilter struct {
	PharmacyID     uuid.UUID
	PaymentMethod  *PaymentMethod
	StaffID        *uuid.UUID
	From           *time.Time
	To             *time.Time
	UnpaidDebtOnly bool
	Page           int
	PageSize       int
}

func (f *ReceiptFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

func (f ReceiptFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

type MedicineFilter struct {
	PharmacyID   uuid.UUID
	Search       string
	Category     string
	LowStockOnly bool
}

type NotificationFilter struct {
	PharmacyID uuid.UUID
	Type       *NotificationType
	Confirmed  *bool
}

type AdminDebtFilter struct {
	Paid *bool
}

// AnalyticsFilter selects the period for dashboards. Month is 1-12.
type AnalyticsFilter struct {
	PharmacyID uuid.UUID
	Year       int
	Month      int
}

type ReceiptPage struct {
	Items    []*Receipt `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
