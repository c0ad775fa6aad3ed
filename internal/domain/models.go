package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pharmacy is a tenant.
type Pharmacy struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Email     *string   `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// StaffMember links a user to a pharmacy with a role.
type StaffMember struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PharmacyID uuid.UUID `json:"pharmacy_id" db:"pharmacy_id"`
	FullName   string    `json:"full_name" db:"full_name"`
	Email      string    `json:"email" db:"email"`
	Role       Role      `json:"role" db:"role"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Medicine is a stocked item. StockQuantity is owned by the inventory
// ledger; everything else is catalog data.
type Medicine struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	PharmacyID        uuid.UUID       `json:"pharmacy_id" db:"pharmacy_id"`
	Name              string          `json:"name" db:"name"`
	Category          *string         `json:"category,omitempty" db:"category"`
	Description       *string         `json:"description,omitempty" db:"description"`
	BuyingPrice       decimal.Decimal `json:"buying_price" db:"buying_price"`
	SellingPrice      decimal.Decimal `json:"selling_price" db:"selling_price"`
	StockQuantity     int             `json:"stock_quantity" db:"stock_quantity"`
	LowStockThreshold int             `json:"low_stock_threshold" db:"low_stock_threshold"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty" db:"expiry_date"`
	CreatedBy         *uuid.UUID      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Receipt is the immutable record of a committed sale. Only the debt
// settlement fields change after creation.
type Receipt struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	PharmacyID    uuid.UUID       `json:"pharmacy_id" db:"pharmacy_id"`
	StaffID       uuid.UUID       `json:"staff_id" db:"staff_id"`
	CustomerName  *string         `json:"customer_name,omitempty" db:"customer_name"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	RequestToken  *string         `json:"request_token,omitempty" db:"request_token"`
	RequestHash   *string         `json:"-" db:"request_hash"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	DebtPaidAt    *time.Time      `json:"debt_paid_at,omitempty" db:"debt_paid_at"`
	DebtPaidBy    *uuid.UUID      `json:"debt_paid_by,omitempty" db:"debt_paid_by"`
	Items         []ReceiptItem   `json:"items" db:"-"`
}

// IsUnpaidDebt reports whether the receipt is an outstanding debt.
func (r *Receipt) IsUnpaidDebt() bool {
	return r.PaymentMethod == PaymentDebt && r.DebtPaidAt == nil
}

// ReceiptItem carries the prices captured at sale time.
type ReceiptItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ReceiptID    uuid.UUID       `json:"receipt_id" db:"receipt_id"`
	MedicineID   uuid.UUID       `json:"medicine_id" db:"medicine_id"`
	MedicineName string          `json:"medicine_name" db:"medicine_name"`
	Quantity     int             `json:"quantity" db:"quantity"`
	BuyingPrice  decimal.Decimal `json:"buying_price" db:"buying_price"`
	SellingPrice decimal.Decimal `json:"selling_price" db:"selling_price"`
	Profit       decimal.Decimal `json:"profit" db:"profit"`
	Total        decimal.Decimal `json:"total" db:"total"`
}

// AdminDebt is money owed to the business owner, unrelated to receipts.
type AdminDebt struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	PersonName          string          `json:"person_name" db:"person_name"`
	PhoneNumber         *string         `json:"phone_number,omitempty" db:"phone_number"`
	Amount              decimal.Decimal `json:"amount" db:"amount"`
	ExpectedPaymentDate *time.Time      `json:"expected_payment_date,omitempty" db:"expected_payment_date"`
	Notes               *string         `json:"notes,omitempty" db:"notes"`
	IsPaid              bool            `json:"is_paid" db:"is_paid"`
	PaidAt              *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
}

// Notification is an alert raised by the scanner. One row exists per
// (medicine, type).
type Notification struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	PharmacyID    uuid.UUID        `json:"pharmacy_id" db:"pharmacy_id"`
	MedicineID    uuid.UUID        `json:"medicine_id" db:"medicine_id"`
	Type          NotificationType `json:"type" db:"type"`
	Message       string           `json:"message" db:"message"`
	DaysRemaining *int             `json:"days_remaining,omitempty" db:"days_remaining"`
	IsConfirmed   bool             `json:"is_confirmed" db:"is_confirmed"`
	ConfirmedBy   *uuid.UUID       `json:"confirmed_by,omitempty" db:"confirmed_by"`
	ConfirmedAt   *time.Time       `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// SoldItem is a flattened receipt line used for profit analytics.
type SoldItem struct {
	PharmacyID   uuid.UUID       `db:"pharmacy_id"`
	PharmacyName string          `db:"pharmacy_name"`
	SoldAt       time.Time       `db:"sold_at"`
	Quantity     int             `db:"quantity"`
	BuyingPrice  decimal.Decimal `db:"buying_price"`
	SellingPrice decimal.Decimal `db:"selling_price"`
	Profit       decimal.Decimal `db:"profit"`
	Total        decimal.Decimal `db:"total"`
}
