package domain

import "strings"

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentMobileWallet PaymentMethod = "mobile-wallet"
	PaymentDebt         PaymentMethod = "debt"
	PaymentCard         PaymentMethod = "card"
)

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentCash:         "Cash",
	PaymentMobileWallet: "Mobile Wallet",
	PaymentDebt:         "Debt",
	PaymentCard:         "Card",
}

// PaymentMethodLabel returns a human-readable label for a payment method.
func PaymentMethodLabel(m PaymentMethod) string {
	if label, ok := paymentMethodLabels[m]; ok {
		return label
	}

	return "Unknown"
}

// ParsePaymentMethod accepts the stored value or its label, case-insensitive.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")

	m := PaymentMethod(normalized)
	_, ok := paymentMethodLabels[m]

	return m, ok
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentMethodLabels[m]
	return ok
}

type NotificationType string

const (
	NotificationLowStock NotificationType = "low_stock"
	NotificationExpiring NotificationType = "expiring"
)

func (t NotificationType) Valid() bool {
	return t == NotificationLowStock || t == NotificationExpiring
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleStaff:
		return RoleStaff, true
	}
	return "", false
}

// SaleState tracks a sale through the coordinator.
type SaleState string

const (
	SaleCollecting SaleState = "collecting"
	SaleValidating SaleState = "validating"
	SaleReserving  SaleState = "reserving"
	SalePersisting SaleState = "persisting"
	SaleCommitted  SaleState = "committed"
	SaleAborted    SaleState = "aborted"
)
