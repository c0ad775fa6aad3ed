package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlySales is one bar of the yearly sales chart.
type MonthlySales struct {
	Month int             `json:"month"`
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

type Dashboard struct {
	Year              int             `json:"year"`
	PharmacyCount     int             `json:"pharmacy_count"`
	MedicineCount     int             `json:"medicine_count"`
	LowStockCount     int             `json:"low_stock_count"`
	ExpiringSoonCount int             `json:"expiring_soon_count"`
	UnpaidDebtCount   int             `json:"unpaid_debt_count"`
	UnpaidDebtTotal   decimal.Decimal `json:"unpaid_debt_total"`
	MonthlySales      []MonthlySales  `json:"monthly_sales"`
	YearTotal         decimal.Decimal `json:"year_total"`
}

type ProfitPoint struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Profit  decimal.Decimal `json:"profit"`
}

type PharmacyProfit struct {
	PharmacyID   uuid.UUID       `json:"pharmacy_id"`
	PharmacyName string          `json:"pharmacy_name"`
	Quantity     int             `json:"quantity"`
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
}

type ProfitStats struct {
	Today decimal.Decimal `json:"today"`
	Week  decimal.Decimal `json:"week"`
	Month decimal.Decimal `json:"month"`
	Year  decimal.Decimal `json:"year"`
}

type ProfitAnalytics struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Daily      []ProfitPoint    `json:"daily"`
	Monthly    []ProfitPoint    `json:"monthly"`
	ByPharmacy []PharmacyProfit `json:"by_pharmacy"`
	Stats      ProfitStats      `json:"stats"`
}
