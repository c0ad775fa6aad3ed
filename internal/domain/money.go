package domain

import "github.com/shopspring/decimal"

const moneyPlaces = 2

// RoundMoney rounds to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// LineAmounts returns the total and profit for qty units.
func LineAmounts(buying, selling decimal.Decimal, qty int) (total, profit decimal.Decimal) {
	q := decimal.NewFromInt(int64(qty))
	total = RoundMoney(selling.Mul(q))
	profit = RoundMoney(selling.Sub(buying).Mul(q))
	return total, profit
}
