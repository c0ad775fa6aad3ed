package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

// clauseBuilder accumulates AND-ed predicates with positional arguments.
type clauseBuilder struct {
	alias   string
	clauses []string
	args    []interface{}
}

func newClauseBuilder(alias string, args ...interface{}) *clauseBuilder {
	return &clauseBuilder{alias: alias, args: args}
}

// add appends a predicate. Each %s in format is the table alias and each
// %d is replaced, in order, by the placeholder index of the next value.
func (b *clauseBuilder) add(format string, values ...interface{}) {
	expr := strings.ReplaceAll(format, "%s", b.alias)
	for _, v := range values {
		b.args = append(b.args, v)
		expr = strings.Replace(expr, "%d", fmt.Sprintf("$%d", len(b.args)), 1)
	}
	b.clauses = append(b.clauses, expr)
}

func (b *clauseBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func buildReceiptFilterClause(filter domain.ReceiptFilter, alias string) (string, []interface{}) {
	b := newClauseBuilder(alias)

	if filter.PharmacyID != uuid.Nil {
		b.add("%spharmacy_id = %d", filter.PharmacyID)
	}
	if filter.PaymentMethod != nil {
		b.add("%spayment_method = %d", string(*filter.PaymentMethod))
	}
	if filter.StaffID != nil {
		b.add("%sstaff_id = %d", *filter.StaffID)
	}
	if filter.From != nil {
		b.add("%screated_at >= %d", *filter.From)
	}
	if filter.To != nil {
		b.add("%screated_at < %d", *filter.To)
	}
	if filter.UnpaidDebtOnly {
		b.add("%spayment_method = 'debt' AND %sdebt_paid_at IS NULL")
	}

	return b.where(), b.args
}

func buildMedicineFilterClause(filter domain.MedicineFilter, alias string) (string, []interface{}) {
	b := newClauseBuilder(alias)

	if filter.PharmacyID != uuid.Nil {
		b.add("%spharmacy_id = %d", filter.PharmacyID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		b.add("(%sname ILIKE %d OR %scategory ILIKE %d)", pattern, pattern)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		b.add("%scategory = %d", category)
	}
	if filter.LowStockOnly {
		b.add("%sstock_quantity <= %slow_stock_threshold")
	}

	return b.where(), b.args
}

func buildNotificationFilterClause(filter domain.NotificationFilter, alias string) (string, []interface{}) {
	b := newClauseBuilder(alias)

	if filter.PharmacyID != uuid.Nil {
		b.add("%spharmacy_id = %d", filter.PharmacyID)
	}
	if filter.Type != nil {
		b.add("%stype = %d", string(*filter.Type))
	}
	if filter.Confirmed != nil {
		b.add("%sis_confirmed = %d", *filter.Confirmed)
	}

	return b.where(), b.args
}
