package postgres

import (
	"testing"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

func TestBuildReceiptFilterClause(t *testing.T) {
	pharmacy := uuid.New()
	staff := uuid.New()
	method := domain.PaymentDebt
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildReceiptFilterClause(domain.ReceiptFilter{
		PharmacyID:     pharmacy,
		PaymentMethod:  &method,
		StaffID:        &staff,
		From:           &from,
		UnpaidDebtOnly: true,
	}, "r.")

	want := " WHERE r.pharmacy_id = $1 AND r.payment_method = $2 AND r.staff_id = $3" +
		" AND r.created_at >= $4 AND r.payment_method = 'debt' AND r.debt_paid_at IS NULL"
	if where != want {
		t.Fatalf("unexpected clause:\n got %q\nwant %q", where, want)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
	if args[1] != "debt" {
		t.Fatalf("expected payment method arg, got %v", args[1])
	}
}

func TestBuildReceiptFilterClauseEmpty(t *testing.T) {
	where, args := buildReceiptFilterClause(domain.ReceiptFilter{}, "")
	if where != "" || len(args) != 0 {
		t.Fatalf("expected empty clause, got %q %v", where, args)
	}
}

func TestBuildMedicineFilterClause(t *testing.T) {
	pharmacy := uuid.New()
	where, args := buildMedicineFilterClause(domain.MedicineFilter{
		PharmacyID:   pharmacy,
		Search:       " para ",
		LowStockOnly: true,
	}, "")

	want := " WHERE pharmacy_id = $1 AND (name ILIKE $2 OR category ILIKE $3) AND stock_quantity <= low_stock_threshold"
	if where != want {
		t.Fatalf("unexpected clause:\n got %q\nwant %q", where, want)
	}
	if args[1] != "%para%" {
		t.Fatalf("unexpected search arg %v", args[1])
	}
}

func TestBuildNotificationFilterClause(t *testing.T) {
	confirmed := false
	kind := domain.NotificationExpiring
	where, args := buildNotificationFilterClause(domain.NotificationFilter{Type: &kind, Confirmed: &confirmed}, "n.")

	if where != " WHERE n.type = $1 AND n.is_confirmed = $2" {
		t.Fatalf("unexpected clause %q", where)
	}
	if args[0] != "expiring" || args[1] != false {
		t.Fatalf("unexpected args %v", args)
	}
}
