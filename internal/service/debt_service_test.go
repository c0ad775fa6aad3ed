package service

import (
	"context"
	"errors"
	"testing"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestMarkDebtPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med := f.addMedicine(t, "Paracetamol", 10, 6, 10)
	c := f.coordinator()

	debt, err := c.RecordSale(ctx, f.tenant, sale("", domain.PaymentDebt, line(med.ID, 2)))
	if err != nil {
		t.Fatalf("debt sale: %v", err)
	}
	cash, err := c.RecordSale(ctx, f.tenant, sale("", domain.PaymentCash, line(med.ID, 1)))
	if err != nil {
		t.Fatalf("cash sale: %v", err)
	}

	s := NewDebtService(f.store.Receipts, f.store.AdminDebts, nil)
	unpaid, err := s.ListUnpaidDebts(ctx, f.tenant.PharmacyID)
	if err != nil || len(unpaid) != 1 || unpaid[0].ID != debt.Receipt.ID {
		t.Fatalf("expected the debt receipt, got %+v (%v)", unpaid, err)
	}

	paid, err := s.MarkDebtPaid(ctx, f.tenant, debt.Receipt.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.DebtPaidAt == nil || paid.DebtPaidBy == nil || *paid.DebtPaidBy != f.tenant.StaffID {
		t.Fatalf("settlement not recorded: %+v", paid)
	}

	tests := []struct {
		name string
		id   uuid.UUID
		want error
	}{
		{"already settled", debt.Receipt.ID, domain.ErrDebtAlreadySettled},
		{"not a debt", cash.Receipt.ID, domain.ErrValidation},
		{"unknown receipt", uuid.New(), domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.MarkDebtPaid(ctx, f.tenant, tt.id); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	unpaid, err = s.ListUnpaidDebts(ctx, f.tenant.PharmacyID)
	if err != nil || len(unpaid) != 0 {
		t.Fatalf("expected no unpaid debts, got %d (%v)", len(unpaid), err)
	}
}

func TestMarkDebtPaidIsScopedToTenant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med := f.addMedicine(t, "Paracetamol", 10, 6, 10)
	debt, err := f.coordinator().RecordSale(ctx, f.tenant, sale("", domain.PaymentDebt, line(med.ID, 2)))
	if err != nil {
		t.Fatalf("debt sale: %v", err)
	}

	intruder := domain.TenantContext{PharmacyID: uuid.New(), StaffID: uuid.New(), Role: domain.RoleStaff}
	s := NewDebtService(f.store.Receipts, f.store.AdminDebts, nil)
	if _, err := s.MarkDebtPaid(ctx, intruder, debt.Receipt.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for another pharmacy, got %v", err)
	}
}

func TestAdminDebtLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := NewDebtService(f.store.Receipts, f.store.AdminDebts, nil)

	if _, err := s.CreateAdminDebt(ctx, AdminDebtInput{PersonName: " ", Amount: decimal.NewFromInt(5)}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := s.CreateAdminDebt(ctx, AdminDebtInput{PersonName: "Sam", Amount: decimal.Zero}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	d, err := s.CreateAdminDebt(ctx, AdminDebtInput{PersonName: " Sam ", Amount: decimal.RequireFromString("120.456")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.PersonName != "Sam" || !d.Amount.Equal(decimal.RequireFromString("120.46")) {
		t.Fatalf("unexpected debt %+v", d)
	}

	d, err = s.ToggleAdminDebtPaid(ctx, d.ID)
	if err != nil || !d.IsPaid || d.PaidAt == nil {
		t.Fatalf("expected paid, got %+v (%v)", d, err)
	}
	d, err = s.ToggleAdminDebtPaid(ctx, d.ID)
	if err != nil || d.IsPaid || d.PaidAt != nil {
		t.Fatalf("expected unpaid, got %+v (%v)", d, err)
	}

	note := "pays on Friday"
	d, err = s.UpdateAdminDebt(ctx, d.ID, AdminDebtInput{PersonName: "Sam", Amount: decimal.NewFromInt(100), Notes: &note})
	if err != nil || d.Notes == nil || *d.Notes != note {
		t.Fatalf("update: %+v (%v)", d, err)
	}

	paid := false
	list, err := s.ListAdminDebts(ctx, domain.AdminDebtFilter{Paid: &paid})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 unpaid admin debt, got %d (%v)", len(list), err)
	}

	if err := s.DeleteAdminDebt(ctx, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteAdminDebt(ctx, d.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
