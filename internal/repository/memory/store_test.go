package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func seed(t *testing.T, stock int) (*Store, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	s := NewStore()

	p := &domain.Pharmacy{Name: "Central"}
	if err := s.CreatePharmacy(ctx, p); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}
	m := &domain.Medicine{
		PharmacyID:        p.ID,
		Name:              "Amoxicillin",
		BuyingPrice:       decimal.NewFromInt(6),
		SellingPrice:      decimal.NewFromInt(10),
		StockQuantity:     stock,
		LowStockThreshold: 10,
	}
	if err := s.CreateMedicine(ctx, m); err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	return s, p.ID, m.ID
}

func TestDecrementStockIsConditional(t *testing.T) {
	ctx := context.Background()
	s, pharmacy, med := seed(t, 5)

	remaining, err := s.DecrementStock(ctx, pharmacy, med, 3)
	if err != nil || remaining != 2 {
		t.Fatalf("expected 2 remaining, got %d (%v)", remaining, err)
	}

	_, err = s.DecrementStock(ctx, pharmacy, med, 3)
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if stockErr.Available != 2 || stockErr.MedicineID != med {
		t.Fatalf("unexpected stock error %+v", stockErr)
	}

	if _, err := s.DecrementStock(ctx, uuid.New(), med, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("other pharmacy must not see the medicine, got %v", err)
	}
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	ctx := context.Background()
	s, pharmacy, med := seed(t, 10)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.DecrementStock(ctx, pharmacy, med, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Fatalf("expected 10 successful decrements, got %d", succeeded)
	}
	m, _ := s.GetMedicine(ctx, pharmacy, med)
	if m.StockQuantity != 0 {
		t.Fatalf("expected stock 0, got %d", m.StockQuantity)
	}
}

func TestCreateReceiptRejectsDuplicateToken(t *testing.T) {
	ctx := context.Background()
	s, pharmacy, _ := seed(t, 1)
	token := "tok-1"

	first := &domain.Receipt{PharmacyID: pharmacy, StaffID: uuid.New(), PaymentMethod: domain.PaymentCash, RequestToken: &token}
	if err := s.CreateReceipt(ctx, first); err != nil {
		t.Fatalf("first receipt: %v", err)
	}
	second := &domain.Receipt{PharmacyID: pharmacy, StaffID: uuid.New(), PaymentMethod: domain.PaymentCash, RequestToken: &token}
	if err := s.CreateReceipt(ctx, second); !errors.Is(err, domain.ErrDuplicateToken) {
		t.Fatalf("expected duplicate token, got %v", err)
	}

	// After compensation the token is free again.
	if err := s.DeleteReceipt(ctx, pharmacy, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.CreateReceipt(ctx, second); err != nil {
		t.Fatalf("token should be reusable after delete: %v", err)
	}
}

func TestDeleteMedicineInUse(t *testing.T) {
	ctx := context.Background()
	s, pharmacy, med := seed(t, 5)

	r := &domain.Receipt{PharmacyID: pharmacy, StaffID: uuid.New(), PaymentMethod: domain.PaymentCash}
	if err := s.CreateReceipt(ctx, r); err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if err := s.CreateReceiptItems(ctx, r.ID, []domain.ReceiptItem{{MedicineID: med, Quantity: 1}}); err != nil {
		t.Fatalf("items: %v", err)
	}

	if err := s.DeleteMedicine(ctx, pharmacy, med); !errors.Is(err, domain.ErrMedicineInUse) {
		t.Fatalf("expected medicine in use, got %v", err)
	}
}

func TestUpsertNotificationLeavesConfirmedAlone(t *testing.T) {
	ctx := context.Background()
	s, pharmacy, med := seed(t, 1)

	n := &domain.Notification{PharmacyID: pharmacy, MedicineID: med, Type: domain.NotificationLowStock, Message: "low"}
	if outcome, err := s.UpsertNotification(ctx, n); err != nil || outcome != domain.UpsertInserted {
		t.Fatalf("insert: outcome=%v err=%v", outcome, err)
	}
	again := &domain.Notification{PharmacyID: pharmacy, MedicineID: med, Type: domain.NotificationLowStock, Message: "still low"}
	if outcome, err := s.UpsertNotification(ctx, again); err != nil || outcome != domain.UpsertRefreshed {
		t.Fatalf("refresh: outcome=%v err=%v", outcome, err)
	}
	if again.ID != n.ID {
		t.Fatalf("upsert should reuse the existing row")
	}

	if _, err := s.ConfirmNotification(ctx, pharmacy, n.ID, uuid.New(), n.CreatedAt); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	third := &domain.Notification{PharmacyID: pharmacy, MedicineID: med, Type: domain.NotificationLowStock, Message: "low again"}
	outcome, err := s.UpsertNotification(ctx, third)
	if err != nil || outcome != domain.UpsertSkipped {
		t.Fatalf("confirmed alert must stay untouched: outcome=%v err=%v", outcome, err)
	}

	all, _ := s.ListNotifications(ctx, domain.NotificationFilter{PharmacyID: pharmacy})
	if len(all) != 1 || all[0].Message != "still low" {
		t.Fatalf("unexpected notifications %+v", all)
	}
}

func TestMarkDebtPaid(t *testing.T) {
	ctx := context.Background()
	s, pharmacy, _ := seed(t, 1)
	staff := uuid.New()

	debt := &domain.Receipt{PharmacyID: pharmacy, StaffID: staff, PaymentMethod: domain.PaymentDebt}
	cash := &domain.Receipt{PharmacyID: pharmacy, StaffID: staff, PaymentMethod: domain.PaymentCash}
	_ = s.CreateReceipt(ctx, debt)
	_ = s.CreateReceipt(ctx, cash)

	paid, err := s.MarkDebtPaid(ctx, pharmacy, debt.ID, staff, debt.CreatedAt)
	if err != nil || paid.DebtPaidAt == nil || *paid.DebtPaidBy != staff {
		t.Fatalf("unexpected result %+v (%v)", paid, err)
	}
	if _, err := s.MarkDebtPaid(ctx, pharmacy, debt.ID, staff, debt.CreatedAt); !errors.Is(err, domain.ErrDebtAlreadySettled) {
		t.Fatalf("expected already settled, got %v", err)
	}
	if _, err := s.MarkDebtPaid(ctx, pharmacy, cash.ID, staff, cash.CreatedAt); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for cash receipt, got %v", err)
	}
}
