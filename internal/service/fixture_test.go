package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/andresuchdata/pharmadesk/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errConnReset = errors.New("connection reset by peer")

type fixture struct {
	mem    *memory.Store
	store  *repository.Store
	tenant domain.TenantContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := memory.NewStore()

	p := &domain.Pharmacy{Name: "Central Pharmacy"}
	if err := mem.CreatePharmacy(ctx, p); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}
	staff := &domain.StaffMember{PharmacyID: p.ID, FullName: "Dana", Email: "dana@example.com", Role: domain.RoleStaff}
	if err := mem.CreateStaff(ctx, staff); err != nil {
		t.Fatalf("create staff: %v", err)
	}

	return &fixture{
		mem:    mem,
		store:  mem.Repositories(),
		tenant: domain.TenantContext{PharmacyID: p.ID, StaffID: staff.ID, Role: domain.RoleStaff},
	}
}

func (f *fixture) addMedicine(t *testing.T, name string, stock int, buying, selling int64) *domain.Medicine {
	t.Helper()
	m := &domain.Medicine{
		PharmacyID:        f.tenant.PharmacyID,
		Name:              name,
		BuyingPrice:       decimal.NewFromInt(buying),
		SellingPrice:      decimal.NewFromInt(selling),
		StockQuantity:     stock,
		LowStockThreshold: 1,
	}
	if err := f.mem.CreateMedicine(context.Background(), m); err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	return m
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	m, err := f.mem.GetMedicine(context.Background(), f.tenant.PharmacyID, id)
	if err != nil {
		t.Fatalf("get medicine: %v", err)
	}
	return m.StockQuantity
}

func (f *fixture) receiptCount(t *testing.T) int {
	t.Helper()
	_, total, err := f.mem.ListReceipts(context.Background(), domain.ReceiptFilter{PharmacyID: f.tenant.PharmacyID})
	if err != nil {
		t.Fatalf("list receipts: %v", err)
	}
	return total
}

func (f *fixture) coordinator() *SaleCoordinator {
	return NewSaleCoordinator(f.store, nil, nil, SaleOptions{PersistRetries: 1, LockTTL: time.Second})
}

func sale(token string, method domain.PaymentMethod, lines ...domain.SaleLine) domain.SaleRequest {
	return domain.SaleRequest{Token: token, PaymentMethod: method, Items: lines}
}

func line(id uuid.UUID, qty int) domain.SaleLine {
	return domain.SaleLine{MedicineID: id, Quantity: qty}
}

// flakyReceipts fails receipt writes a fixed number of times. lostReplies
// commit the row and still report an error; lateFails apply once the lost
// replies are used up.
type flakyReceipts struct {
	repository.ReceiptRepository

	mu          sync.Mutex
	createFails int
	lostReplies int
	lateFails   int
	itemFails   int
	deleteFails bool
	createCalls int
	deleteCalls int
}

func (f *flakyReceipts) CreateReceipt(ctx context.Context, r *domain.Receipt) error {
	f.mu.Lock()
	f.createCalls++
	if f.createFails > 0 {
		f.createFails--
		f.mu.Unlock()
		return errConnReset
	}
	lost := f.lostReplies > 0
	if lost {
		f.lostReplies--
	} else if f.lateFails > 0 {
		f.lateFails--
		f.mu.Unlock()
		return errConnReset
	}
	f.mu.Unlock()

	if err := f.ReceiptRepository.CreateReceipt(ctx, r); err != nil {
		return err
	}
	if lost {
		return errConnReset
	}
	return nil
}

func (f *flakyReceipts) CreateReceiptItems(ctx context.Context, receiptID uuid.UUID, items []domain.ReceiptItem) error {
	f.mu.Lock()
	if f.itemFails > 0 {
		f.itemFails--
		f.mu.Unlock()
		return errConnReset
	}
	f.mu.Unlock()
	return f.ReceiptRepository.CreateReceiptItems(ctx, receiptID, items)
}

func (f *flakyReceipts) DeleteReceipt(ctx context.Context, pharmacyID, id uuid.UUID) error {
	f.mu.Lock()
	f.deleteCalls++
	fail := f.deleteFails
	f.mu.Unlock()
	if fail {
		return errConnReset
	}
	return f.ReceiptRepository.DeleteReceipt(ctx, pharmacyID, id)
}

// flakyMedicines refuses to give stock back.
type flakyMedicines struct {
	repository.MedicineRepository
	incrementFails bool
}

func (f *flakyMedicines) IncrementStock(ctx context.Context, pharmacyID, id uuid.UUID, qty int) (int, error) {
	if f.incrementFails {
		return 0, errConnReset
	}
	return f.MedicineRepository.IncrementStock(ctx, pharmacyID, id, qty)
}
