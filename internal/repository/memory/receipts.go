package memory

import (
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateReceipt(ctx context.Context, r *domain.Receipt) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r.RequestToken != nil {
		key := tokenKey{pharmacyID: r.PharmacyID, token: *r.RequestToken}
		if _, exists := s.receiptsByTok[key]; exists {
			return domain.ErrDuplicateToken
		}
		s.receiptsByTok[key] = r.ID
	}
	stored := *r
	stored.Items = nil
	s.receipts[r.ID] = stored
	return nil
}

func (s *Store) CreateReceiptItems(ctx context.Context, receiptID uuid.UUID, items []domain.ReceiptItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[receiptID]; !ok {
		return domain.NewNotFound("receipt", receiptID)
	}
	for i := range items {
		if _, ok := s.medicines[items[i].MedicineID]; !ok {
			return domain.NewNotFound("medicine", items[i].MedicineID)
		}
	}

	stored := make([]domain.ReceiptItem, len(items))
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].ReceiptID = receiptID
		stored[i] = items[i]
	}
	s.receiptItems[receiptID] = append(s.receiptItems[receiptID], stored...)
	return nil
}

func (s *Store) DeleteReceipt(ctx context.Context, pharmacyID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[id]
	if !ok || r.PharmacyID != pharmacyID {
		return nil
	}
	if r.RequestToken != nil {
		delete(s.receiptsByTok, tokenKey{pharmacyID: r.PharmacyID, token: *r.RequestToken})
	}
	delete(s.receipts, id)
	delete(s.receiptItems, id)
	return nil
}

func (s *Store) GetReceipt(ctx context.Context, pharmacyID, id uuid.UUID) (*domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[id]
	if !ok || (pharmacyID != uuid.Nil && r.PharmacyID != pharmacyID) {
		return nil, domain.NewNotFound("receipt", id)
	}
	return s.withItems(r), nil
}

func (s *Store) FindReceiptByToken(ctx context.Context, pharmacyID uuid.UUID, token string) (*domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.receiptsByTok[tokenKey{pharmacyID: pharmacyID, token: token}]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "receipt with token", ID: token}
	}
	return s.withItems(s.receipts[id]), nil
}

func (s *Store) ListReceipts(ctx context.Context, filter domain.ReceiptFilter) ([]*domain.Receipt, int, error) {
	filter.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.Receipt, 0)
	for _, r := range s.receipts {
		if matchesReceipt(r, filter) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}

	out := make([]*domain.Receipt, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, s.withItems(r))
	}
	return out, total, nil
}

func (s *Store) MarkDebtPaid(ctx context.Context, pharmacyID, id, staffID uuid.UUID, at time.Time) (*domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[id]
	if !ok || r.PharmacyID != pharmacyID {
		return nil, domain.NewNotFound("receipt", id)
	}
	if r.PaymentMethod != domain.PaymentDebt {
		return nil, domain.NewValidationError("payment_method", "receipt was not paid by debt")
	}
	if r.DebtPaidAt != nil {
		return nil, domain.ErrDebtAlreadySettled
	}
	r.DebtPaidAt = &at
	r.DebtPaidBy = &staffID
	s.receipts[id] = r
	return s.withItems(r), nil
}

func (s *Store) ListSoldItems(ctx context.Context, pharmacyID uuid.UUID, from, to time.Time) ([]domain.SoldItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SoldItem, 0)
	for id, r := range s.receipts {
		if pharmacyID != uuid.Nil && r.PharmacyID != pharmacyID {
			continue
		}
		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
			continue
		}
		for _, item := range s.receiptItems[id] {
			out = append(out, domain.SoldItem{
				PharmacyID:   r.PharmacyID,
				PharmacyName: s.pharmacies[r.PharmacyID].Name,
				SoldAt:       r.CreatedAt,
				Quantity:     item.Quantity,
				BuyingPrice:  item.BuyingPrice,
				SellingPrice: item.SellingPrice,
				Profit:       item.Profit,
				Total:        item.Total,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SoldAt.Before(out[j].SoldAt) })
	return out, nil
}

func (s *Store) withItems(r domain.Receipt) *domain.Receipt {
	items := s.receiptItems[r.ID]
	r.Items = make([]domain.ReceiptItem, len(items))
	copy(r.Items, items)
	sort.Slice(r.Items, func(i, j int) bool {
		return r.Items[i].MedicineID.String() < r.Items[j].MedicineID.String()
	})
	return &r
}

func matchesReceipt(r domain.Receipt, f domain.ReceiptFilter) bool {
	if f.PharmacyID != uuid.Nil && r.PharmacyID != f.PharmacyID {
		return false
	}
	if f.PaymentMethod != nil && r.PaymentMethod != *f.PaymentMethod {
		return false
	}
	if f.StaffID != nil && r.StaffID != *f.StaffID {
		return false
	}
	if f.From != nil && r.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !r.CreatedAt.Before(*f.To) {
		return false
	}
	if f.UnpaidDebtOnly && !r.IsUnpaidDebt() {
		return false
	}
	return true
}
