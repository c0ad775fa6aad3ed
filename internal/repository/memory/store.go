// Package memory is a process-local implementation of every repository.
// It backs the memory storage mode and the service tests, and mirrors the
// constraints the postgres schema enforces.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
)

type tokenKey struct {
	pharmacyID uuid.UUID
	token      string
}

type notificationKey struct {
	medicineID uuid.UUID
	kind       domain.NotificationType
}

type Store struct {
	mu             sync.RWMutex
	pharmacies     map[uuid.UUID]domain.Pharmacy
	staff          map[uuid.UUID]domain.StaffMember
	medicines      map[uuid.UUID]domain.Medicine
	receipts       map[uuid.UUID]domain.Receipt
	receiptItems   map[uuid.UUID][]domain.ReceiptItem
	receiptsByTok  map[tokenKey]uuid.UUID
	notifications  map[uuid.UUID]domain.Notification
	notificationBy map[notificationKey]uuid.UUID
	adminDebts     map[uuid.UUID]domain.AdminDebt
}

func NewStore() *Store {
	return &Store{
		pharmacies:     make(map[uuid.UUID]domain.Pharmacy),
		staff:          make(map[uuid.UUID]domain.StaffMember),
		medicines:      make(map[uuid.UUID]domain.Medicine),
		receipts:       make(map[uuid.UUID]domain.Receipt),
		receiptItems:   make(map[uuid.UUID][]domain.ReceiptItem),
		receiptsByTok:  make(map[tokenKey]uuid.UUID),
		notifications:  make(map[uuid.UUID]domain.Notification),
		notificationBy: make(map[notificationKey]uuid.UUID),
		adminDebts:     make(map[uuid.UUID]domain.AdminDebt),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{
		Medicines:     s,
		Receipts:      s,
		Notifications: s,
		AdminDebts:    s,
		Pharmacies:    s,
	}
}

// --- pharmacies & staff

func (s *Store) CreatePharmacy(ctx context.Context, p *domain.Pharmacy) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pharmacies[p.ID] = *p
	return nil
}

func (s *Store) GetPharmacy(ctx context.Context, id uuid.UUID) (*domain.Pharmacy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pharmacies[id]
	if !ok {
		return nil, domain.NewNotFound("pharmacy", id)
	}
	return &p, nil
}

func (s *Store) ListPharmacies(ctx context.Context) ([]*domain.Pharmacy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Pharmacy, 0, len(s.pharmacies))
	for _, p := range s.pharmacies {
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateStaff(ctx context.Context, m *domain.StaffMember) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pharmacies[m.PharmacyID]; !ok {
		return domain.NewNotFound("pharmacy", m.PharmacyID)
	}
	for _, existing := range s.staff {
		if existing.PharmacyID == m.PharmacyID && strings.EqualFold(existing.Email, m.Email) {
			return domain.NewValidationError("email", "already registered in this pharmacy")
		}
	}
	s.staff[m.ID] = *m
	return nil
}

func (s *Store) ListStaff(ctx context.Context, pharmacyID uuid.UUID) ([]*domain.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.StaffMember, 0)
	for _, m := range s.staff {
		if m.PharmacyID == pharmacyID {
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// --- medicines & ledger

func (s *Store) GetMedicine(ctx context.Context, pharmacyID, id uuid.UUID) (*domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.medicines[id]
	if !ok || m.PharmacyID != pharmacyID {
		return nil, domain.NewNotFound("medicine", id)
	}
	return &m, nil
}

func (s *Store) GetMedicinesByIDs(ctx context.Context, pharmacyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]*domain.Medicine, len(ids))
	for _, id := range ids {
		if m, ok := s.medicines[id]; ok && m.PharmacyID == pharmacyID {
			out[id] = &m
		}
	}
	return out, nil
}

func (s *Store) ListMedicines(ctx context.Context, filter domain.MedicineFilter) ([]*domain.Medicine, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	category := strings.TrimSpace(filter.Category)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Medicine, 0)
	for _, m := range s.medicines {
		if filter.PharmacyID != uuid.Nil && m.PharmacyID != filter.PharmacyID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name), search) &&
			(m.Category == nil || !strings.Contains(strings.ToLower(*m.Category), search)) {
			continue
		}
		if category != "" && (m.Category == nil || *m.Category != category) {
			continue
		}
		if filter.LowStockOnly && m.StockQuantity > m.LowStockThreshold {
			continue
		}
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) CreateMedicine(ctx context.Context, m *domain.Medicine) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pharmacies[m.PharmacyID]; !ok {
		return domain.NewNotFound("pharmacy", m.PharmacyID)
	}
	if m.StockQuantity < 0 || m.BuyingPrice.IsNegative() || m.SellingPrice.IsNegative() {
		return domain.NewValidationError("medicine", "prices and quantities must not be negative")
	}
	s.medicines[m.ID] = *m
	return nil
}

func (s *Store) UpdateMedicine(ctx context.Context, m *domain.Medicine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.medicines[m.ID]
	if !ok || current.PharmacyID != m.PharmacyID {
		return domain.NewNotFound("medicine", m.ID)
	}
	if m.BuyingPrice.IsNegative() || m.SellingPrice.IsNegative() {
		return domain.NewValidationError("medicine", "prices and quantities must not be negative")
	}

	m.StockQuantity = current.StockQuantity
	m.CreatedAt = current.CreatedAt
	m.CreatedBy = current.CreatedBy
	m.UpdatedAt = time.Now().UTC()
	s.medicines[m.ID] = *m
	return nil
}

func (s *Store) DeleteMedicine(ctx context.Context, pharmacyID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.medicines[id]
	if !ok || m.PharmacyID != pharmacyID {
		return domain.NewNotFound("medicine", id)
	}
	for _, items := range s.receiptItems {
		for _, item := range items {
			if item.MedicineID == id {
				return domain.ErrMedicineInUse
			}
		}
	}
	delete(s.medicines, id)
	for key, nid := range s.notificationBy {
		if key.medicineID == id {
			delete(s.notifications, nid)
			delete(s.notificationBy, key)
		}
	}
	return nil
}

func (s *Store) DecrementStock(ctx context.Context, pharmacyID, id uuid.UUID, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.medicines[id]
	if !ok || m.PharmacyID != pharmacyID {
		return 0, domain.NewNotFound("medicine", id)
	}
	if m.StockQuantity < qty {
		return m.StockQuantity, &domain.InsufficientStockError{
			MedicineID:   id,
			MedicineName: m.Name,
			Available:    m.StockQuantity,
			Requested:    qty,
		}
	}
	m.StockQuantity -= qty
	m.UpdatedAt = time.Now().UTC()
	s.medicines[id] = m
	return m.StockQuantity, nil
}

func (s *Store) IncrementStock(ctx context.Context, pharmacyID, id uuid.UUID, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.medicines[id]
	if !ok || m.PharmacyID != pharmacyID {
		return 0, domain.NewNotFound("medicine", id)
	}
	m.StockQuantity += qty
	m.UpdatedAt = time.Now().UTC()
	s.medicines[id] = m
	return m.StockQuantity, nil
}
