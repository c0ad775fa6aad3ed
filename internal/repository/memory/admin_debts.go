package memory

import (
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateAdminDebt(ctx context.Context, d *domain.AdminDebt) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminDebts[d.ID] = *d
	return nil
}

func (s *Store) GetAdminDebt(ctx context.Context, id uuid.UUID) (*domain.AdminDebt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.adminDebts[id]
	if !ok {
		return nil, domain.NewNotFound("admin debt", id)
	}
	return &d, nil
}

func (s *Store) ListAdminDebts(ctx context.Context, filter domain.AdminDebtFilter) ([]*domain.AdminDebt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.AdminDebt, 0, len(s.adminDebts))
	for _, d := range s.adminDebts {
		if filter.Paid != nil && d.IsPaid != *filter.Paid {
			continue
		}
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateAdminDebt(ctx context.Context, d *domain.AdminDebt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.adminDebts[d.ID]
	if !ok {
		return domain.NewNotFound("admin debt", d.ID)
	}
	d.CreatedAt = current.CreatedAt
	s.adminDebts[d.ID] = *d
	return nil
}

func (s *Store) DeleteAdminDebt(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adminDebts[id]; !ok {
		return domain.NewNotFound("admin debt", id)
	}
	delete(s.adminDebts, id)
	return nil
}
