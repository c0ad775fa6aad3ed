package memory

import (
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) UpsertNotification(ctx context.Context, n *domain.Notification) (domain.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := notificationKey{medicineID: n.MedicineID, kind: n.Type}
	if id, ok := s.notificationBy[key]; ok {
		existing := s.notifications[id]
		if existing.IsConfirmed {
			return domain.UpsertSkipped, nil
		}
		existing.Message = n.Message
		existing.DaysRemaining = n.DaysRemaining
		s.notifications[id] = existing
		*n = existing
		return domain.UpsertRefreshed, nil
	}

	if _, ok := s.medicines[n.MedicineID]; !ok {
		return domain.UpsertSkipped, domain.NewNotFound("medicine", n.MedicineID)
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.notifications[n.ID] = *n
	s.notificationBy[key] = n.ID
	return domain.UpsertInserted, nil
}

func (s *Store) ListNotifications(ctx context.Context, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Notification, 0)
	for _, n := range s.notifications {
		if filter.PharmacyID != uuid.Nil && n.PharmacyID != filter.PharmacyID {
			continue
		}
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		if filter.Confirmed != nil && n.IsConfirmed != *filter.Confirmed {
			continue
		}
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) ConfirmNotification(ctx context.Context, pharmacyID, id, staffID uuid.UUID, at time.Time) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || (pharmacyID != uuid.Nil && n.PharmacyID != pharmacyID) {
		return nil, domain.NewNotFound("notification", id)
	}
	if !n.IsConfirmed {
		n.IsConfirmed = true
		n.ConfirmedBy = &staffID
		n.ConfirmedAt = &at
		s.notifications[id] = n
	}
	return &n, nil
}
