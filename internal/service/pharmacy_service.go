package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository"
	"github.com/google/uuid"
)

type PharmacyInput struct {
	Name    string
	Address *string
	Phone   *string
	Email   *string
}

type StaffInput struct {
	FullName string
	Email    string
	Role     domain.Role
}

// PharmacyDetail is a pharmacy with its staff.
type PharmacyDetail struct {
	*domain.Pharmacy
	Staff []*domain.StaffMember `json:"staff"`
}

type PharmacyService struct {
	repo repository.PharmacyRepository
}

func NewPharmacyService(repo repository.PharmacyRepository) *PharmacyService {
	return &PharmacyService{repo: repo}
}

func (s *PharmacyService) ListPharmacies(ctx context.Context) ([]*domain.Pharmacy, error) {
	return s.repo.ListPharmacies(ctx)
}

func (s *PharmacyService) GetPharmacy(ctx context.Context, id uuid.UUID) (*PharmacyDetail, error) {
	p, err := s.repo.GetPharmacy(ctx, id)
	if err != nil {
		return nil, err
	}
	staff, err := s.repo.ListStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PharmacyDetail{Pharmacy: p, Staff: staff}, nil
}

func (s *PharmacyService) CreatePharmacy(ctx context.Context, in PharmacyInput) (*domain.Pharmacy, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewValidationError("name", "required")
	}
	p := &domain.Pharmacy{
		Name:    strings.TrimSpace(in.Name),
		Address: trimmedOrNil(in.Address),
		Phone:   trimmedOrNil(in.Phone),
		Email:   trimmedOrNil(in.Email),
	}
	if err := s.repo.CreatePharmacy(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PharmacyService) AddStaff(ctx context.Context, pharmacyID uuid.UUID, in StaffInput) (*domain.StaffMember, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return nil, domain.NewValidationError("full_name", "required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, domain.NewValidationError("email", "invalid address")
	}
	role := domain.RoleStaff
	if in.Role != "" {
		parsed, ok := domain.ParseRole(string(in.Role))
		if !ok {
			return nil, domain.NewValidationError("role", "must be admin or staff")
		}
		role = parsed
	}

	member := &domain.StaffMember{
		PharmacyID: pharmacyID,
		FullName:   strings.TrimSpace(in.FullName),
		Email:      strings.ToLower(addr.Address),
		Role:       role,
	}
	if err := s.repo.CreateStaff(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}
