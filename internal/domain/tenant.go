package domain

import "github.com/google/uuid"

// TenantContext identifies the pharmacy and staff member on whose behalf
// an operation runs. It is passed explicitly to every core call.
type TenantContext struct {
	PharmacyID uuid.UUID
	StaffID    uuid.UUID
	Role       Role
}

func (t TenantContext) Validate() error {
	if t.PharmacyID == uuid.Nil {
		return NewValidationError("pharmacy_id", "tenant has no pharmacy")
	}
	if t.StaffID == uuid.Nil {
		return NewValidationError("staff_id", "tenant has no staff member")
	}
	return nil
}

func (t TenantContext) IsAdmin() bool {
	return t.Role == RoleAdmin
}
