package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrSaleAborted            = errors.New("sale aborted")
	ErrReconciliationRequired = errors.New("reconciliation required")
	ErrTokenConflict          = errors.New("request token reused with a different payload")
	ErrDuplicateToken         = errors.New("request token already recorded")
	ErrMedicineInUse          = errors.New("medicine is referenced by existing receipts")
	ErrDebtAlreadySettled     = errors.New("debt already settled")
	ErrForbidden              = errors.New("forbidden")
)

type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFound(entity string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError names the medicine that could not be reserved.
type InsufficientStockError struct {
	MedicineID   uuid.UUID
	MedicineName string
	Available    int
	Requested    int
}

func (e *InsufficientStockError) Error() string {
	name := e.MedicineName
	if name == "" {
		name = e.MedicineID.String()
	}
	return fmt.Sprintf("only %d left of %s (requested %d), reduce quantity", e.Available, name, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// SaleAbortedError is returned when a sale was rolled back after a
// failure in the given stage. Stock has been restored.
type SaleAbortedError struct {
	Stage SaleState
	Cause error
}

func (e *SaleAbortedError) Error() string {
	return fmt.Sprintf("sale aborted during %s: %v", e.Stage, e.Cause)
}

func (e *SaleAbortedError) Unwrap() error { return e.Cause }

func (e *SaleAbortedError) Is(target error) bool { return target == ErrSaleAborted }

// ReconciliationRequiredError means compensation could not finish and the
// listed stock (and possibly a receipt row) must be fixed by an operator.
type ReconciliationRequiredError struct {
	ReceiptID  *uuid.UUID
	Unreleased []Reservation
	Cause      error
}

func (e *ReconciliationRequiredError) Error() string {
	parts := make([]string, 0, len(e.Unreleased))
	for _, r := range e.Unreleased {
		parts = append(parts, fmt.Sprintf("%s x%d", r.MedicineID, r.Quantity))
	}
	msg := "reconciliation required"
	if e.ReceiptID != nil {
		msg += fmt.Sprintf(" for receipt %s", e.ReceiptID)
	}
	if len(parts) > 0 {
		msg += fmt.Sprintf(" (unreleased: %s)", strings.Join(parts, ", "))
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ReconciliationRequiredError) Unwrap() error { return e.Cause }

func (e *ReconciliationRequiredError) Is(target error) bool {
	return target == ErrReconciliationRequired
}
