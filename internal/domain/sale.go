package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const MaxRequestTokenLength = 128

type SaleLine struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
}

type SaleRequest struct {
	Token         string        `json:"request_token,omitempty"`
	CustomerName  *string       `json:"customer_name,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Items         []SaleLine    `json:"items"`
}

// Validate checks the request shape. Stock and catalog checks happen later.
func (r SaleRequest) Validate() error {
	if len(r.Token) > MaxRequestTokenLength {
		return NewValidationError("request_token", "too long")
	}
	if !r.PaymentMethod.Valid() {
		return NewValidationError("payment_method", fmt.Sprintf("unsupported payment method %q", r.PaymentMethod))
	}
	if len(r.Items) == 0 {
		return NewValidationError("items", "at least one item is required")
	}
	for i, line := range r.Items {
		if line.MedicineID == uuid.Nil {
			return NewValidationError(fmt.Sprintf("items[%d].medicine_id", i), "required")
		}
		if line.Quantity <= 0 {
			return NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
	}
	return nil
}

// Lines merges duplicate medicines and orders the result by ascending
// medicine id, the order in which stock is reserved.
func (r SaleRequest) Lines() []SaleLine {
	merged := make(map[uuid.UUID]int, len(r.Items))
	for _, line := range r.Items {
		merged[line.MedicineID] += line.Quantity
	}

	lines := make([]SaleLine, 0, len(merged))
	for id, qty := range merged {
		lines = append(lines, SaleLine{MedicineID: id, Quantity: qty})
	}
	SortLines(lines)
	return lines
}

func SortLines(lines []SaleLine) {
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].MedicineID.String() < lines[j].MedicineID.String()
	})
}

// Fingerprint hashes the normalized request so a reused token can be told
// apart from a retry of the same sale.
func (r SaleRequest) Fingerprint(pharmacyID uuid.UUID) string {
	h := sha256.New()
	h.Write([]byte(pharmacyID.String()))
	h.Write([]byte{'\n'})
	h.Write([]byte(r.PaymentMethod))
	h.Write([]byte{'\n'})
	if r.CustomerName != nil {
		h.Write([]byte(strings.TrimSpace(*r.CustomerName)))
	}
	for _, line := range r.Lines() {
		fmt.Fprintf(h, "\n%s:%d", line.MedicineID, line.Quantity)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Reservation is stock taken from the ledger on behalf of a sale.
type Reservation struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
}

type SaleResult struct {
	Receipt  *Receipt `json:"receipt"`
	Replayed bool     `json:"replayed"`
}
