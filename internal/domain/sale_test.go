package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestSaleRequestValidate(t *testing.T) {
	med := uuid.New()
	cases := []struct {
		name  string
		req   SaleRequest
		field string
	}{
		{"no items", SaleRequest{PaymentMethod: PaymentCash}, "items"},
		{"bad method", SaleRequest{PaymentMethod: "barter", Items: []SaleLine{{med, 1}}}, "payment_method"},
		{"zero qty", SaleRequest{PaymentMethod: PaymentCash, Items: []SaleLine{{med, 0}}}, "items[0].quantity"},
		{"nil medicine", SaleRequest{PaymentMethod: PaymentDebt, Items: []SaleLine{{uuid.Nil, 2}}}, "items[0].medicine_id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, ve.Field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected errors.Is ErrValidation")
			}
		})
	}

	ok := SaleRequest{PaymentMethod: PaymentMobileWallet, Items: []SaleLine{{med, 3}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSaleRequestLinesMergeAndSort(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	req := SaleRequest{Items: []SaleLine{{b, 1}, {a, 2}, {b, 4}}}
	lines := req.Lines()

	if len(lines) != 2 {
		t.Fatalf("expected 2 merged lines, got %d", len(lines))
	}
	if lines[0].MedicineID != a || lines[0].Quantity != 2 {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[1].MedicineID != b || lines[1].Quantity != 5 {
		t.Fatalf("unexpected second line %+v", lines[1])
	}
}

func TestFingerprintIgnoresLineOrder(t *testing.T) {
	pharmacy := uuid.New()
	a, b := uuid.New(), uuid.New()

	first := SaleRequest{PaymentMethod: PaymentCash, Items: []SaleLine{{a, 1}, {b, 2}}}
	second := SaleRequest{PaymentMethod: PaymentCash, Items: []SaleLine{{b, 2}, {a, 1}}}
	changed := SaleRequest{PaymentMethod: PaymentCash, Items: []SaleLine{{a, 1}, {b, 3}}}

	if first.Fingerprint(pharmacy) != second.Fingerprint(pharmacy) {
		t.Fatalf("fingerprint should not depend on line order")
	}
	if first.Fingerprint(pharmacy) == changed.Fingerprint(pharmacy) {
		t.Fatalf("fingerprint should change with quantities")
	}
	if first.Fingerprint(pharmacy) == first.Fingerprint(uuid.New()) {
		t.Fatalf("fingerprint should be scoped to the pharmacy")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection reset")
	aborted := &SaleAbortedError{Stage: SalePersisting, Cause: cause}
	if !errors.Is(aborted, ErrSaleAborted) || !errors.Is(aborted, cause) {
		t.Fatalf("aborted error should match sentinel and cause")
	}

	recon := &ReconciliationRequiredError{Unreleased: []Reservation{{uuid.New(), 2}}, Cause: cause}
	if !errors.Is(recon, ErrReconciliationRequired) {
		t.Fatalf("expected reconciliation sentinel")
	}

	stock := &InsufficientStockError{MedicineName: "Paracetamol", Available: 2, Requested: 3}
	if !errors.Is(stock, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock sentinel")
	}
	if got := stock.Error(); got != "only 2 left of Paracetamol (requested 3), reduce quantity" {
		t.Fatalf("unexpected message %q", got)
	}

	if !errors.Is(NewNotFound("medicine", uuid.New()), ErrNotFound) {
		t.Fatalf("expected not found sentinel")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	cases := map[string]PaymentMethod{
		"cash":          PaymentCash,
		"Mobile Wallet": PaymentMobileWallet,
		"mobile_wallet": PaymentMobileWallet,
		" DEBT ":        PaymentDebt,
		"card":          PaymentCard,
	}
	for raw, want := range cases {
		got, ok := ParsePaymentMethod(raw)
		if !ok || got != want {
			t.Fatalf("ParsePaymentMethod(%q) = %q, %v", raw, got, ok)
		}
	}
	if _, ok := ParsePaymentMethod("cheque"); ok {
		t.Fatalf("cheque should not parse")
	}
}
