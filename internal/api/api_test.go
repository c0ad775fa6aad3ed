package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/api/middleware"
	"github.com/andresuchdata/pharmadesk/internal/config"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/repository/memory"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type testServer struct {
	router   *gin.Engine
	mem      *memory.Store
	pharmacy uuid.UUID
	staff    string
	admin    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	mem := memory.NewStore()
	store := mem.Repositories()
	p := &domain.Pharmacy{Name: "Central"}
	if err := mem.CreatePharmacy(ctx, p); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}

	tokens, err := middleware.NewTokens(config.AuthConfig{JWTSecret: "secret", TTLHours: 1})
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	staff, _ := tokens.Issue(domain.TenantContext{PharmacyID: p.ID, StaffID: uuid.New(), Role: domain.RoleStaff})
	admin, _ := tokens.Issue(domain.TenantContext{StaffID: uuid.New(), Role: domain.RoleAdmin})

	services := &Services{
		Sales:      service.NewSaleCoordinator(store, nil, nil, service.SaleOptions{PersistRetries: 1}),
		Receipts:   service.NewReceiptService(store.Receipts),
		Debts:      service.NewDebtService(store.Receipts, store.AdminDebts, nil),
		Medicines:  service.NewMedicineService(store.Medicines, nil),
		Alerts:     service.NewAlertService(store, nil, service.AlertOptions{}),
		Analytics:  service.NewAnalyticsService(store, nil, 20, time.UTC),
		Pharmacies: service.NewPharmacyService(store.Pharmacies),
	}

	return &testServer{
		router:   NewRouter(services, tokens, nil),
		mem:      mem,
		pharmacy: p.ID,
		staff:    staff,
		admin:    admin,
	}
}

func (s *testServer) medicine(t *testing.T, stock int) uuid.UUID {
	t.Helper()
	m := &domain.Medicine{
		PharmacyID:        s.pharmacy,
		Name:              "Paracetamol",
		BuyingPrice:       decimal.NewFromInt(6),
		SellingPrice:      decimal.NewFromInt(10),
		StockQuantity:     stock,
		LowStockThreshold: 1,
	}
	if err := s.mem.CreateMedicine(context.Background(), m); err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	return m.ID
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func saleBody(id uuid.UUID, qty int, method string) gin.H {
	return gin.H{
		"payment_method": method,
		"items":          []gin.H{{"medicine_id": id.String(), "quantity": qty}},
	}
}

func TestRecordSaleEndpoint(t *testing.T) {
	s := newTestServer(t)
	med := s.medicine(t, 5)

	w := s.do(t, http.MethodPost, "/api/v1/sales", s.staff, saleBody(med, 3, "cash"), "Idempotency-Key", "till-9")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var first domain.SaleResult
	decode(t, w, &first)
	if !first.Receipt.TotalAmount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected total 30, got %s", first.Receipt.TotalAmount)
	}

	w = s.do(t, http.MethodPost, "/api/v1/sales", s.staff, saleBody(med, 3, "cash"), "Idempotency-Key", "till-9")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d: %s", w.Code, w.Body.String())
	}
	var second domain.SaleResult
	decode(t, w, &second)
	if !second.Replayed || second.Receipt.ID != first.Receipt.ID {
		t.Fatalf("expected replay of %s, got %+v", first.Receipt.ID, second)
	}

	w = s.do(t, http.MethodPost, "/api/v1/sales", s.staff, saleBody(med, 3, "cash"))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for insufficient stock, got %d", w.Code)
	}
	var conflict map[string]interface{}
	decode(t, w, &conflict)
	if conflict["code"] != "insufficient_stock" || conflict["available"] != float64(2) {
		t.Fatalf("unexpected conflict body %v", conflict)
	}
}

func TestRecordSaleEndpointValidation(t *testing.T) {
	s := newTestServer(t)
	med := s.medicine(t, 5)

	tests := []struct {
		name  string
		body  interface{}
		want  int
		field string
	}{
		{"missing payment method", gin.H{"items": []gin.H{{"medicine_id": med.String(), "quantity": 1}}}, http.StatusUnprocessableEntity, "payment_method"},
		{"no items", gin.H{"payment_method": "cash", "items": []gin.H{}}, http.StatusUnprocessableEntity, "items"},
		{"bad medicine id", gin.H{"payment_method": "cash", "items": []gin.H{{"medicine_id": "nope", "quantity": 1}}}, http.StatusUnprocessableEntity, "medicine_id"},
		{"unknown payment method", saleBody(med, 1, "barter"), http.StatusUnprocessableEntity, "payment_method"},
		{"unknown medicine", saleBody(uuid.New(), 1, "cash"), http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/sales", s.staff, tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.field == "" {
				return
			}
			var body struct {
				Fields map[string]string `json:"fields"`
			}
			decode(t, w, &body)
			if _, ok := body.Fields[tt.field]; !ok {
				t.Fatalf("expected field %s in %v", tt.field, body.Fields)
			}
		})
	}
}

func TestDebtEndpoints(t *testing.T) {
	s := newTestServer(t)
	med := s.medicine(t, 5)

	w := s.do(t, http.MethodPost, "/api/v1/sales", s.staff, saleBody(med, 1, "debt"))
	if w.Code != http.StatusCreated {
		t.Fatalf("debt sale: %d %s", w.Code, w.Body.String())
	}
	var res domain.SaleResult
	decode(t, w, &res)

	path := "/api/v1/debts/" + res.Receipt.ID.String() + "/pay"
	if w := s.do(t, http.MethodPost, path, s.staff, nil); w.Code != http.StatusOK {
		t.Fatalf("mark paid: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, path, s.staff, nil); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second settle, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/v1/debts/not-a-uuid/pay", s.staff, nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad id, got %d", w.Code)
	}
}

func TestMedicineInUseCannotBeDeleted(t *testing.T) {
	s := newTestServer(t)
	med := s.medicine(t, 5)
	if w := s.do(t, http.MethodPost, "/api/v1/sales", s.staff, saleBody(med, 1, "cash")); w.Code != http.StatusCreated {
		t.Fatalf("sale: %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/api/v1/medicines/"+med.String(), s.staff, nil); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestRoleSeparation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", http.StatusOK},
		{"anonymous request", http.MethodGet, "/api/v1/receipts", "", http.StatusUnauthorized},
		{"staff lists receipts", http.MethodGet, "/api/v1/receipts", s.staff, http.StatusOK},
		{"staff on admin route", http.MethodGet, "/api/v1/admin/pharmacies", s.staff, http.StatusForbidden},
		{"admin lists pharmacies", http.MethodGet, "/api/v1/admin/pharmacies", s.admin, http.StatusOK},
		{"admin without pharmacy on staff route", http.MethodGet, "/api/v1/receipts", s.admin, http.StatusForbidden},
		{"admin profit", http.MethodGet, "/api/v1/admin/analytics/profit?year=2025&month=2", s.admin, http.StatusOK},
		{"bad month", http.MethodGet, "/api/v1/admin/analytics/profit?month=13", s.admin, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(t, tt.method, tt.path, tt.token, nil); w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestAlertScanEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.medicine(t, 0)

	w := s.do(t, http.MethodPost, "/api/v1/alerts/scan", s.staff, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("scan: %d %s", w.Code, w.Body.String())
	}
	var res domain.AlertScanResult
	decode(t, w, &res)
	if res.AlertsRaised != 1 {
		t.Fatalf("expected 1 alert, got %+v", res)
	}

	w = s.do(t, http.MethodGet, "/api/v1/notifications?confirmed=false", s.staff, nil)
	var pending []domain.Notification
	decode(t, w, &pending)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending notification, got %d", len(pending))
	}

	w = s.do(t, http.MethodPost, "/api/v1/notifications/"+pending[0].ID.String()+"/confirm", s.staff, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/v1/admin/alerts/scan", s.admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin scan: %d %s", w.Code, w.Body.String())
	}
}

func TestAdminMedicinesSpanPharmacies(t *testing.T) {
	s := newTestServer(t)
	s.medicine(t, 5)

	other := &domain.Pharmacy{Name: "Harbour"}
	if err := s.mem.CreatePharmacy(context.Background(), other); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}
	if err := s.mem.CreateMedicine(context.Background(), &domain.Medicine{
		PharmacyID:   other.ID,
		Name:         "Ibuprofen",
		BuyingPrice:  decimal.NewFromInt(4),
		SellingPrice: decimal.NewFromInt(7),
	}); err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	tests := []struct {
		name  string
		path  string
		token string
		want  int
		count int
	}{
		{"all pharmacies", "/api/v1/admin/medicines", s.admin, http.StatusOK, 2},
		{"one pharmacy", "/api/v1/admin/medicines?pharmacy_id=" + other.ID.String(), s.admin, http.StatusOK, 1},
		{"bad pharmacy id", "/api/v1/admin/medicines?pharmacy_id=nope", s.admin, http.StatusUnprocessableEntity, -1},
		{"staff is refused", "/api/v1/admin/medicines", s.staff, http.StatusForbidden, -1},
		{"staff sees own catalog", "/api/v1/medicines", s.staff, http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, tt.token, nil)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.count < 0 {
				return
			}
			var list []domain.Medicine
			decode(t, w, &list)
			if len(list) != tt.count {
				t.Fatalf("expected %d medicines, got %d", tt.count, len(list))
			}
		})
	}
}
