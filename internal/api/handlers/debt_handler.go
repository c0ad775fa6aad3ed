package handlers

import (
	"net/http"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type adminDebtRequest struct {
	PersonName          string          `json:"person_name" binding:"required,max=200"`
	PhoneNumber         *string         `json:"phone_number" binding:"omitempty,max=50"`
	Amount              decimal.Decimal `json:"amount"`
	ExpectedPaymentDate *string         `json:"expected_payment_date"`
	Notes               *string         `json:"notes"`
}

func (r adminDebtRequest) input() (service.AdminDebtInput, error) {
	in := service.AdminDebtInput{
		PersonName:  r.PersonName,
		PhoneNumber: r.PhoneNumber,
		Amount:      r.Amount,
		Notes:       r.Notes,
	}
	if r.ExpectedPaymentDate != nil && *r.ExpectedPaymentDate != "" {
		d, err := time.Parse("2006-01-02", *r.ExpectedPaymentDate)
		if err != nil {
			return in, domain.NewValidationError("expected_payment_date", "must be YYYY-MM-DD")
		}
		in.ExpectedPaymentDate = &d
	}
	return in, nil
}

type DebtHandler struct {
	service *service.DebtService
}

func NewDebtHandler(service *service.DebtService) *DebtHandler {
	return &DebtHandler{service: service}
}

func (h *DebtHandler) ListUnpaidDebts(c *gin.Context) {
	debts, err := h.service.ListUnpaidDebts(c.Request.Context(), tenantOf(c).PharmacyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": debts, "total": len(debts)})
}

func (h *DebtHandler) ListAllUnpaidDebts(c *gin.Context) {
	pharmacyID, err := queryUUID(c, "pharmacy_id")
	if err != nil {
		respondError(c, err)
		return
	}
	scope := uuid.Nil
	if pharmacyID != nil {
		scope = *pharmacyID
	}
	debts, err := h.service.ListUnpaidDebts(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": debts, "total": len(debts)})
}

func (h *DebtHandler) MarkDebtPaid(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	receipt, err := h.service.MarkDebtPaid(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *DebtHandler) ListAdminDebts(c *gin.Context) {
	paid, err := queryBool(c, "paid")
	if err != nil {
		respondError(c, err)
		return
	}
	debts, err := h.service.ListAdminDebts(c.Request.Context(), domain.AdminDebtFilter{Paid: paid})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, debts)
}

func (h *DebtHandler) CreateAdminDebt(c *gin.Context) {
	var body adminDebtRequest
	if !bindJSON(c, &body) {
		return
	}
	in, err := body.input()
	if err != nil {
		respondError(c, err)
		return
	}
	debt, err := h.service.CreateAdminDebt(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, debt)
}

func (h *DebtHandler) UpdateAdminDebt(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var body adminDebtRequest
	if !bindJSON(c, &body) {
		return
	}
	in, err := body.input()
	if err != nil {
		respondError(c, err)
		return
	}
	debt, err := h.service.UpdateAdminDebt(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, debt)
}

func (h *DebtHandler) ToggleAdminDebtPaid(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	debt, err := h.service.ToggleAdminDebtPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, debt)
}

func (h *DebtHandler) DeleteAdminDebt(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.service.DeleteAdminDebt(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
