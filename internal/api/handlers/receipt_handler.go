package handlers

import (
	"net/http"

	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReceiptHandler struct {
	service *service.ReceiptService
}

func NewReceiptHandler(service *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	h.list(c, tenantOf(c).PharmacyID)
}

// ListAllReceipts is the admin view; pharmacy_id narrows it to one store.
func (h *ReceiptHandler) ListAllReceipts(c *gin.Context) {
	pharmacyID, err := queryUUID(c, "pharmacy_id")
	if err != nil {
		respondError(c, err)
		return
	}
	scope := uuid.Nil
	if pharmacyID != nil {
		scope = *pharmacyID
	}
	h.list(c, scope)
}

func (h *ReceiptHandler) list(c *gin.Context, pharmacyID uuid.UUID) {
	filter, err := parseReceiptFilter(c, pharmacyID)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.service.ListReceipts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	receipt, err := h.service.GetReceipt(c.Request.Context(), tenantOf(c).PharmacyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
