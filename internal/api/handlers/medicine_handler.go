package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type medicineRequest struct {
	Name              string          `json:"name" binding:"required,max=200"`
	Category          *string         `json:"category" binding:"omitempty,max=100"`
	Description       *string         `json:"description"`
	BuyingPrice       decimal.Decimal `json:"buying_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	StockQuantity     int             `json:"stock_quantity" binding:"gte=0"`
	LowStockThreshold int             `json:"low_stock_threshold" binding:"gte=0"`
	ExpiryDate        *string         `json:"expiry_date"`
}

func (r medicineRequest) input() (service.MedicineInput, error) {
	in := service.MedicineInput{
		Name:              r.Name,
		Category:          r.Category,
		Description:       r.Description,
		BuyingPrice:       r.BuyingPrice,
		SellingPrice:      r.SellingPrice,
		StockQuantity:     r.StockQuantity,
		LowStockThreshold: r.LowStockThreshold,
	}
	if r.ExpiryDate != nil && *r.ExpiryDate != "" {
		d, err := time.Parse("2006-01-02", *r.ExpiryDate)
		if err != nil {
			return in, domain.NewValidationError("expiry_date", "must be YYYY-MM-DD")
		}
		in.ExpiryDate = &d
	}
	return in, nil
}

type restockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

type MedicineHandler struct {
	service *service.MedicineService
}

func NewMedicineHandler(service *service.MedicineService) *MedicineHandler {
	return &MedicineHandler{service: service}
}

func (h *MedicineHandler) ListMedicines(c *gin.Context) {
	h.list(c, tenantOf(c).PharmacyID)
}

// ListAllMedicines is the admin catalog view; pharmacy_id narrows it to
// one store.
func (h *MedicineHandler) ListAllMedicines(c *gin.Context) {
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

func (h *MedicineHandler) list(c *gin.Context, pharmacyID uuid.UUID) {
	lowStock, err := queryBool(c, "low_stock")
	if err != nil {
		respondError(c, err)
		return
	}
	filter := domain.MedicineFilter{
		PharmacyID:   pharmacyID,
		Search:       strings.TrimSpace(c.Query("search")),
		Category:     strings.TrimSpace(c.Query("category")),
		LowStockOnly: lowStock != nil && *lowStock,
	}
	medicines, err := h.service.ListMedicines(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, medicines)
}

func (h *MedicineHandler) GetMedicine(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	m, err := h.service.GetMedicine(c.Request.Context(), tenantOf(c).PharmacyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MedicineHandler) CreateMedicine(c *gin.Context) {
	var body medicineRequest
	if !bindJSON(c, &body) {
		return
	}
	in, err := body.input()
	if err != nil {
		respondError(c, err)
		return
	}
	m, err := h.service.CreateMedicine(c.Request.Context(), tenantOf(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// UpdateMedicine ignores stock_quantity; use the restock route.
func (h *MedicineHandler) UpdateMedicine(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var body medicineRequest
	if !bindJSON(c, &body) {
		return
	}
	in, err := body.input()
	if err != nil {
		respondError(c, err)
		return
	}
	m, err := h.service.UpdateMedicine(c.Request.Context(), tenantOf(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MedicineHandler) DeleteMedicine(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.service.DeleteMedicine(c.Request.Context(), tenantOf(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MedicineHandler) Restock(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var body restockRequest
	if !bindJSON(c, &body) {
		return
	}
	m, err := h.service.Restock(c.Request.Context(), tenantOf(c), id, body.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
