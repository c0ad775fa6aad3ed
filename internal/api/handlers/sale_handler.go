package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const idempotencyHeader = "Idempotency-Key"

type saleItemRequest struct {
	MedicineID string `json:"medicine_id" binding:"required,uuid"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
}

type saleRequest struct {
	RequestToken  string            `json:"request_token" binding:"omitempty,max=128"`
	CustomerName  *string           `json:"customer_name" binding:"omitempty,max=200"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	Items         []saleItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SaleHandler struct {
	service *service.SaleCoordinator
}

func NewSaleHandler(service *service.SaleCoordinator) *SaleHandler {
	return &SaleHandler{service: service}
}

// RecordSale answers 201 for a new receipt and 200 when the request token
// was already recorded.
func (h *SaleHandler) RecordSale(c *gin.Context) {
	var body saleRequest
	if !bindJSON(c, &body) {
		return
	}

	method, ok := domain.ParsePaymentMethod(body.PaymentMethod)
	if !ok {
		respondError(c, domain.NewValidationError("payment_method", "unsupported payment method"))
		return
	}

	req := domain.SaleRequest{
		Token:         strings.TrimSpace(body.RequestToken),
		CustomerName:  body.CustomerName,
		PaymentMethod: method,
		Items:         make([]domain.SaleLine, 0, len(body.Items)),
	}
	if req.Token == "" {
		req.Token = strings.TrimSpace(c.GetHeader(idempotencyHeader))
	}
	for _, item := range body.Items {
		req.Items = append(req.Items, domain.SaleLine{
			MedicineID: uuid.MustParse(item.MedicineID),
			Quantity:   item.Quantity,
		})
	}

	result, err := h.service.RecordSale(c.Request.Context(), tenantOf(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}
