package handlers

import (
	"net/http"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/gin-gonic/gin"
)

type pharmacyRequest struct {
	Name    string  `json:"name" binding:"required,max=200"`
	Address *string `json:"address"`
	Phone   *string `json:"phone" binding:"omitempty,max=50"`
	Email   *string `json:"email" binding:"omitempty,email"`
}

type staffRequest struct {
	FullName string `json:"full_name" binding:"required,max=200"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"omitempty,oneof=admin staff"`
}

type PharmacyHandler struct {
	service *service.PharmacyService
}

func NewPharmacyHandler(service *service.PharmacyService) *PharmacyHandler {
	return &PharmacyHandler{service: service}
}

func (h *PharmacyHandler) ListPharmacies(c *gin.Context) {
	list, err := h.service.ListPharmacies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PharmacyHandler) GetPharmacy(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := h.service.GetPharmacy(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PharmacyHandler) CreatePharmacy(c *gin.Context) {
	var body pharmacyRequest
	if !bindJSON(c, &body) {
		return
	}
	p, err := h.service.CreatePharmacy(c.Request.Context(), service.PharmacyInput{
		Name:    body.Name,
		Address: body.Address,
		Phone:   body.Phone,
		Email:   body.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PharmacyHandler) AddStaff(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var body staffRequest
	if !bindJSON(c, &body) {
		return
	}
	member, err := h.service.AddStaff(c.Request.Context(), id, service.StaffInput{
		FullName: body.FullName,
		Email:    body.Email,
		Role:     domain.Role(body.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}
