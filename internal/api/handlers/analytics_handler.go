package handlers

import (
	"net/http"

	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnalyticsHandler struct {
	service *service.AnalyticsService
}

func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	h.dashboard(c, tenantOf(c).PharmacyID)
}

func (h *AnalyticsHandler) GetAdminDashboard(c *gin.Context) {
	scope, ok := h.adminScope(c)
	if !ok {
		return
	}
	h.dashboard(c, scope)
}

func (h *AnalyticsHandler) GetProfitAnalytics(c *gin.Context) {
	scope, ok := h.adminScope(c)
	if !ok {
		return
	}
	filter, err := parseAnalyticsFilter(c, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := h.service.GetProfitAnalytics(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *AnalyticsHandler) dashboard(c *gin.Context, pharmacyID uuid.UUID) {
	filter, err := parseAnalyticsFilter(c, pharmacyID)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := h.service.GetDashboard(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *AnalyticsHandler) adminScope(c *gin.Context) (uuid.UUID, bool) {
	pharmacyID, err := queryUUID(c, "pharmacy_id")
	if err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}
	if pharmacyID == nil {
		return uuid.Nil, true
	}
	return *pharmacyID, true
}
