package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service *service.AlertService
}

func NewNotificationHandler(service *service.AlertService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	h.list(c, tenantOf(c).PharmacyID)
}

func (h *NotificationHandler) ListAllNotifications(c *gin.Context) {
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

func (h *NotificationHandler) list(c *gin.Context, pharmacyID uuid.UUID) {
	filter := domain.NotificationFilter{PharmacyID: pharmacyID}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		t := domain.NotificationType(strings.ToLower(raw))
		if !t.Valid() {
			respondError(c, domain.NewValidationError("type", "must be low_stock or expiring"))
			return
		}
		filter.Type = &t
	}
	confirmed, err := queryBool(c, "confirmed")
	if err != nil {
		respondError(c, err)
		return
	}
	filter.Confirmed = confirmed

	list, err := h.service.ListNotifications(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) ConfirmNotification(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := h.service.ConfirmNotification(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// RunAlertScan scans the caller's pharmacy.
func (h *NotificationHandler) RunAlertScan(c *gin.Context) {
	res, err := h.service.RunAlertScan(c.Request.Context(), tenantOf(c).PharmacyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RunAdminAlertScan scans one pharmacy when pharmacy_id is given, else all.
func (h *NotificationHandler) RunAdminAlertScan(c *gin.Context) {
	pharmacyID, err := queryUUID(c, "pharmacy_id")
	if err != nil {
		respondError(c, err)
		return
	}
	if pharmacyID != nil {
		res, err := h.service.RunAlertScan(c.Request.Context(), *pharmacyID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, []*domain.AlertScanResult{res})
		return
	}

	results, err := h.service.ScanAll(c.Request.Context())
	if err != nil {
		// Partial results are still useful to the caller.
		c.JSON(http.StatusMultiStatus, gin.H{"results": results, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}
