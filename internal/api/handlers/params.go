package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/api/middleware"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func tenantOf(c *gin.Context) domain.TenantContext {
	tenant, _ := middleware.TenantFrom(c)
	return tenant
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "must be a uuid")
	}
	return id, nil
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be a uuid")
	}
	return &id, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be true or false")
	}
	return &v, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates (midnight UTC).
func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(name, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}

func parseReceiptFilter(c *gin.Context, pharmacyID uuid.UUID) (domain.ReceiptFilter, error) {
	filter := domain.ReceiptFilter{PharmacyID: pharmacyID}

	if raw := strings.TrimSpace(c.Query("payment_method")); raw != "" {
		method, ok := domain.ParsePaymentMethod(raw)
		if !ok {
			return filter, domain.NewValidationError("payment_method", "unsupported payment method")
		}
		filter.PaymentMethod = &method
	}

	var err error
	if filter.StaffID, err = queryUUID(c, "staff_id"); err != nil {
		return filter, err
	}
	if filter.From, err = queryTime(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return filter, err
	}
	unpaid, err := queryBool(c, "unpaid_debt")
	if err != nil {
		return filter, err
	}
	filter.UnpaidDebtOnly = unpaid != nil && *unpaid
	if filter.Page, err = queryInt(c, "page", 1); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt(c, "page_size", 50); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseAnalyticsFilter(c *gin.Context, pharmacyID uuid.UUID) (domain.AnalyticsFilter, error) {
	filter := domain.AnalyticsFilter{PharmacyID: pharmacyID}
	var err error
	if filter.Year, err = queryInt(c, "year", 0); err != nil {
		return filter, err
	}
	if filter.Month, err = queryInt(c, "month", 0); err != nil {
		return filter, err
	}
	if filter.Month < 0 || filter.Month > 12 {
		return filter, domain.NewValidationError("month", "must be between 1 and 12")
	}
	return filter, nil
}
