package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var registerOnce sync.Once

// RegisterValidation makes binding errors report json field names.
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindJSON decodes and validates the body, writing the error response
// itself when it fails.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make(map[string]string, len(ve))
			for _, fe := range ve {
				fields[fe.Field()] = fe.Tag()
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": fields})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// respondError maps domain errors onto HTTP responses. Unknown errors are
// logged and answered with a sanitized 500.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		stockErr      *domain.InsufficientStockError
		reconErr      *domain.ReconciliationRequiredError
	)
	_ = c.Error(err)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"fields": map[string]string{validationErr.Field: validationErr.Reason},
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":       stockErr.Error(),
			"code":        "insufficient_stock",
			"medicine_id": stockErr.MedicineID,
			"available":   stockErr.Available,
			"requested":   stockErr.Requested,
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTokenConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "token_conflict"})
	case errors.Is(err, domain.ErrMedicineInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "medicine_in_use"})
	case errors.Is(err, domain.ErrDebtAlreadySettled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "debt_already_settled"})
	case errors.Is(err, domain.ErrScanInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "scan_in_progress"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &reconErr):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("reconciliation required")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "the sale could not be cleanly rolled back; an operator has been alerted",
			"code":  "reconciliation_required",
		})
	case errors.Is(err, domain.ErrSaleAborted):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "the sale was not recorded, stock is unchanged; please retry",
			"code":  "sale_aborted",
		})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
