package alerts

import (
	"fmt"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/domain"
)

// Evaluator decides which alerts a medicine raises on a given day.
type Evaluator struct {
	expiryWindowDays int
	location         *time.Location
}

// NewEvaluator creates an evaluator. Days until expiry are counted on
// calendar dates in loc.
func NewEvaluator(expiryWindowDays int, loc *time.Location) *Evaluator {
	if expiryWindowDays <= 0 {
		expiryWindowDays = DefaultExpiryWindowDays
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{expiryWindowDays: expiryWindowDays, location: loc}
}

// Evaluate returns low_stock when stock is at or below the threshold and
// expiring when the expiry date is 0 to window days away. Expired stock
// (negative days) raises nothing.
func (e *Evaluator) Evaluate(m *domain.Medicine, now time.Time) []Finding {
	var findings []Finding

	if m.StockQuantity <= m.LowStockThreshold {
		findings = append(findings, Finding{
			Type: domain.NotificationLowStock,
			Message: fmt.Sprintf("%s is running low: %d left (threshold %d)",
				m.Name, m.StockQuantity, m.LowStockThreshold),
		})
	}

	if m.ExpiryDate != nil {
		days := daysUntil(*m.ExpiryDate, now, e.location)
		if days >= 0 && days <= e.expiryWindowDays {
			findings = append(findings, Finding{
				Type:          domain.NotificationExpiring,
				Message:       expiryMessage(m.Name, days),
				DaysRemaining: &days,
			})
		}
	}

	return findings
}

func expiryMessage(name string, days int) string {
	switch days {
	case 0:
		return fmt.Sprintf("%s expires today", name)
	case 1:
		return fmt.Sprintf("%s expires tomorrow", name)
	default:
		return fmt.Sprintf("%s expires in %d days", name, days)
	}
}
