package alerts

import "github.com/andresuchdata/pharmadesk/internal/domain"

// Finding is one alert condition detected for a medicine.
type Finding struct {
	Type          domain.NotificationType
	Message       string
	DaysRemaining *int
}

const DefaultExpiryWindowDays = 20
