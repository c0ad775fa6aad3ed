package alerts

import "time"

// daysUntil counts whole calendar days from now to target in loc.
// Expiry dates are stored without a zone, so target is read as a date.
func daysUntil(target, now time.Time, loc *time.Location) int {
	y, m, d := target.Date()
	targetDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	ny, nm, nd := now.In(loc).Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	return int(targetDay.Sub(today).Hours() / 24)
}
