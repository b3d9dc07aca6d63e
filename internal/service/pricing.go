package service

import "time"

// QuotePriceCents prices an interval at the location's hourly rate, rounding
// the duration up to whole hours. Any started hour is billed in full; this
// rounding policy is intentional and matches what the rest of the system
// assumes, so keep it in lockstep with anything that re-derives a price.
func QuotePriceCents(start, end time.Time, hourlyRateCents int) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	hours := int(d.Hours())
	if d.Minutes() > float64(hours*60) {
		hours++
	}
	if hours == 0 {
		hours = 1
	}
	return hours * hourlyRateCents
}
