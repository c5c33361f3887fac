package domain

import "time"

// RentalPeriod links a renter (by tax id) to an asset over a date range.
// A nil EndDate means the period is still open.
type RentalPeriod struct {
	ID            int64      `json:"id"`
	CustomerTaxID string     `json:"customer_tax_id"`
	AssetPlate    string     `json:"asset_plate"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// Covers reports whether day falls within [StartDate, EndDate], compared at
// calendar-day granularity.
func (p RentalPeriod) Covers(day time.Time) bool {
	d := truncateDay(day)
	if d.Before(truncateDay(p.StartDate)) {
		return false
	}
	return p.EndDate == nil || !d.After(truncateDay(*p.EndDate))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
