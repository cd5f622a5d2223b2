package models

import "time"

// TimeSlot is a bookable, fixed-duration interval free of existing bookings.
type TimeSlot struct {
	Start         time.Time `json:"datetime"`
	End           time.Time `json:"end_datetime"`
	Date          string    `json:"date"`           // e.g., "2025-02-25"
	StartTime     string    `json:"start_time"`     // "14:30"
	EndTime       string    `json:"end_time"`       // "15:00"
	FormattedTime string    `json:"formatted_time"` // "02:30 PM"
	FormattedDate string    `json:"formatted_date"` // "Tuesday, February 25"
}

// BusyInterval is a range during which the shop cannot take a booking.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps uses half-open interval semantics: touching intervals do not overlap.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// AvailabilityStatus separates "no slots" from "we could not tell".
type AvailabilityStatus string

const (
	AvailabilityOpen        AvailabilityStatus = "open"
	AvailabilityClosed      AvailabilityStatus = "closed"
	AvailabilityFullyBooked AvailabilityStatus = "fully_booked"
	AvailabilityUnknown     AvailabilityStatus = "unknown"
)

// DayAvailability is the result of checking one calendar day.
type DayAvailability struct {
	Date   string             `json:"date"`
	Status AvailabilityStatus `json:"status"`
	Slots  []TimeSlot         `json:"slots"`
}
