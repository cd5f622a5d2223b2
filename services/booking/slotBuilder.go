package booking

import (
	"time"

	"receptionist/models"
)

const (
	DefaultSlotDuration = 30 * time.Minute
	DefaultGranularity  = 15 * time.Minute
)

// ComputeSlots walks the opening window of date in granularity steps and keeps
// every slotDuration-long candidate that fits before closing and does not
// overlap a busy interval. The result is ordered by start time.
func ComputeSlots(date time.Time, hours models.BusinessHours, busy []models.BusyInterval, slotDuration, granularity time.Duration) []models.TimeSlot {
	if slotDuration <= 0 {
		slotDuration = DefaultSlotDuration
	}
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	openMin, closeMin, ok := hours.For(date.Weekday())
	if !ok {
		return nil
	}

	y, m, d := date.Date()
	loc := date.Location()
	opening := time.Date(y, m, d, 0, openMin, 0, 0, loc)
	closing := time.Date(y, m, d, 0, closeMin, 0, 0, loc)

	var slots []models.TimeSlot
	for start := opening; !start.Add(slotDuration).After(closing); start = start.Add(granularity) {
		end := start.Add(slotDuration)
		if overlapsAny(busy, start, end) {
			continue
		}
		slots = append(slots, newTimeSlot(start, end))
	}
	return slots
}

func overlapsAny(busy []models.BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func newTimeSlot(start, end time.Time) models.TimeSlot {
	return models.TimeSlot{
		Start:         start,
		End:           end,
		Date:          start.Format(DateLayout),
		StartTime:     start.Format(ClockLayout),
		EndTime:       end.Format(ClockLayout),
		FormattedTime: start.Format("03:04 PM"),
		FormattedDate: start.Format("Monday, January 02"),
	}
}
