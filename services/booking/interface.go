package booking

import (
	"context"

	"receptionist/models"
)

// Scheduler is what the conversation core needs from the availability engine.
type Scheduler interface {
	// DayAvailability lists the free slots of one "YYYY-MM-DD" day.
	DayAvailability(ctx context.Context, date string) models.DayAvailability
	// FindNextAvailable suggests slots across days starting today, at most two per day.
	FindNextAvailable(ctx context.Context, daysToCheck, numSlots int) []models.TimeSlot
	// Commit re-validates the exact slot and books it.
	Commit(ctx context.Context, req models.BookingRequest) (*models.BookingConfirmation, error)
	// FindUpcomingByPhone returns the caller's next appointment, if any.
	FindUpcomingByPhone(ctx context.Context, phone string, days int) (*models.CalendarEvent, error)
	// CancelAppointment deletes a booked event.
	CancelAppointment(ctx context.Context, eventID string) error
}

var _ Scheduler = (*Engine)(nil)
