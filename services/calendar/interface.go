package calendar

import (
	"context"
	"errors"
	"time"

	"receptionist/models"
)

// ErrNotConfigured is returned by backends that have no usable credentials.
var ErrNotConfigured = errors.New("calendar backend not configured")

// ErrEventNotFound is returned when deleting an unknown event.
var ErrEventNotFound = errors.New("calendar event not found")

// Backend is the shop calendar. Times are exchanged as instants in the shop's zone.
type Backend interface {
	// ListEvents returns events overlapping [from, to), ordered by start.
	ListEvents(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error)
	// CreateEvent stores ev and returns it with its backend ID and link.
	CreateEvent(ctx context.Context, ev models.CalendarEvent) (models.CalendarEvent, error)
	// DeleteEvent removes an event by ID.
	DeleteEvent(ctx context.Context, id string) error
}

// BusyIntervals converts events into the busy ranges used for slot computation.
func BusyIntervals(events []models.CalendarEvent) []models.BusyInterval {
	busy := make([]models.BusyInterval, 0, len(events))
	for _, ev := range events {
		busy = append(busy, models.BusyInterval{Start: ev.Start, End: ev.End})
	}
	return busy
}
