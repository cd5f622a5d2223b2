package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotUnavailable means the requested time is taken by another booking.
	ErrSlotUnavailable = errors.New("requested slot is no longer available")
	// ErrOutsideHours means the shop is closed for some or all of the requested interval.
	ErrOutsideHours = errors.New("requested time is outside opening hours")
	// ErrSlotInPast means the requested start has already passed.
	ErrSlotInPast = errors.New("requested time has already passed")
	// ErrCalendarUnavailable means the calendar backend could not be reached.
	ErrCalendarUnavailable = errors.New("calendar backend unavailable")
)

// BookingError reports a request the engine refuses to process.
type BookingError struct {
	Code    string
	Message string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewBookingError(code, msg string) error {
	return &BookingError{
		Code:    code,
		Message: msg,
	}
}
