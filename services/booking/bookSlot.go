package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"receptionist/models"
	"receptionist/services/calendar"

	"go.uber.org/zap"
)

// Commit books req after re-reading the calendar for the exact interval.
// A slot listed as free earlier in the call is not trusted.
func (e *Engine) Commit(ctx context.Context, req models.BookingRequest) (*models.BookingConfirmation, error) {
	if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.Service) == "" {
		return nil, NewBookingError("incomplete", "customer name and service are required")
	}

	loc := e.shop.Loc()
	start, err := ParseDateTime(req.Date, req.Time, loc)
	if err != nil {
		return nil, NewBookingError("invalid_datetime", fmt.Sprintf("cannot read %q %q", req.Date, req.Time))
	}
	duration := req.Duration
	if duration <= 0 {
		duration = e.shop.Duration(req.Service)
	}
	end := start.Add(duration)

	if err := e.withinOpeningHours(start, end); err != nil {
		return nil, err
	}

	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	busy, err := e.busyBetween(ctx, start, end)
	if err != nil {
		e.logger.Error("availability re-check failed", zap.Time("start", start), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	if overlapsAny(busy, start, end) {
		e.logger.Info("slot taken before commit", zap.Time("start", start), zap.String("service", req.Service))
		return nil, ErrSlotUnavailable
	}

	createCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	created, err := e.cal.CreateEvent(createCtx, models.CalendarEvent{
		Summary:     fmt.Sprintf("%s - %s", req.Service, req.CustomerName),
		Description: eventDescription(req),
		Start:       start,
		End:         end,
	})
	if err != nil {
		e.logger.Error("failed to create calendar event", zap.Time("start", start), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}

	e.logger.Info("booking committed",
		zap.String("eventID", created.ID),
		zap.String("service", req.Service),
		zap.Time("start", start))

	return &models.BookingConfirmation{
		EventID:           created.ID,
		CustomerName:      req.CustomerName,
		Phone:             req.Phone,
		Service:           req.Service,
		Date:              req.Date,
		Time:              req.Time,
		Start:             start,
		End:               end,
		FormattedDateTime: start.Format(ConfirmationLayout),
		CalendarLink:      created.Link,
	}, nil
}

// withinOpeningHours accepts only starts on the slot grid, which is anchored
// at opening time.
func (e *Engine) withinOpeningHours(start, end time.Time) error {
	if !start.After(e.now()) {
		return ErrSlotInPast
	}
	openMin, closeMin, open := e.shop.Hours.For(start.Weekday())
	if !open {
		return ErrOutsideHours
	}
	day := startOfDay(start)
	opening := time.Date(day.Year(), day.Month(), day.Day(), 0, openMin, 0, 0, day.Location())
	closing := time.Date(day.Year(), day.Month(), day.Day(), 0, closeMin, 0, 0, day.Location())
	if start.Before(opening) || end.After(closing) {
		return ErrOutsideHours
	}
	if e.granularity > 0 && start.Sub(opening)%e.granularity != 0 {
		return NewBookingError("off_grid", fmt.Sprintf("%s is not on the %s booking grid", start.Format(ClockLayout), e.granularity))
	}
	return nil
}

func eventDescription(req models.BookingRequest) string {
	phone := req.Phone
	if phone == "" {
		phone = "N/A"
	}
	return fmt.Sprintf("Customer: %s\nPhone: %s\nService: %s\nBooked via: AI receptionist",
		req.CustomerName, phone, req.Service)
}

// UpcomingAppointments lists booked events from now until days ahead.
func (e *Engine) UpcomingAppointments(ctx context.Context, days int) ([]models.Appointment, error) {
	if days <= 0 {
		days = 7
	}
	now := e.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	events, err := e.cal.ListEvents(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}

	appointments := make([]models.Appointment, 0, len(events))
	for _, ev := range events {
		appointments = append(appointments, models.Appointment{
			EventID:       ev.ID,
			Summary:       ev.Summary,
			Description:   ev.Description,
			StartTime:     ev.Start.Format(time.RFC3339),
			FormattedTime: ev.Start.In(e.shop.Loc()).Format(ConfirmationLayout),
		})
	}
	return appointments, nil
}

// FindUpcomingByPhone matches the phone number stored in event descriptions.
// It returns nil without error when the caller has no upcoming appointment.
func (e *Engine) FindUpcomingByPhone(ctx context.Context, phone string, days int) (*models.CalendarEvent, error) {
	want := digitsOnly(phone)
	if want == "" {
		return nil, nil
	}
	now := e.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	events, err := e.cal.ListEvents(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	for _, ev := range events {
		if strings.Contains(digitsOnly(ev.Description), want) {
			found := ev
			return &found, nil
		}
	}
	return nil, nil
}

// CancelAppointment deletes an event. Unknown IDs are reported as calendar.ErrEventNotFound.
func (e *Engine) CancelAppointment(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err := e.cal.DeleteEvent(ctx, eventID)
	switch {
	case err == nil:
		e.logger.Info("appointment cancelled", zap.String("eventID", eventID))
		return nil
	case errors.Is(err, calendar.ErrEventNotFound):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
}
