package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"receptionist/models"
	"receptionist/services/booking"

	"go.uber.org/zap"
)

// bookingFlow merges the new fields, asks for the first missing one, and
// commits once all four are known.
func (a *Agent) bookingFlow(ctx context.Context, sess *models.Session, fields models.ExtractedFields, out *turnResult) {
	appt := sess.Appointment.Merge(fields)
	out.appointment = appt

	if field, missing := nextMissing(appt); missing {
		a.askFor(ctx, field, appt, out)
		return
	}
	a.commit(ctx, sess, appt, out)
}

func (a *Agent) commit(ctx context.Context, sess *models.Session, appt models.AppointmentDetails, out *turnResult) {
	conf, err := a.scheduler.Commit(ctx, models.BookingRequest{
		CustomerName: appt.CustomerName,
		Phone:        sess.CallerNumber,
		Service:      appt.Service,
		Date:         appt.Date,
		Time:         appt.Time,
		Duration:     a.shop.Duration(appt.Service),
	})

	var bookingErr *booking.BookingError
	switch {
	case err == nil:
		out.booking = conf
		out.state = models.StateEndingCall
		out.reply = fmt.Sprintf("Perfect! I've booked your %s appointment for %s. You'll receive a confirmation. Thank you for calling %s!",
			appt.Service, conf.FormattedDateTime, a.shop.Name)

	case errors.Is(err, booking.ErrSlotUnavailable):
		a.logger.Info("requested slot unavailable at commit",
			zap.String("sessionID", sess.ID), zap.String("date", appt.Date), zap.String("time", appt.Time))
		a.conflict(ctx, appt, fmt.Sprintf("I'm sorry, %s on %s is no longer available. ",
			readableTime(appt.Time), readableDate(appt.Date, a.shop)), out)

	case errors.Is(err, booking.ErrOutsideHours):
		a.conflict(ctx, appt, fmt.Sprintf("I'm sorry, we're closed at %s on %s. ",
			readableTime(appt.Time), readableDate(appt.Date, a.shop)), out)

	case errors.Is(err, booking.ErrSlotInPast):
		a.conflict(ctx, appt, fmt.Sprintf("I'm sorry, %s on %s has already passed. ",
			readableTime(appt.Time), readableDate(appt.Date, a.shop)), out)

	case errors.As(err, &bookingErr):
		// Only the wall time can be malformed or off the grid after normalization; ask again.
		out.appointment.Time = ""
		out.state = models.StateBookingAppointment
		out.reply = "Sorry, I didn't catch a valid time. We book on the hour and every 15 minutes. What time works best for you?"

	default:
		a.logger.Error("booking commit failed", zap.String("sessionID", sess.ID), zap.Error(err))
		out.state = models.StateConfirmingDetails
		out.reply = fmt.Sprintf("I have a %s for %s on %s at %s, but I couldn't reach our booking calendar just now. Shall I try again?",
			appt.Service, appt.CustomerName, readableDate(appt.Date, a.shop), readableTime(appt.Time))
	}
}

// conflict reports a time that cannot be booked and offers what is free. The
// time is cleared so the caller is not offered the same slot again.
func (a *Agent) conflict(ctx context.Context, appt models.AppointmentDetails, prefix string, out *turnResult) {
	out.state = models.StateCheckingAvailability
	out.appointment.Time = ""

	day := a.scheduler.DayAvailability(ctx, appt.Date)
	out.checkedDate = appt.Date
	if day.Status == models.AvailabilityOpen {
		out.slots = day.Slots
		out.reply = prefix + fmt.Sprintf("That day we still have: %s. Which time would you like?",
			joinOr(slotTimes(day.Slots, timesToList)))
		return
	}
	out.appointment.Date = ""
	out.reply = prefix + a.alternatives(ctx, "Which of these works for you?")
}

func readableDate(date string, shop models.ShopConfig) string {
	d, err := booking.ParseDate(date, shop.Loc())
	if err != nil {
		return date
	}
	return d.Format("Monday, January 02")
}

func readableTime(clock string) string {
	t, err := time.Parse(booking.ClockLayout, clock)
	if err != nil {
		return clock
	}
	return t.Format("03:04 PM")
}

func weekdayName(date string, shop models.ShopConfig) string {
	d, err := booking.ParseDate(date, shop.Loc())
	if err != nil {
		return "that day"
	}
	return d.Weekday().String() + "s"
}
