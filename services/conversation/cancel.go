package conversation

import (
	"context"
	"errors"
	"fmt"

	"receptionist/models"
	"receptionist/services/booking"
	"receptionist/services/calendar"

	"go.uber.org/zap"
)

const cancelLookaheadDays = 30

// cancelFlow removes the caller's next appointment: the one booked on this
// call first, otherwise the next event carrying the caller's number.
func (a *Agent) cancelFlow(ctx context.Context, sess *models.Session, out *turnResult) {
	out.appointment = sess.Appointment
	out.state = models.StateUnderstandingRequest

	eventID, when := "", ""
	if sess.BookingConfirmed && sess.Booking != nil && sess.Booking.EventID != "" {
		eventID, when = sess.Booking.EventID, sess.Booking.FormattedDateTime
	} else {
		ev, err := a.scheduler.FindUpcomingByPhone(ctx, sess.CallerNumber, cancelLookaheadDays)
		if err != nil {
			a.logger.Error("appointment lookup failed", zap.String("sessionID", sess.ID), zap.Error(err))
			out.state = sess.CurrentState()
			out.reply = "I'm having trouble reaching our calendar right now. Please try again in a moment."
			return
		}
		if ev == nil {
			out.reply = "I couldn't find an upcoming appointment for this phone number. Is there anything else I can help you with?"
			return
		}
		eventID, when = ev.ID, ev.Start.In(a.shop.Loc()).Format(booking.ConfirmationLayout)
	}

	err := a.scheduler.CancelAppointment(ctx, eventID)
	switch {
	case err == nil || errors.Is(err, calendar.ErrEventNotFound):
		out.cancelled = true
		out.reply = fmt.Sprintf("Your appointment on %s has been cancelled. Is there anything else I can help you with?", when)
	default:
		a.logger.Error("appointment cancellation failed", zap.String("eventID", eventID), zap.Error(err))
		out.state = sess.CurrentState()
		out.reply = "I'm sorry, I couldn't cancel your appointment right now. Please try again in a moment."
	}
}
