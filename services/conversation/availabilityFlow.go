package conversation

import (
	"context"
	"fmt"
	"strings"

	"receptionist/models"
)

// availabilityFlow answers "when are you free" questions. Empty results from
// an unreachable calendar get a neutral prompt, never "fully booked".
func (a *Agent) availabilityFlow(ctx context.Context, sess *models.Session, fields models.ExtractedFields, out *turnResult) {
	out.appointment = sess.Appointment

	if fields.Date == "" {
		out.state = models.StateCheckingAvailability
		slots := a.scheduler.FindNextAvailable(ctx, suggestionDays, suggestionSlots)
		if len(slots) == 0 {
			out.reply = "Let me check our availability. Which date are you interested in?"
			return
		}
		out.slots = slots
		out.reply = fmt.Sprintf("I can check availability for you. Our next available slots are: %s. Which date works for you?",
			strings.Join(slotDateTimes(slots), ", "))
		return
	}

	day := a.scheduler.DayAvailability(ctx, fields.Date)
	out.checkedDate = fields.Date

	switch day.Status {
	case models.AvailabilityOpen:
		out.slots = day.Slots
		out.appointment.Date = fields.Date
		out.state = models.StateBookingAppointment
		out.reply = fmt.Sprintf("For %s, we have availability at: %s. Would you like to book one of these times?",
			readableDate(fields.Date, a.shop), strings.Join(slotTimes(day.Slots, timesToList), ", "))

	case models.AvailabilityClosed:
		out.state = models.StateCheckingAvailability
		out.reply = fmt.Sprintf("Sorry, we're closed on %s. ", weekdayName(fields.Date, a.shop)) +
			a.alternatives(ctx, "Would any of these work?")

	case models.AvailabilityFullyBooked:
		out.state = models.StateCheckingAvailability
		out.reply = "Sorry, we're fully booked that day. " + a.alternatives(ctx, "Would any of these work?")

	default:
		out.state = models.StateCheckingAvailability
		out.reply = "I'm having trouble reaching our calendar right now. Which date and time would you like? I'll check it for you."
	}
}

// alternatives suggests slots on other days, followed by question.
func (a *Agent) alternatives(ctx context.Context, question string) string {
	slots := a.scheduler.FindNextAvailable(ctx, suggestionDays, suggestionSlots)
	if len(slots) == 0 {
		return "Which other date would you like me to check?"
	}
	return fmt.Sprintf("Our next available appointments are: %s. %s", strings.Join(slotDateTimes(slots), ", "), question)
}

func slotDateTimes(slots []models.TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.FormattedDate+" at "+s.FormattedTime)
	}
	return out
}
