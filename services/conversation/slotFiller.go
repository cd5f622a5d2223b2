package conversation

import (
	"context"
	"fmt"
	"strings"

	"receptionist/models"
)

// nextMissing returns the first unknown field in asking order.
func nextMissing(appt models.AppointmentDetails) (models.BookingField, bool) {
	missing := appt.Missing()
	if len(missing) == 0 {
		return "", false
	}
	return missing[0], true
}

// askFor produces the single question for field. Date and time questions
// carry real availability when the calendar can be read.
func (a *Agent) askFor(ctx context.Context, field models.BookingField, appt models.AppointmentDetails, out *turnResult) {
	out.state = models.StateBookingAppointment

	switch field {
	case models.FieldName:
		out.reply = "I'd be happy to book an appointment for you. May I have your name please?"

	case models.FieldService:
		out.reply = fmt.Sprintf("What service would you like? We offer %s.", joinOr(a.shop.ServiceNames()))

	case models.FieldDate:
		slots := a.scheduler.FindNextAvailable(ctx, suggestionDays, suggestionSlots)
		if len(slots) == 0 {
			out.reply = "Which date would you prefer for your appointment?"
			return
		}
		out.reply = fmt.Sprintf("Which date works for you? We have availability on %s.", joinAnd(distinctDates(slots)))

	case models.FieldTime:
		a.askForTime(ctx, appt, out)
	}
}

// askForTime lists the chosen day's free slots. A day that is closed or full
// clears the date so the next question is about another day.
func (a *Agent) askForTime(ctx context.Context, appt models.AppointmentDetails, out *turnResult) {
	day := a.scheduler.DayAvailability(ctx, appt.Date)
	out.checkedDate = appt.Date

	switch day.Status {
	case models.AvailabilityOpen:
		out.slots = day.Slots
		out.reply = fmt.Sprintf("What time works best? We have: %s.", strings.Join(slotTimes(day.Slots, timesToList), ", "))

	case models.AvailabilityClosed:
		out.appointment.Date = ""
		out.reply = fmt.Sprintf("Sorry, we're closed on %s. Which other date works for you?", weekdayName(appt.Date, a.shop))

	case models.AvailabilityFullyBooked:
		out.appointment.Date = ""
		out.reply = "Sorry, we're fully booked that day. " + a.alternatives(ctx, "Which other date works for you?")

	default:
		out.reply = "What time would you prefer? I'll check if it's available."
	}
}

func joinOr(items []string) string {
	return joinWith(items, "or")
}

func joinAnd(items []string) string {
	return joinWith(items, "and")
}

func joinWith(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conj + " " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", " + conj + " " + items[len(items)-1]
}

func distinctDates(slots []models.TimeSlot) []string {
	seen := map[string]bool{}
	var dates []string
	for _, s := range slots {
		if !seen[s.FormattedDate] {
			seen[s.FormattedDate] = true
			dates = append(dates, s.FormattedDate)
		}
	}
	return dates
}

func slotTimes(slots []models.TimeSlot, n int) []string {
	if len(slots) > n {
		slots = slots[:n]
	}
	times := make([]string, 0, len(slots))
	for _, s := range slots {
		times = append(times, s.FormattedTime)
	}
	return times
}
