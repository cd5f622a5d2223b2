package conversation

import "receptionist/models"

// flow is the sub-handler chosen for a turn.
type flow int

const (
	flowBooking flow = iota
	flowAvailability
	flowInfo
	flowCancel
	flowClarify
)

// route applies the transition precedence. Booking context, once present,
// wins over whatever the classifier says about a later utterance.
func route(state models.ConversationState, intent models.Intent, fields models.ExtractedFields, appt models.AppointmentDetails) flow {
	if state == models.StateBookingAppointment || fields.HasBookingInfo() || !appt.IsEmpty() {
		return flowBooking
	}
	if state == models.StateCheckingAvailability && intent != models.IntentBookAppointment {
		return flowAvailability
	}
	switch {
	case intent == models.IntentCheckAvailability:
		return flowAvailability
	case intent == models.IntentBookAppointment:
		return flowBooking
	case intent.IsInfo():
		return flowInfo
	case intent == models.IntentCancelAppointment:
		return flowCancel
	}
	return flowClarify
}

// clarifyState is the state after an unclassifiable turn.
func clarifyState(state models.ConversationState) models.ConversationState {
	if state == models.StateGreeting {
		return models.StateUnderstandingRequest
	}
	return state
}
