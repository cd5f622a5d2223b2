package models

import "strings"

// Intent is what the caller is trying to do on a turn.
type Intent string

const (
	IntentBookAppointment   Intent = "book_appointment"
	IntentCheckAvailability Intent = "check_availability"
	IntentAskHours          Intent = "ask_hours"
	IntentAskServices       Intent = "ask_services"
	IntentAskPrices         Intent = "ask_prices"
	IntentAskLocation       Intent = "ask_location"
	IntentCancelAppointment Intent = "cancel_appointment"
	IntentOther             Intent = "other"
)

// AllIntents lists every intent the classifier may return.
var AllIntents = []Intent{
	IntentBookAppointment, IntentCheckAvailability, IntentAskHours, IntentAskServices,
	IntentAskPrices, IntentAskLocation, IntentCancelAppointment, IntentOther,
}

// ParseIntent maps a label onto an Intent.
func ParseIntent(label string) (Intent, bool) {
	l := Intent(strings.ToLower(strings.TrimSpace(label)))
	for _, i := range AllIntents {
		if i == l {
			return i, true
		}
	}
	return IntentOther, false
}

// IsInfo reports whether the intent is a shop-information question.
func (i Intent) IsInfo() bool {
	switch i {
	case IntentAskHours, IntentAskServices, IntentAskPrices, IntentAskLocation:
		return true
	}
	return false
}

// ExtractedFields are the structured values pulled from one utterance.
type ExtractedFields struct {
	Date         string `json:"preferred_date,omitempty"`
	Time         string `json:"preferred_time,omitempty"`
	Service      string `json:"service_type,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

// HasBookingInfo reports whether any booking field was extracted.
func (x ExtractedFields) HasBookingInfo() bool {
	return strings.TrimSpace(x.Date) != "" || strings.TrimSpace(x.Time) != "" ||
		strings.TrimSpace(x.Service) != "" || strings.TrimSpace(x.CustomerName) != ""
}

// AIRequest is the payload of the browser demo endpoint.
type AIRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// AIResponse is what the browser demo endpoint returns.
type AIResponse struct {
	Response       string               `json:"response"`
	NextState      ConversationState    `json:"next_state"`
	SessionID      string               `json:"session_id"`
	BookingDetails *BookingConfirmation `json:"booking_details,omitempty"`
	SSML           string               `json:"ssml,omitempty"`
}
