package models

import "time"

// MaxHistoryTurns bounds the conversation history kept on a session.
const MaxHistoryTurns = 10

// ConversationState is the single active state of a call.
type ConversationState string

const (
	StateGreeting             ConversationState = "greeting"
	StateUnderstandingRequest ConversationState = "understanding_request"
	StateBookingAppointment   ConversationState = "booking_appointment"
	StateCheckingAvailability ConversationState = "checking_availability"
	StateConfirmingDetails    ConversationState = "confirming_details"
	StateProvidingInfo        ConversationState = "providing_info"
	StateEndingCall           ConversationState = "ending_call"
)

// Valid reports whether s is one of the known states.
func (s ConversationState) Valid() bool {
	switch s {
	case StateGreeting, StateUnderstandingRequest, StateBookingAppointment,
		StateCheckingAvailability, StateConfirmingDetails, StateProvidingInfo, StateEndingCall:
		return true
	}
	return false
}

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single utterance in the conversation history.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Keys used in Session.Extracted.
const (
	ExtractedLanguage    = "detected_language"
	ExtractedCheckedDate = "checked_date"
)

// Session is the per-call conversation state kept in the session store.
type Session struct {
	ID               string               `json:"session_id"`
	CallSID          string               `json:"call_sid"`
	CallerNumber     string               `json:"caller_number"`
	CreatedAt        time.Time            `json:"created_at"`
	LastActivity     time.Time            `json:"last_activity"`
	EndedAt          *time.Time           `json:"ended_at,omitempty"`
	Revision         int64                `json:"revision"` // bumped by every applied turn
	State            ConversationState    `json:"conversation_state"`
	History          []Turn               `json:"conversation_history"`
	Appointment      AppointmentDetails   `json:"appointment_details"`
	Extracted        map[string]string    `json:"extracted,omitempty"`
	AvailableSlots   []TimeSlot           `json:"available_slots,omitempty"`
	BookingConfirmed bool                 `json:"booking_confirmed"`
	Booking          *BookingConfirmation `json:"booking_details,omitempty"`
}

// NewSession returns a session in the greeting state.
func NewSession(id, callSID, callerNumber string, now time.Time) *Session {
	return &Session{
		ID:           id,
		CallSID:      callSID,
		CallerNumber: callerNumber,
		CreatedAt:    now,
		LastActivity: now,
		State:        StateGreeting,
		History:      []Turn{},
		Extracted:    map[string]string{},
	}
}

// AddTurn appends a turn and trims the history to MaxHistoryTurns.
func (s *Session) AddTurn(role Role, text string, at time.Time) {
	s.History = append(s.History, Turn{Role: role, Text: text, Timestamp: at})
	if len(s.History) > MaxHistoryTurns {
		s.History = s.History[len(s.History)-MaxHistoryTurns:]
	}
}

// CurrentState falls back to greeting for sessions written without a state.
func (s *Session) CurrentState() ConversationState {
	if s.State.Valid() {
		return s.State
	}
	return StateGreeting
}

// Ended reports whether the session was explicitly closed.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// SetExtracted stores a value in the extracted-field cache.
func (s *Session) SetExtracted(key, value string) {
	if s.Extracted == nil {
		s.Extracted = map[string]string{}
	}
	s.Extracted[key] = value
}

// Clone returns a deep copy so stored sessions are never aliased.
func (s *Session) Clone() *Session {
	c := *s
	c.History = append([]Turn(nil), s.History...)
	c.AvailableSlots = append([]TimeSlot(nil), s.AvailableSlots...)
	c.Extracted = make(map[string]string, len(s.Extracted))
	for k, v := range s.Extracted {
		c.Extracted[k] = v
	}
	if s.EndedAt != nil {
		ended := *s.EndedAt
		c.EndedAt = &ended
	}
	if s.Booking != nil {
		booking := *s.Booking
		c.Booking = &booking
	}
	return &c
}
