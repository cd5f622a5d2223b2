// File: models/records.go
package models

import "time"

// CallRecord is the archived audit copy of a finished call.
type CallRecord struct {
	ID               string               `bson:"id" json:"id"`
	SessionID        string               `bson:"sessionId" json:"sessionId"`
	CallSID          string               `bson:"callSid" json:"callSid"`
	CallerNumber     string               `bson:"callerNumber" json:"callerNumber"`
	FinalState       ConversationState    `bson:"finalState" json:"finalState"`
	Language         string               `bson:"language,omitempty" json:"language,omitempty"`
	Transcript       []Turn               `bson:"transcript" json:"transcript"`
	Appointment      AppointmentDetails   `bson:"appointment" json:"appointment"`
	BookingConfirmed bool                 `bson:"bookingConfirmed" json:"bookingConfirmed"`
	Booking          *BookingConfirmation `bson:"booking,omitempty" json:"booking,omitempty"`
	StartedAt        time.Time            `bson:"startedAt" json:"startedAt"`
	EndedAt          time.Time            `bson:"endedAt" json:"endedAt"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
}

// NewCallRecord snapshots a session for archival.
func NewCallRecord(s *Session) CallRecord {
	rec := CallRecord{
		SessionID:        s.ID,
		CallSID:          s.CallSID,
		CallerNumber:     s.CallerNumber,
		FinalState:       s.State,
		Language:         s.Extracted[ExtractedLanguage],
		Transcript:       s.History,
		Appointment:      s.Appointment,
		BookingConfirmed: s.BookingConfirmed,
		Booking:          s.Booking,
		StartedAt:        s.CreatedAt,
		EndedAt:          s.LastActivity,
	}
	if s.EndedAt != nil {
		rec.EndedAt = *s.EndedAt
	}
	return rec
}

// ArchivePayload is the background task payload for archiving a call.
type ArchivePayload struct {
	SessionID string `json:"sessionId"`
}
