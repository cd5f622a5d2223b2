package models

import "time"

// BookingRequest is what the receptionist commits to the calendar.
type BookingRequest struct {
	CustomerName string
	Phone        string
	Service      string
	Date         string // "2006-01-02"
	Time         string // "15:04"
	Duration     time.Duration
}

// BookingConfirmation describes a committed appointment.
type BookingConfirmation struct {
	EventID           string    `bson:"eventId" json:"event_id"`
	CustomerName      string    `bson:"customerName" json:"customer_name"`
	Phone             string    `bson:"phone" json:"phone"`
	Service           string    `bson:"service" json:"service"`
	Date              string    `bson:"date" json:"date"`
	Time              string    `bson:"time" json:"time"`
	Start             time.Time `bson:"start" json:"start"`
	End               time.Time `bson:"end" json:"end"`
	FormattedDateTime string    `bson:"formattedDateTime" json:"formatted_datetime"`
	CalendarLink      string    `bson:"calendarLink,omitempty" json:"calendar_link,omitempty"`
}

// CalendarEvent is the calendar backend's view of an appointment.
type CalendarEvent struct {
	ID          string    `json:"event_id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Link        string    `json:"link,omitempty"`
}

// Appointment is an upcoming event rendered for the admin API.
type Appointment struct {
	EventID       string `json:"event_id"`
	Summary       string `json:"summary"`
	Description   string `json:"description"`
	StartTime     string `json:"start_time"`
	FormattedTime string `json:"formatted_time"`
}
