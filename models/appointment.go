package models

import "strings"

// Booking fields, in the order the receptionist asks for them.
type BookingField string

const (
	FieldName    BookingField = "name"
	FieldService BookingField = "service"
	FieldDate    BookingField = "date"
	FieldTime    BookingField = "time"
)

// BookingFieldOrder is the fixed priority used to pick the next question.
var BookingFieldOrder = []BookingField{FieldName, FieldService, FieldDate, FieldTime}

// AppointmentDetails accumulates what the caller told us about the booking.
// Empty strings mean "not known yet". Date is YYYY-MM-DD, Time is HH:MM (24h).
type AppointmentDetails struct {
	CustomerName string `json:"customer_name,omitempty"`
	Date         string `json:"preferred_date,omitempty"`
	Time         string `json:"preferred_time,omitempty"`
	Service      string `json:"service_type,omitempty"`
}

// Get returns the value of a booking field.
func (d AppointmentDetails) Get(f BookingField) string {
	switch f {
	case FieldName:
		return d.CustomerName
	case FieldService:
		return d.Service
	case FieldDate:
		return d.Date
	case FieldTime:
		return d.Time
	}
	return ""
}

// IsEmpty reports whether no booking field is known.
func (d AppointmentDetails) IsEmpty() bool {
	return d == AppointmentDetails{}
}

// Complete reports whether all four fields are known.
func (d AppointmentDetails) Complete() bool {
	return len(d.Missing()) == 0
}

// Missing lists the unknown fields in BookingFieldOrder.
func (d AppointmentDetails) Missing() []BookingField {
	var missing []BookingField
	for _, f := range BookingFieldOrder {
		if strings.TrimSpace(d.Get(f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Merge overwrites a field only when the extraction carries a non-empty value.
func (d AppointmentDetails) Merge(x ExtractedFields) AppointmentDetails {
	if v := strings.TrimSpace(x.CustomerName); v != "" {
		d.CustomerName = v
	}
	if v := strings.TrimSpace(x.Service); v != "" {
		d.Service = v
	}
	if v := strings.TrimSpace(x.Date); v != "" {
		d.Date = v
	}
	if v := strings.TrimSpace(x.Time); v != "" {
		d.Time = v
	}
	return d
}
