// Package clinicapi is the HTTP client for the external clinic appointment
// API. The clinic server is the source of truth for schedules and bookings;
// this layer only reads therapist data and forwards booking requests.
package clinicapi

import "fmt"

// SuccessMessage is the exact response body message the appointment API
// returns when a booking request has been accepted.
const SuccessMessage = "Requested Successfully"

// Therapist is an immutable snapshot of one therapist and their booked
// schedule, fetched once per session.
type Therapist struct {
	ID       int64    `json:"ID"`
	Name     string   `json:"name"`
	Schedule Schedule `json:"schedule"`
}

// Schedule holds the therapist's existing commitments.
type Schedule struct {
	TimeBlocks []TimeBlock `json:"time_blocks"`
}

// TimeBlock marks one booked fixed-width slot, encoded in the wire
// timestamp layout (see WireLayout).
type TimeBlock struct {
	Date string `json:"date"`
}

// BookingRequest is the outbound appointment request payload.
type BookingRequest struct {
	DateTime    string `json:"date_time"`
	PatientName string `json:"patient_name"`
	TherapistID int64  `json:"therapist_id"`
	PhoneNumber string `json:"phone_number"`
	IsExisting  bool   `json:"is_existing"`
}

// AppointmentEntry is one confirmed appointment or pending request as
// returned by the history endpoint.
type AppointmentEntry struct {
	ID            int64  `json:"id"`
	DateTime      string `json:"date_time"`
	TherapistName string `json:"therapist_name"`
	IsCompleted   bool   `json:"is_completed"`
}

// AppointmentHistory groups a patient's confirmed appointments and
// still-pending requests.
type AppointmentHistory struct {
	Appointments []AppointmentEntry `json:"appointments"`
	Requests     []AppointmentEntry `json:"requests"`
}

// RejectionError reports a booking request the server did not accept, for
// example a slot taken between page load and submission. ServerMessage is
// the server's error field verbatim and may be empty.
type RejectionError struct {
	ServerMessage string
}

func (e *RejectionError) Error() string {
	if e.ServerMessage == "" {
		return "clinicapi: booking rejected"
	}
	return fmt.Sprintf("clinicapi: booking rejected: %s", e.ServerMessage)
}
