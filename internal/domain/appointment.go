package domain

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status axis of an appointment
type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// AttendanceStatus is independent of AppointmentStatus
type AttendanceStatus string

const (
	AttendanceArrived AttendanceStatus = "arrived"
	AttendanceNoShow  AttendanceStatus = "no_show"
)

// IsValid reports whether the attendance value is known
func (a AttendanceStatus) IsValid() bool {
	return a == AttendanceArrived || a == AttendanceNoShow
}

// Appointment is a reserved interval: a customer booking or an admin block.
// Blocked appointments carry no ServiceID and no CustomerID.
type Appointment struct {
	ID               uuid.UUID
	ServiceID        *uuid.UUID
	CustomerID       *uuid.UUID
	StartUTC         time.Time
	EndUTC           time.Time
	Status           AppointmentStatus
	IsBlocked        bool
	BlockReason      *string
	GuestName        *string
	GuestPhone       *string
	AttendanceStatus *AttendanceStatus
	ReminderSent     bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Service is attached on read paths that need service detail
	Service *Service
}

// Interval returns [StartUTC, EndUTC)
func (a *Appointment) Interval() Interval {
	return Interval{Start: a.StartUTC, End: a.EndUTC}
}

// IsCancelled returns true if the appointment no longer holds its interval
func (a *Appointment) IsCancelled() bool {
	return a.Status == StatusCancelled
}

// Occupies returns true if the appointment blocks availability
func (a *Appointment) Occupies() bool {
	return !a.IsCancelled()
}

// CanBeCancelled returns true if confirmed -> cancelled is allowed
func (a *Appointment) CanBeCancelled() bool {
	return a.Status == StatusConfirmed && !a.IsBlocked
}

// IsOwnedBy returns true if the guest phone matches
func (a *Appointment) IsOwnedBy(phone string) bool {
	return a.GuestPhone != nil && *a.GuestPhone == phone
}

// NeedsReminder returns true if the appointment is eligible for an SMS reminder
func (a *Appointment) NeedsReminder() bool {
	return !a.IsCancelled() && !a.IsBlocked && !a.ReminderSent && a.GuestPhone != nil && *a.GuestPhone != ""
}

// AppointmentsFilter filter for listing appointments.
// From/To bound StartUTC as [From, To).
type AppointmentsFilter struct {
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
	OnlyBlocked      bool
}
