package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind is the message template to send
type NotificationKind string

const (
	NotificationBookingConfirmation NotificationKind = "booking_confirmation"
	NotificationReminder            NotificationKind = "reminder"
)

// NotificationStatus is the outbox row state
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// MessageDetails is the payload rendered into SMS text
type MessageDetails struct {
	ServiceName string `json:"serviceName"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// Notification is an outbox row delivered asynchronously by the dispatcher
type Notification struct {
	ID            uuid.UUID
	AppointmentID *uuid.UUID
	Kind          NotificationKind
	Phone         string
	Payload       MessageDetails
	Status        NotificationStatus
	Attempts      int
	NextAttemptAt time.Time
	LastError     *string
	CreatedAt     time.Time
	SentAt        *time.Time
}

// NewNotification builds a pending notification due immediately
func NewNotification(kind NotificationKind, appointmentID *uuid.UUID, phone string, details MessageDetails, now time.Time) *Notification {
	return &Notification{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		Kind:          kind,
		Phone:         phone,
		Payload:       details,
		Status:        NotificationPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
}

// DetailsFor renders the message payload of an appointment in loc
func DetailsFor(a *Appointment, serviceName string, loc *time.Location) MessageDetails {
	local := a.StartUTC.In(loc)
	return MessageDetails{
		ServiceName: serviceName,
		Date:        local.Format(DateFormat),
		Time:        local.Format(TimeFormat),
	}
}
