package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модели

// Caller проверенная идентичность вызывающего
type Caller struct {
	Phone   string
	IsAdmin bool
}

// ListAppointmentsRequest фильтр списка записей для администратора
type ListAppointmentsRequest struct {
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
	OnlyBlocked      bool
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListAppointmentsRequest) ToDomainFilter() domain.AppointmentsFilter {
	return domain.AppointmentsFilter{
		From:             r.From,
		To:               r.To,
		IncludeCancelled: r.IncludeCancelled,
		OnlyBlocked:      r.OnlyBlocked,
	}
}

// BlockSlotRequest запрос на административную блокировку времени
type BlockSlotRequest struct {
	StartUTC    time.Time
	DurationMin int
	Reason      string
}

// Response модели

// ServiceSummary краткие данные услуги в записи
type ServiceSummary struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	DurationMin int             `json:"durationMin"`
	Price       decimal.Decimal `json:"price"`
}

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID               string          `json:"id"`
	ServiceID        *string         `json:"serviceId,omitempty"`
	Service          *ServiceSummary `json:"service,omitempty"`
	StartUTC         time.Time       `json:"startUtc"`
	EndUTC           time.Time       `json:"endUtc"`
	Status           string          `json:"status"`
	IsBlocked        bool            `json:"isBlocked"`
	BlockReason      *string         `json:"blockReason,omitempty"`
	GuestName        *string         `json:"guestName,omitempty"`
	GuestPhone       *string         `json:"guestPhone,omitempty"`
	AttendanceStatus *string         `json:"attendanceStatus"`
	ReminderSent     bool            `json:"reminderSent"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:           a.ID.String(),
		StartUTC:     a.StartUTC.UTC(),
		EndUTC:       a.EndUTC.UTC(),
		Status:       string(a.Status),
		IsBlocked:    a.IsBlocked,
		BlockReason:  a.BlockReason,
		GuestName:    a.GuestName,
		GuestPhone:   a.GuestPhone,
		ReminderSent: a.ReminderSent,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}

	if a.ServiceID != nil {
		id := a.ServiceID.String()
		resp.ServiceID = &id
	}
	if a.Service != nil {
		resp.Service = &ServiceSummary{
			ID:          a.Service.ID.String(),
			Title:       a.Service.Title,
			DurationMin: a.Service.DurationMin,
			Price:       a.Service.Price,
		}
	}
	if a.AttendanceStatus != nil {
		status := string(*a.AttendanceStatus)
		resp.AttendanceStatus = &status
	}

	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(list []*domain.Appointment) *AppointmentListResponse {
	result := make([]AppointmentResponse, 0, len(list))
	for _, a := range list {
		result = append(result, *FromDomainAppointment(a))
	}
	return &AppointmentListResponse{Appointments: result}
}
