package book_appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	bookAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
)

// BookAppointmentRequest HTTP request model
type BookAppointmentRequest struct {
	ServiceID  string    `json:"serviceId" validate:"required,uuid"`
	StartUTC   time.Time `json:"startUtc" validate:"required"`
	GuestName  string    `json:"guestName" validate:"required,max=200"`
	GuestPhone string    `json:"guestPhone" validate:"required,max=32"`
}

// ToUseCaseRequest конвертирует HTTP request в запрос use case
func (r *BookAppointmentRequest) ToUseCaseRequest() (*bookAppointment.Request, error) {
	serviceID, err := uuid.Parse(r.ServiceID)
	if err != nil {
		return nil, err
	}

	return &bookAppointment.Request{
		ServiceID:  serviceID,
		StartUTC:   r.StartUTC,
		GuestName:  r.GuestName,
		GuestPhone: r.GuestPhone,
	}, nil
}

// AppointmentResponse HTTP response model
type AppointmentResponse struct {
	ID         string          `json:"id"`
	ServiceID  string          `json:"serviceId"`
	StartUTC   time.Time       `json:"startUtc"`
	EndUTC     time.Time       `json:"endUtc"`
	Status     string          `json:"status"`
	GuestName  string          `json:"guestName"`
	GuestPhone string          `json:"guestPhone"`
	Service    ServiceResponse `json:"service"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ServiceResponse данные услуги в ответе
type ServiceResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	DurationMin int             `json:"durationMin"`
	Price       decimal.Decimal `json:"price"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *bookAppointment.Response) *AppointmentResponse {
	return &AppointmentResponse{
		ID:         resp.ID.String(),
		ServiceID:  resp.ServiceID.String(),
		StartUTC:   resp.StartUTC.UTC(),
		EndUTC:     resp.EndUTC.UTC(),
		Status:     resp.Status,
		GuestName:  resp.GuestName,
		GuestPhone: resp.GuestPhone,
		Service: ServiceResponse{
			ID:          resp.Service.ID.String(),
			Title:       resp.Service.Title,
			DurationMin: resp.Service.DurationMin,
			Price:       resp.Service.Price,
		},
		CreatedAt: resp.CreatedAt,
	}
}
