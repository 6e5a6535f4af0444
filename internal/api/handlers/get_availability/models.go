package get_availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailability "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_availability"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date        string      `json:"date"`
	ServiceID   string      `json:"serviceId"`
	DurationMin int         `json:"durationMin"`
	Slots       []time.Time `json:"slots"`
	IsBlackout  bool        `json:"isBlackout"`
	SlotCount   int         `json:"slotCount"`
}

// ToUseCaseRequest формирует запрос к use case
// date принимается как YYYY-MM-DD (в часовом поясе бизнеса) или как RFC3339
func ToUseCaseRequest(serviceID uuid.UUID, date string, loc *time.Location) (*getAvailability.Request, error) {
	day, err := time.ParseInLocation(domain.DateFormat, date, loc)
	if err != nil {
		day, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
	}

	return &getAvailability.Request{
		ServiceID: serviceID,
		Date:      day,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	slots := resp.Slots
	if slots == nil {
		slots = []time.Time{}
	}

	return &AvailabilityResponse{
		Date:        resp.Date,
		ServiceID:   resp.ServiceID.String(),
		DurationMin: resp.DurationMin,
		Slots:       slots,
		IsBlackout:  resp.IsBlackout,
		SlotCount:   resp.SlotCount,
	}
}
