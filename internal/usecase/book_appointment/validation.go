package book_appointment

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует и нормализует входные данные запроса
func validateRequest(req *Request) error {
	if req.ServiceID == uuid.Nil {
		return fmt.Errorf("%w: serviceId is required", ErrInvalidInput)
	}

	if req.StartUTC.IsZero() {
		return fmt.Errorf("%w: startUtc is required", ErrInvalidInput)
	}

	req.GuestName = strings.TrimSpace(req.GuestName)
	if req.GuestName == "" {
		return fmt.Errorf("%w: guestName is required", ErrInvalidInput)
	}
	if len(req.GuestName) > domain.MaxGuestNameLength {
		return fmt.Errorf("%w: guestName is too long", ErrInvalidInput)
	}

	req.GuestPhone = strings.TrimSpace(req.GuestPhone)
	if req.GuestPhone == "" {
		return fmt.Errorf("%w: guestPhone is required", ErrInvalidInput)
	}

	return nil
}
