package book_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	bookAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "укажите услугу, время начала, имя и телефон"
	msgServiceNotFound    = "услуга не найдена"
	msgSlotTaken          = "выбранное время уже занято"
)

type Handler struct {
	useCase BookAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase BookAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		if errors.Is(err, handlers.ErrValidation) {
			handlers.RespondBadRequest(w, msgInvalidInput)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /appointments - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, bookAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Validation failed: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, bookAppointment.ErrServiceNotFound):
			h.logger.Warn("POST /appointments - Service not found: service_id=%s", req.ServiceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, bookAppointment.ErrSlotTaken):
			h.logger.Warn("POST /appointments - Slot taken: service_id=%s, start=%s", req.ServiceID, req.StartUTC)
			handlers.RespondConflict(w, msgSlotTaken)

		default:
			h.logger.Error("POST /appointments - Failed to book appointment: service_id=%s, error=%v", req.ServiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment booked successfully: appointment_id=%s", result.ID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
