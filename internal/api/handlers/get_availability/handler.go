package get_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	getAvailability "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_availability"
)

const (
	msgInvalidServiceID = "некорректный ID услуги"
	msgMissingDate      = "дата обязательна"
	msgInvalidDate      = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgServiceNotFound  = "услуга не найдена"
)

type Handler struct {
	useCase  GetAvailabilityUseCase
	location *time.Location
	logger   Logger
}

func NewHandler(useCase GetAvailabilityUseCase, location *time.Location, logger Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		useCase:  useCase,
		location: location,
		logger:   logger,
	}
}

// Handle GET /api/v1/services/{serviceId}/availability
// Query params: date (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем serviceId из URL
	serviceID, err := uuid.Parse(mux.Vars(r)["serviceId"])
	if err != nil {
		h.logger.Warn("GET /services/{id}/availability - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /services/{id}/availability - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	useCaseReq, err := ToUseCaseRequest(serviceID, dateStr, h.location)
	if err != nil {
		h.logger.Warn("GET /services/{id}/availability - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrServiceNotFound):
			h.logger.Warn("GET /services/{id}/availability - Service not found: service_id=%s", serviceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, getAvailability.ErrInvalidInput):
			h.logger.Warn("GET /services/{id}/availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)

		default:
			h.logger.Error("GET /services/{id}/availability - Failed to get availability: service_id=%s, date=%s, error=%v",
				serviceID, dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /services/{id}/availability - Availability retrieved: service_id=%s, date=%s, slots=%d, blackout=%t",
		serviceID, result.Date, result.SlotCount, result.IsBlackout)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
