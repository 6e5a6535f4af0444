package list_appointments

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
)

const (
	msgInvalidQuery = "некорректные параметры фильтра"
	msgInvalidRange = "начало периода должно быть раньше конца"
)

type Handler struct {
	service  AppointmentService
	location *time.Location
	logger   Logger
}

func NewHandler(service AppointmentService, location *time.Location, logger Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		service:  service,
		location: location,
		logger:   logger,
	}
}

// Handle GET /api/v1/admin/appointments
// Query params: from, to, includeCancelled, onlyBlocked (все опциональны)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := ParseQuery(r.URL.Query(), h.location)
	if err != nil {
		h.logger.Warn("GET /admin/appointments - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrInvalidInput):
			h.logger.Warn("GET /admin/appointments - Invalid range: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRange)

		default:
			h.logger.Error("GET /admin/appointments - Failed to get appointments: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /admin/appointments - Appointments retrieved: count=%d", len(result.Appointments))
	handlers.RespondJSON(w, http.StatusOK, result)
}
