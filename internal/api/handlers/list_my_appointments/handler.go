package list_my_appointments

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
)

const (
	msgMissingPhone = "требуется подтвержденный телефон"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/me/appointments
// Записи клиента по подтвержденному телефону, новые первыми
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	phone, ok := middleware.GetUserPhone(r.Context())
	if !ok {
		h.logger.Warn("GET /me/appointments - Missing user phone")
		handlers.RespondUnauthorized(w, msgMissingPhone)
		return
	}

	result, err := h.service.ListByPhone(r.Context(), phone)
	if err != nil {
		h.logger.Error("GET /me/appointments - Failed to get appointments: phone=%s, error=%v", phone, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /me/appointments - Appointments retrieved: phone=%s, count=%d", phone, len(result.Appointments))
	handlers.RespondJSON(w, http.StatusOK, result)
}
