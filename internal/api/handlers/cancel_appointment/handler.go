package cancel_appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgMissingPhone         = "требуется подтвержденный телефон"
	msgNotFound             = "запись не найдена"
	msgForbidden            = "доступ запрещен"
	msgCannotCancel         = "запись не может быть отменена"
	msgBlockedSlot          = "блокировку нельзя отменить, ее можно только снять"
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

// Handle PATCH /api/v1/appointments/{appointmentId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := uuid.Parse(mux.Vars(r)["appointmentId"])
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/cancel - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	phone, ok := middleware.GetUserPhone(r.Context())
	if !ok {
		h.logger.Warn("PATCH /appointments/{id}/cancel - Missing user phone")
		handlers.RespondUnauthorized(w, msgMissingPhone)
		return
	}

	caller := models.Caller{
		Phone:   phone,
		IsAdmin: middleware.IsAdmin(r.Context()),
	}

	err = h.service.Cancel(r.Context(), appointmentID, caller)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Appointment not found: appointment_id=%s", appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrAccessDenied):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Access denied: appointment_id=%s, phone=%s",
				appointmentID, phone)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, appointments.ErrCannotCancel):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Cannot cancel: appointment_id=%s", appointmentID)
			handlers.RespondBadRequest(w, msgCannotCancel)

		case errors.Is(err, appointments.ErrBlockedSlot):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Blocked slot: appointment_id=%s", appointmentID)
			handlers.RespondBadRequest(w, msgBlockedSlot)

		default:
			h.logger.Error("PATCH /appointments/{id}/cancel - Failed to cancel appointment: appointment_id=%s, error=%v",
				appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /appointments/{id}/cancel - Appointment cancelled successfully: appointment_id=%s, admin=%t",
		appointmentID, caller.IsAdmin)
	handlers.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
