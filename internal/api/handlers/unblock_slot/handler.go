package unblock_slot

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgNotFound             = "блокировка не найдена"
	msgNotBlocked           = "запись не является блокировкой"
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

// Handle DELETE /api/v1/admin/blocks/{appointmentId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := uuid.Parse(mux.Vars(r)["appointmentId"])
	if err != nil {
		h.logger.Warn("DELETE /admin/blocks/{id} - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	if err := h.service.UnblockSlot(r.Context(), appointmentID); err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("DELETE /admin/blocks/{id} - Not found: appointment_id=%s", appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrNotBlocked):
			h.logger.Warn("DELETE /admin/blocks/{id} - Not a block: appointment_id=%s", appointmentID)
			handlers.RespondBadRequest(w, msgNotBlocked)

		default:
			h.logger.Error("DELETE /admin/blocks/{id} - Failed to unblock: appointment_id=%s, error=%v", appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /admin/blocks/{id} - Block removed: appointment_id=%s", appointmentID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
