package mark_attendance

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
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidStatus        = "статус посещения должен быть arrived, no_show или null"
	msgNotFound             = "запись не найдена"
	msgBlockedSlot          = "для блокировки отметка о посещении недоступна"
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

// Handle PATCH /api/v1/admin/appointments/{appointmentId}/attendance
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := uuid.Parse(mux.Vars(r)["appointmentId"])
	if err != nil {
		h.logger.Warn("PATCH /admin/appointments/{id}/attendance - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req MarkAttendanceRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		h.logger.Warn("PATCH /admin/appointments/{id}/attendance - Invalid request body: %v", err)
		if errors.Is(err, handlers.ErrValidation) {
			handlers.RespondBadRequest(w, msgInvalidStatus)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.MarkAttendance(r.Context(), appointmentID, req.ToDomain())
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /admin/appointments/{id}/attendance - Appointment not found: appointment_id=%s", appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrBlockedSlot):
			h.logger.Warn("PATCH /admin/appointments/{id}/attendance - Blocked slot: appointment_id=%s", appointmentID)
			handlers.RespondBadRequest(w, msgBlockedSlot)

		case errors.Is(err, appointments.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidStatus)

		default:
			h.logger.Error("PATCH /admin/appointments/{id}/attendance - Failed to mark attendance: appointment_id=%s, error=%v",
				appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /admin/appointments/{id}/attendance - Attendance updated: appointment_id=%s", appointmentID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
