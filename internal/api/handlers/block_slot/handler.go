package block_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidBlock       = "укажите время начала и длительность от 1 до 1440 минут"
	msgOverlap            = "блокировка пересекается с существующей записью"
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

// Handle POST /api/v1/admin/blocks
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req BlockSlotRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		h.logger.Warn("POST /admin/blocks - Invalid request body: %v", err)
		if errors.Is(err, handlers.ErrValidation) {
			handlers.RespondBadRequest(w, msgInvalidBlock)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.BlockSlot(r.Context(), req.ToServiceRequest())
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrInvalidInput):
			h.logger.Warn("POST /admin/blocks - Invalid block: %v", err)
			handlers.RespondBadRequest(w, msgInvalidBlock)

		case errors.Is(err, appointments.ErrSlotOverlap):
			h.logger.Warn("POST /admin/blocks - Overlap: start=%s, duration=%d", req.StartUTC, req.DurationMin)
			handlers.RespondConflict(w, msgOverlap)

		default:
			h.logger.Error("POST /admin/blocks - Failed to block slot: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/blocks - Slot blocked: id=%s", result.ID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
