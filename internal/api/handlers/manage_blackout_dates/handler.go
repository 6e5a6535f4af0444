package manage_blackout_dates

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/settings"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "дата должна быть в формате YYYY-MM-DD"
)

type Handler struct {
	service SettingsService
	logger  Logger
}

func NewHandler(service SettingsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleAdd POST /api/v1/admin/settings/blackout-dates
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddBlackoutDateRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		h.logger.Warn("POST /admin/settings/blackout-dates - Invalid request body: %v", err)
		if errors.Is(err, handlers.ErrValidation) {
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.AddBlackoutDate(r.Context(), req.Date)
	if err != nil {
		h.respondServiceError(w, "POST /admin/settings/blackout-dates", err)
		return
	}

	h.logger.Info("POST /admin/settings/blackout-dates - Date added: %s", req.Date)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// HandleRemove DELETE /api/v1/admin/settings/blackout-dates/{date}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	result, err := h.service.RemoveBlackoutDate(r.Context(), date)
	if err != nil {
		h.respondServiceError(w, "DELETE /admin/settings/blackout-dates/{date}", err)
		return
	}

	h.logger.Info("DELETE /admin/settings/blackout-dates/{date} - Date removed: %s", date)
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, route string, err error) {
	switch {
	case errors.Is(err, settings.ErrInvalidInput):
		h.logger.Warn("%s - Invalid date: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidDate)

	default:
		h.logger.Error("%s - Failed to update blackout dates: %v", route, err)
		handlers.RespondInternalError(w)
	}
}
