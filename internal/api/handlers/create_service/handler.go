package create_service

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/catalog"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidService     = "некорректные данные услуги: название обязательно, длительность от 5 минут, цена не отрицательная"
)

type Handler struct {
	service CatalogService
	logger  Logger
}

func NewHandler(service CatalogService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/admin/services
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := handlers.DecodeAndValidate(r, &req); err != nil {
		h.logger.Warn("POST /admin/services - Invalid request body: %v", err)
		if errors.Is(err, handlers.ErrValidation) {
			handlers.RespondBadRequest(w, msgInvalidService)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Create(r.Context(), req.ToServiceRequest())
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidInput):
			h.logger.Warn("POST /admin/services - Invalid service: %v", err)
			handlers.RespondBadRequest(w, msgInvalidService)

		default:
			h.logger.Error("POST /admin/services - Failed to create service: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/services - Service created successfully: id=%s", result.ID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// HandleSeed POST /api/v1/admin/services/seed
// Заполняет каталог услугами по умолчанию, только если он пуст
func (h *Handler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SeedDefaults(r.Context())
	if err != nil {
		h.logger.Error("POST /admin/services/seed - Failed to seed services: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /admin/services/seed - Seed completed: created=%d", result.Created)
	handlers.RespondJSON(w, http.StatusOK, result)
}
