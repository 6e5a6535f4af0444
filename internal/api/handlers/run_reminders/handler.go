package run_reminders

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/send_reminders"
)

// CronSecretHeader заголовок с секретом внешнего планировщика
const CronSecretHeader = "X-Cron-Secret"

const (
	msgUnauthorized   = "неверный секрет планировщика"
	msgAlreadyRunning = "рассылка уже выполняется"
)

type Handler struct {
	useCase UseCase
	secret  string
	logger  Logger
}

// NewHandler пустой secret закрывает эндпоинт полностью
func NewHandler(useCase UseCase, secret string, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		secret:  secret,
		logger:  logger,
	}
}

// Handle POST /api/v1/internal/reminders/run
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.Header.Get(CronSecretHeader)) {
		h.logger.Warn("POST /internal/reminders/run - Unauthorized request from %s", r.RemoteAddr)
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	result, err := h.useCase.Execute(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, send_reminders.ErrAlreadyRunning):
			h.logger.Warn("POST /internal/reminders/run - Already running")
			handlers.RespondConflict(w, msgAlreadyRunning)

		default:
			h.logger.Error("POST /internal/reminders/run - Failed to send reminders: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /internal/reminders/run - Done: processed=%d, enqueued=%d", result.Processed, result.Enqueued)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

func (h *Handler) authorized(got string) bool {
	if h.secret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}
