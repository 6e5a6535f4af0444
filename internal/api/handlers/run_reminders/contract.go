package run_reminders

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/usecase/send_reminders"
)

type UseCase interface {
	Execute(ctx context.Context) (*send_reminders.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
