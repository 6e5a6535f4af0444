package manage_blackout_dates

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/settings/models"
)

type SettingsService interface {
	AddBlackoutDate(ctx context.Context, date string) (*models.SettingsResponse, error)
	RemoveBlackoutDate(ctx context.Context, date string) (*models.SettingsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
