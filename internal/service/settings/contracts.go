package settings

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SettingsRepository интерфейс репозитория настроек
type SettingsRepository interface {
	Get(ctx context.Context, id string) (*domain.Settings, error)
	CreateIfNotExists(ctx context.Context, s *domain.Settings) error
	Update(ctx context.Context, s *domain.Settings) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
