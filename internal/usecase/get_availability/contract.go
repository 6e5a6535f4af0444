package get_availability

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ServiceRepository интерфейс репозитория услуг
type ServiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error)
}

// SettingsProvider источник настроек бизнес-календаря
// Создает настройки по умолчанию, если их еще нет
type SettingsProvider interface {
	Load(ctx context.Context) (*domain.Settings, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	// ListOverlapping получает неотмененные записи и блокировки, пересекающиеся с интервалом
	ListOverlapping(ctx context.Context, interval domain.Interval) ([]*domain.Appointment, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
