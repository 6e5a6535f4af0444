package send_reminders

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SettingsProvider источник настроек бизнес-календаря
type SettingsProvider interface {
	Load(ctx context.Context) (*domain.Settings, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	ListDueForReminder(ctx context.Context, from, to time.Time, limit int) ([]*domain.Appointment, error)
	// MarkReminderSent возвращает false, если флаг уже выставлен другим запуском
	MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error)
}

// NotificationRepository интерфейс outbox уведомлений
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker распределенная блокировка запуска (redis)
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// Metrics счетчик поставленных в очередь напоминаний
type Metrics interface {
	AddRemindersEnqueued(n int)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
