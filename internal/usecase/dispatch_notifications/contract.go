package dispatch_notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// NotificationRepository интерфейс outbox уведомлений
type NotificationRepository interface {
	// FetchDue блокирует пачку готовых к отправке строк (FOR UPDATE SKIP LOCKED), требует транзакцию
	FetchDue(ctx context.Context, now time.Time, limit int) ([]*domain.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, attempts int, sentAt time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error
}

// Deliverer отправляет уведомление получателю
type Deliverer interface {
	Deliver(ctx context.Context, n *domain.Notification) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчик исходов доставки
type Metrics interface {
	IncNotification(kind, outcome string)
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
