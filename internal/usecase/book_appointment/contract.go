package book_appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ServiceRepository интерфейс репозитория услуг
type ServiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	// LockDay берет транзакционную блокировку календарного дня
	LockDay(ctx context.Context, day string) error
	// ListOverlapping получает неотмененные записи, пересекающиеся с интервалом (FOR UPDATE в транзакции)
	ListOverlapping(ctx context.Context, interval domain.Interval) ([]*domain.Appointment, error)
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
}

// CustomerRepository интерфейс репозитория клиентов
type CustomerRepository interface {
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
}

// NotificationRepository интерфейс outbox уведомлений
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчик исходов бронирования
type Metrics interface {
	IncBooking(outcome string)
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
