package appointments

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	ListOverlapping(ctx context.Context, interval domain.Interval) ([]*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
	ListByPhone(ctx context.Context, phone string) ([]*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) error
	SetAttendance(ctx context.Context, id uuid.UUID, attendance *domain.AttendanceStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	LockDay(ctx context.Context, day string) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
