package sms

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Sender транспорт доставки SMS
type Sender interface {
	Send(ctx context.Context, to, body string) error
	ProviderID() string
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// BookingConfirmationText текст подтверждения записи
func BookingConfirmationText(d domain.MessageDetails) string {
	return fmt.Sprintf("Ваша запись подтверждена!\n%s\n%s в %s\n\nДо встречи!", d.ServiceName, d.Date, d.Time)
}

// ReminderText текст напоминания о записи
func ReminderText(d domain.MessageDetails) string {
	return fmt.Sprintf("Напоминание о записи!\n%s\n%s в %s\n\nСкоро увидимся!", d.ServiceName, d.Date, d.Time)
}
