package book_appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request модель запроса на создание записи
type Request struct {
	ServiceID  uuid.UUID
	StartUTC   time.Time
	GuestName  string
	GuestPhone string
}

// Response модель ответа с созданной записью
type Response struct {
	ID         uuid.UUID
	ServiceID  uuid.UUID
	CustomerID uuid.UUID
	StartUTC   time.Time
	EndUTC     time.Time
	Status     string
	GuestName  string
	GuestPhone string
	Service    ServiceInfo
	CreatedAt  time.Time
}

// ServiceInfo данные услуги на момент бронирования
type ServiceInfo struct {
	ID          uuid.UUID
	Title       string
	DurationMin int
	Price       decimal.Decimal
}
