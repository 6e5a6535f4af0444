package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a bookable catalog entry. DurationMin is authoritative for slot length.
type Service struct {
	ID          uuid.UUID
	Title       string
	DurationMin int
	Price       decimal.Decimal
	CreatedAt   time.Time
}

// Duration returns the service length as time.Duration
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMin) * time.Minute
}

// DefaultServices catalog seeded into an empty store
func DefaultServices() []*Service {
	return []*Service{
		{Title: "Haircut", DurationMin: 30, Price: decimal.NewFromInt(25)},
		{Title: "Beard Trim", DurationMin: 15, Price: decimal.NewFromInt(15)},
		{Title: "Full Service", DurationMin: 60, Price: decimal.NewFromInt(40)},
	}
}
