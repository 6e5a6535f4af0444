package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer identity keyed by verified phone number
type Customer struct {
	ID        uuid.UUID
	Phone     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
