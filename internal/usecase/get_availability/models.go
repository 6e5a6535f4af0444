package get_availability

import (
	"time"

	"github.com/google/uuid"
)

// Request модель запроса доступности
type Request struct {
	ServiceID uuid.UUID
	Date      time.Time // используется только календарная дата в часовом поясе бизнеса
}

// Response модель ответа со свободными слотами
type Response struct {
	Date        string      // YYYY-MM-DD в часовом поясе бизнеса
	ServiceID   uuid.UUID
	DurationMin int
	Slots       []time.Time // начала свободных слотов в UTC, по возрастанию
	IsBlackout  bool
	SlotCount   int
}
