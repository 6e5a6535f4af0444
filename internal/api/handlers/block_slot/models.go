package block_slot

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// BlockSlotRequest HTTP request model
type BlockSlotRequest struct {
	StartUTC    time.Time `json:"startUtc" validate:"required"`
	DurationMin int       `json:"durationMin" validate:"gte=1,lte=1440"`
	Reason      string    `json:"reason" validate:"max=500"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *BlockSlotRequest) ToServiceRequest() *models.BlockSlotRequest {
	return &models.BlockSlotRequest{
		StartUTC:    r.StartUTC,
		DurationMin: r.DurationMin,
		Reason:      r.Reason,
	}
}
