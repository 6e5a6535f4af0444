package create_service

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-AppointmentService/internal/service/catalog/models"
)

// CreateServiceRequest HTTP request model
type CreateServiceRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	DurationMin int             `json:"durationMin" validate:"gte=5,lte=480"`
	Price       decimal.Decimal `json:"price"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CreateServiceRequest) ToServiceRequest() *models.CreateServiceRequest {
	return &models.CreateServiceRequest{
		Title:       r.Title,
		DurationMin: r.DurationMin,
		Price:       r.Price,
	}
}
