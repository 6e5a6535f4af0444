package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// CreateServiceRequest запрос на добавление услуги
type CreateServiceRequest struct {
	Title       string
	DurationMin int
	Price       decimal.Decimal
}

// ServiceResponse ответ с данными услуги
type ServiceResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	DurationMin int             `json:"durationMin"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ServiceListResponse ответ со списком услуг
type ServiceListResponse struct {
	Services []ServiceResponse `json:"services"`
}

// SeedResponse результат заполнения каталога
type SeedResponse struct {
	Created int `json:"created"`
}

func FromDomainService(s *domain.Service) *ServiceResponse {
	if s == nil {
		return nil
	}
	return &ServiceResponse{
		ID:          s.ID.String(),
		Title:       s.Title,
		DurationMin: s.DurationMin,
		Price:       s.Price,
		CreatedAt:   s.CreatedAt,
	}
}

func FromDomainServiceList(services []*domain.Service) *ServiceListResponse {
	result := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		result = append(result, *FromDomainService(s))
	}
	return &ServiceListResponse{Services: result}
}
