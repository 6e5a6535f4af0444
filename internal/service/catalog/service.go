package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	serviceRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/service"
	"github.com/m04kA/SMC-AppointmentService/internal/service/catalog/models"
)

// Service каталог услуг
type Service struct {
	repo      ServiceRepository
	txManager TransactionManager
	logger    Logger
}

func NewService(repo ServiceRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// GetAll возвращает все услуги
func (s *Service) GetAll(ctx context.Context) (*models.ServiceListResponse, error) {
	services, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("GetAll: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetAll - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainServiceList(services), nil
}

// GetByID возвращает услугу по ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceResponse, error) {
	service, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			s.logger.Warn("GetByID: service id=%s not found", id)
			return nil, ErrServiceNotFound
		}
		s.logger.Error("GetByID: repository error for service id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainService(service), nil
}

// Create добавляет услугу в каталог
func (s *Service) Create(ctx context.Context, req *models.CreateServiceRequest) (*models.ServiceResponse, error) {
	title := strings.TrimSpace(req.Title)

	switch {
	case title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case len(title) > domain.MaxTitleLength:
		return nil, fmt.Errorf("%w: title is too long", ErrInvalidInput)
	case req.DurationMin < domain.MinServiceDurationMinutes || req.DurationMin > domain.MaxServiceDurationMinutes:
		return nil, fmt.Errorf("%w: durationMin must be between %d and %d",
			ErrInvalidInput, domain.MinServiceDurationMinutes, domain.MaxServiceDurationMinutes)
	case req.Price.IsNegative():
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	created, err := s.repo.Create(ctx, &domain.Service{
		Title:       title,
		DurationMin: req.DurationMin,
		Price:       req.Price,
	})
	if err != nil {
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Create: service id=%s title=%q duration=%dmin price=%s",
		created.ID, created.Title, created.DurationMin, created.Price)
	return models.FromDomainService(created), nil
}

// SeedDefaults заполняет пустой каталог стандартным набором услуг
// Непустой каталог не изменяется
func (s *Service) SeedDefaults(ctx context.Context) (*models.SeedResponse, error) {
	created := 0

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		count, err := s.repo.Count(txCtx)
		if err != nil {
			return fmt.Errorf("%w: SeedDefaults - count: %v", ErrInternal, err)
		}
		if count > 0 {
			return nil
		}

		for _, svc := range domain.DefaultServices() {
			if _, err := s.repo.Create(txCtx, svc); err != nil {
				return fmt.Errorf("%w: SeedDefaults - create %q: %v", ErrInternal, svc.Title, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("SeedDefaults: %v", err)
		return nil, err
	}

	s.logger.Info("SeedDefaults: created %d services", created)
	return &models.SeedResponse{Created: created}, nil
}
