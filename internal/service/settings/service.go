package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	settingsRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/settings"
	"github.com/m04kA/SMC-AppointmentService/internal/service/settings/models"
)

// Service сервис настроек календаря (рабочие часы, выходные дни, время напоминания)
type Service struct {
	repo      SettingsRepository
	txManager TransactionManager
	logger    Logger
}

// NewService создает новый экземпляр сервиса настроек
func NewService(repo SettingsRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// Load возвращает агрегат настроек
// Если строка еще не создана, явно сохраняет значения по умолчанию
func (s *Service) Load(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repo.Get(ctx, domain.SettingsID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, settingsRepo.ErrSettingsNotFound) {
		s.logger.Error("Load: failed to get settings: %v", err)
		return nil, fmt.Errorf("%w: Load - repository error: %v", ErrInternal, err)
	}

	// Ветка создания настроек по умолчанию
	defaults := domain.DefaultSettings()
	s.logger.Info("Load: settings not found, creating defaults (work=%d-%d, reminder=%dmin)",
		defaults.WorkStartHour, defaults.WorkEndHour, defaults.SMSReminderMinutes)

	if err := s.repo.CreateIfNotExists(ctx, defaults); err != nil {
		s.logger.Error("Load: failed to create default settings: %v", err)
		return nil, fmt.Errorf("%w: Load - create defaults: %v", ErrInternal, err)
	}

	// Перечитываем: при конкурентной вставке вернется строка победителя
	settings, err = s.repo.Get(ctx, domain.SettingsID)
	if err != nil {
		s.logger.Error("Load: failed to re-read settings: %v", err)
		return nil, fmt.Errorf("%w: Load - re-read: %v", ErrInternal, err)
	}

	return settings, nil
}

// Get возвращает настройки в виде DTO
func (s *Service) Get(ctx context.Context) (*models.SettingsResponse, error) {
	settings, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return models.FromDomainSettings(settings), nil
}

// Update частично обновляет рабочие часы и время напоминания
func (s *Service) Update(ctx context.Context, req *models.UpdateSettingsRequest) (*models.SettingsResponse, error) {
	if err := validateUpdate(req); err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, err
	}

	var result *domain.Settings
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		settings, err := s.Load(txCtx)
		if err != nil {
			return err
		}

		if req.WorkStartHour != nil {
			settings.WorkStartHour = *req.WorkStartHour
		}
		if req.WorkEndHour != nil {
			settings.WorkEndHour = *req.WorkEndHour
		}
		if req.SMSReminderMinutes != nil {
			settings.SMSReminderMinutes = *req.SMSReminderMinutes
		}

		if err := s.repo.Update(txCtx, settings); err != nil {
			s.logger.Error("Update: repository error: %v", err)
			return fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
		}

		result = settings
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Update: settings updated (work=%d-%d, reminder=%dmin)",
		result.WorkStartHour, result.WorkEndHour, result.SMSReminderMinutes)
	return models.FromDomainSettings(result), nil
}

// AddBlackoutDate добавляет выходной день; повторное добавление ничего не меняет
func (s *Service) AddBlackoutDate(ctx context.Context, date string) (*models.SettingsResponse, error) {
	return s.changeBlackoutDates(ctx, "AddBlackoutDate", date, domain.WithBlackoutDate)
}

// RemoveBlackoutDate удаляет выходной день; отсутствующая дата не является ошибкой
func (s *Service) RemoveBlackoutDate(ctx context.Context, date string) (*models.SettingsResponse, error) {
	return s.changeBlackoutDates(ctx, "RemoveBlackoutDate", date, domain.WithoutBlackoutDate)
}

func (s *Service) changeBlackoutDates(
	ctx context.Context,
	method string,
	date string,
	apply func(dates []string, day string) []string,
) (*models.SettingsResponse, error) {
	if _, err := time.Parse(domain.DateFormat, date); err != nil {
		s.logger.Warn("%s: invalid date %q", method, date)
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	var result *domain.Settings
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		settings, err := s.Load(txCtx)
		if err != nil {
			return err
		}

		settings.BlackoutDates = apply(settings.BlackoutDates, date)

		if err := s.repo.Update(txCtx, settings); err != nil {
			s.logger.Error("%s: repository error: %v", method, err)
			return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
		}

		result = settings
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("%s: date=%s, blackout dates=%v", method, date, result.BlackoutDates)
	return models.FromDomainSettings(result), nil
}

func validateUpdate(req *models.UpdateSettingsRequest) error {
	if req.WorkStartHour != nil && (*req.WorkStartHour < domain.MinWorkHour || *req.WorkStartHour > domain.MaxWorkHour) {
		return fmt.Errorf("%w: workStartHour must be between %d and %d", ErrInvalidInput, domain.MinWorkHour, domain.MaxWorkHour)
	}
	if req.WorkEndHour != nil && (*req.WorkEndHour < domain.MinWorkHour || *req.WorkEndHour > domain.MaxWorkHour) {
		return fmt.Errorf("%w: workEndHour must be between %d and %d", ErrInvalidInput, domain.MinWorkHour, domain.MaxWorkHour)
	}
	if req.SMSReminderMinutes != nil &&
		(*req.SMSReminderMinutes < domain.MinSMSReminderMinutes || *req.SMSReminderMinutes > domain.MaxSMSReminderMinutes) {
		return fmt.Errorf("%w: smsReminderMinutes must be between %d and %d",
			ErrInvalidInput, domain.MinSMSReminderMinutes, domain.MaxSMSReminderMinutes)
	}
	return nil
}
