package get_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	serviceRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/service"
)

// UseCase use case для расчета свободных слотов на день
type UseCase struct {
	serviceRepo     ServiceRepository
	settings        SettingsProvider
	appointmentRepo AppointmentRepository
	location        *time.Location
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
// location - часовой пояс бизнеса, в котором трактуются рабочие часы и даты
func NewUseCase(
	serviceRepo ServiceRepository,
	settings SettingsProvider,
	appointmentRepo AppointmentRepository,
	location *time.Location,
	logger Logger,
) *UseCase {
	if location == nil {
		location = time.UTC
	}
	return &UseCase{
		serviceRepo:     serviceRepo,
		settings:        settings,
		appointmentRepo: appointmentRepo,
		location:        location,
		logger:          logger,
	}
}

// Execute выполняет use case расчета доступности
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	day := domain.CalendarDay(req.Date, uc.location)
	dayStr := day.Start.Format(domain.DateFormat)

	uc.logger.Info("GetAvailability: service=%s, date=%s", req.ServiceID, dayStr)

	// 2. Получаем услугу
	service, err := uc.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailability: service id=%s not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailability: failed to get service id=%s: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 3. Получаем настройки (при отсутствии создаются значения по умолчанию)
	settings, err := uc.settings.Load(ctx)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to load settings: %v", err)
		return nil, fmt.Errorf("%w: failed to load settings: %v", ErrInternal, err)
	}

	response := &Response{
		Date:        dayStr,
		ServiceID:   service.ID,
		DurationMin: service.DurationMin,
		Slots:       []time.Time{},
	}

	// 4. Выходной день: записи не загружаем
	if settings.IsBlackout(dayStr) {
		uc.logger.Info("GetAvailability: %s is a blackout date", dayStr)
		response.IsBlackout = true
		return response, nil
	}

	// 5. Получаем неотмененные записи и блокировки, пересекающиеся с календарным днем
	appointments, err := uc.appointmentRepo.ListOverlapping(ctx, day)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to get appointments for %s: %v", dayStr, err)
		return nil, fmt.Errorf("%w: failed to get appointments: %v", ErrInternal, err)
	}

	// 6. Строим сетку слотов
	response.Slots = computeSlots(day.Start, service.DurationMin, settings, appointments, uc.location)
	response.SlotCount = len(response.Slots)

	uc.logger.Info("GetAvailability: %d free slots for service=%s on %s (busy=%d)",
		response.SlotCount, service.ID, dayStr, len(appointments))

	return response, nil
}
