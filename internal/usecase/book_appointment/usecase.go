package book_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	customerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/customer"
	serviceRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/service"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

// UseCase use case для атомарного создания записи
type UseCase struct {
	serviceRepo      ServiceRepository
	appointmentRepo  AppointmentRepository
	customerRepo     CustomerRepository
	notificationRepo NotificationRepository
	txManager        TransactionManager
	metrics          Metrics
	location         *time.Location
	timeProvider     TimeProvider
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	serviceRepo ServiceRepository,
	appointmentRepo AppointmentRepository,
	customerRepo CustomerRepository,
	notificationRepo NotificationRepository,
	txManager TransactionManager,
	bookingMetrics Metrics,
	location *time.Location,
	logger Logger,
) *UseCase {
	if location == nil {
		location = time.UTC
	}
	return &UseCase{
		serviceRepo:      serviceRepo,
		appointmentRepo:  appointmentRepo,
		customerRepo:     customerRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		metrics:          bookingMetrics,
		location:         location,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute выполняет use case создания записи
// Проверка пересечений и вставка выполняются в одной сериализуемой транзакции
// под advisory-блокировкой календарного дня
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("BookAppointment: validation failed: %v", err)
		uc.metrics.IncBooking(metrics.BookingOutcomeRejected)
		return nil, err
	}

	uc.logger.Info("BookAppointment: service=%s, start=%s, phone=%s",
		req.ServiceID, req.StartUTC.UTC().Format(time.RFC3339), req.GuestPhone)

	// 2. Получаем услугу
	service, err := uc.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			uc.logger.Warn("BookAppointment: service id=%s not found", req.ServiceID)
			uc.metrics.IncBooking(metrics.BookingOutcomeRejected)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("BookAppointment: failed to get service id=%s: %v", req.ServiceID, err)
		uc.metrics.IncBooking(metrics.BookingOutcomeError)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 3. Интервал записи [start, start+duration)
	interval := domain.NewInterval(req.StartUTC.UTC(), service.Duration())
	day := interval.Start.In(uc.location).Format(domain.DateFormat)

	// Переменная для хранения результата
	var result *domain.Appointment

	// 4. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 4.1. Сериализуем бронирования одного дня
		if err := uc.appointmentRepo.LockDay(txCtx, day); err != nil {
			return fmt.Errorf("%w: failed to lock day %s: %w", ErrInternal, day, err)
		}

		// 4.2. Ищем пересекающиеся записи с блокировкой (FOR UPDATE)
		overlapping, err := uc.appointmentRepo.ListOverlapping(txCtx, interval)
		if err != nil {
			return fmt.Errorf("%w: failed to get overlapping appointments: %w", ErrInternal, err)
		}
		if len(overlapping) > 0 {
			uc.logger.Warn("BookAppointment: slot %s is taken by %d appointments",
				interval.Start.Format(time.RFC3339), len(overlapping))
			return ErrSlotTaken
		}

		// 4.3. Находим или создаем клиента по телефону
		customer, err := uc.resolveCustomer(txCtx, req.GuestPhone, req.GuestName)
		if err != nil {
			return err
		}

		// 4.4. Создаем запись
		appointment := &domain.Appointment{
			ServiceID:  ptr.Ptr(service.ID),
			CustomerID: ptr.Ptr(customer.ID),
			StartUTC:   interval.Start,
			EndUTC:     interval.End,
			Status:     domain.StatusConfirmed,
			GuestName:  ptr.Ptr(req.GuestName),
			GuestPhone: ptr.Ptr(req.GuestPhone),
		}

		created, err := uc.appointmentRepo.Create(txCtx, appointment)
		if err != nil {
			return fmt.Errorf("%w: failed to create appointment: %w", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrSlotTaken):
			uc.metrics.IncBooking(metrics.BookingOutcomeConflict)
			return nil, ErrSlotTaken
		case txmanager.IsSerializationFailure(err):
			uc.logger.Warn("BookAppointment: serialization conflict for slot %s", interval.Start.Format(time.RFC3339))
			uc.metrics.IncBooking(metrics.BookingOutcomeConflict)
			return nil, ErrSlotTaken
		default:
			uc.logger.Error("BookAppointment: transaction failed: %v", err)
			uc.metrics.IncBooking(metrics.BookingOutcomeError)
			return nil, err
		}
	}

	result.Service = service
	uc.metrics.IncBooking(metrics.BookingOutcomeCreated)
	uc.logger.Info("BookAppointment: successfully created appointment id=%s", result.ID)

	// 5. После коммита ставим подтверждение в outbox; ошибка не отменяет запись
	uc.enqueueConfirmation(ctx, result, service)

	return toResponse(result, service), nil
}

// resolveCustomer находит клиента по телефону и обновляет имя, либо создает нового
func (uc *UseCase) resolveCustomer(ctx context.Context, phone, name string) (*domain.Customer, error) {
	customer, err := uc.customerRepo.GetByPhone(ctx, phone)
	if err == nil {
		if customer.Name != name {
			if err := uc.customerRepo.UpdateName(ctx, customer.ID, name); err != nil {
				return nil, fmt.Errorf("%w: failed to update customer name: %w", ErrInternal, err)
			}
			customer.Name = name
		}
		return customer, nil
	}
	if !errors.Is(err, customerRepo.ErrCustomerNotFound) {
		return nil, fmt.Errorf("%w: failed to get customer: %w", ErrInternal, err)
	}

	created, err := uc.customerRepo.Create(ctx, &domain.Customer{Phone: phone, Name: name})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create customer: %w", ErrInternal, err)
	}
	return created, nil
}

func (uc *UseCase) enqueueConfirmation(ctx context.Context, a *domain.Appointment, service *domain.Service) {
	details := domain.DetailsFor(a, service.Title, uc.location)
	n := domain.NewNotification(domain.NotificationBookingConfirmation, ptr.Ptr(a.ID), ptr.Deref(a.GuestPhone), details, uc.timeProvider.Now())

	if err := uc.notificationRepo.Create(ctx, n); err != nil {
		uc.logger.Error("BookAppointment: failed to enqueue confirmation for appointment id=%s: %v", a.ID, err)
		return
	}

	uc.logger.Info("BookAppointment: confirmation id=%s enqueued for appointment id=%s", n.ID, a.ID)
}

func toResponse(a *domain.Appointment, service *domain.Service) *Response {
	return &Response{
		ID:         a.ID,
		ServiceID:  service.ID,
		CustomerID: ptr.Deref(a.CustomerID),
		StartUTC:   a.StartUTC,
		EndUTC:     a.EndUTC,
		Status:     string(a.Status),
		GuestName:  ptr.Deref(a.GuestName),
		GuestPhone: ptr.Deref(a.GuestPhone),
		Service: ServiceInfo{
			ID:          service.ID,
			Title:       service.Title,
			DurationMin: service.DurationMin,
			Price:       service.Price,
		},
		CreatedAt: a.CreatedAt,
	}
}
