package send_reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/redislock"
)

const lockKey = "send_reminders"

// UseCase use case для постановки SMS-напоминаний в outbox
type UseCase struct {
	settings         SettingsProvider
	appointmentRepo  AppointmentRepository
	notificationRepo NotificationRepository
	txManager        TransactionManager
	locker           Locker
	metrics          Metrics
	cfg              Config
	location         *time.Location
	timeProvider     TimeProvider
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
// locker может быть nil: тогда запуски сериализуются только флагом reminder_sent
func NewUseCase(
	settings SettingsProvider,
	appointmentRepo AppointmentRepository,
	notificationRepo NotificationRepository,
	txManager TransactionManager,
	locker Locker,
	reminderMetrics Metrics,
	cfg Config,
	location *time.Location,
	logger Logger,
) *UseCase {
	if location == nil {
		location = time.UTC
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Duration(domain.ReminderWindowMinutes) * time.Minute
	}
	return &UseCase{
		settings:         settings,
		appointmentRepo:  appointmentRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		locker:           locker,
		metrics:          reminderMetrics,
		cfg:              cfg,
		location:         location,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute выполняет один запуск рассылки
// Окно: now + smsReminderMinutes ± cfg.Window (по умолчанию 15 минут)
func (uc *UseCase) Execute(ctx context.Context) (*Response, error) {
	if uc.locker == nil {
		return uc.run(ctx)
	}

	var result *Response
	err := uc.locker.WithLock(ctx, lockKey, uc.cfg.LockTTL, func(lockCtx context.Context) error {
		var err error
		result, err = uc.run(lockCtx)
		return err
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotAcquired) {
			uc.logger.Warn("SendReminders: skipped, another run holds the lock")
			return nil, ErrAlreadyRunning
		}
		if result == nil {
			return nil, err
		}
		// Рассылка выполнена, не удалось только освободить блокировку
		uc.logger.Warn("SendReminders: failed to release lock: %v", err)
	}

	return result, nil
}

// Run запускает Execute по таймеру до отмены контекста
func (uc *UseCase) Run(ctx context.Context, interval time.Duration) error {
	uc.logger.Info("SendReminders: scheduler started, interval=%s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("SendReminders: scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := uc.Execute(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				uc.logger.Error("SendReminders: run failed: %v", err)
			}
		}
	}
}

func (uc *UseCase) run(ctx context.Context) (*Response, error) {
	// 1. Получаем настройки
	settings, err := uc.settings.Load(ctx)
	if err != nil {
		uc.logger.Error("SendReminders: failed to load settings: %v", err)
		return nil, fmt.Errorf("%w: failed to load settings: %v", ErrInternal, err)
	}

	// 2. Вычисляем окно
	now := uc.timeProvider.Now().UTC()
	target := now.Add(settings.ReminderLead())
	halfWindow := uc.cfg.Window

	resp := &Response{
		ReminderMinutes: settings.SMSReminderMinutes,
		WindowStart:     target.Add(-halfWindow),
		WindowEnd:       target.Add(halfWindow),
	}

	// 3. Получаем кандидатов
	due, err := uc.appointmentRepo.ListDueForReminder(ctx, resp.WindowStart, resp.WindowEnd, uc.cfg.BatchSize)
	if err != nil {
		uc.logger.Error("SendReminders: failed to list appointments: %v", err)
		return nil, fmt.Errorf("%w: failed to list appointments: %v", ErrInternal, err)
	}
	resp.Processed = len(due)

	// 4. Для каждой записи: захват флага и постановка в outbox в одной транзакции
	for _, a := range due {
		if !a.NeedsReminder() {
			continue
		}
		if a.Service == nil {
			uc.logger.Warn("SendReminders: appointment id=%s has no service, skipped", a.ID)
			continue
		}

		enqueued, err := uc.enqueue(ctx, a)
		if err != nil {
			uc.logger.Error("SendReminders: appointment id=%s: %v", a.ID, err)
			continue
		}
		if enqueued {
			resp.Enqueued++
		}
	}

	uc.metrics.AddRemindersEnqueued(resp.Enqueued)
	uc.logger.Info("SendReminders: window [%s, %s], processed=%d, enqueued=%d",
		resp.WindowStart.Format(time.RFC3339), resp.WindowEnd.Format(time.RFC3339), resp.Processed, resp.Enqueued)

	return resp, nil
}

// enqueue возвращает false, если напоминание уже забрал другой запуск
func (uc *UseCase) enqueue(ctx context.Context, a *domain.Appointment) (bool, error) {
	claimed := false

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		ok, err := uc.appointmentRepo.MarkReminderSent(txCtx, a.ID)
		if err != nil {
			return fmt.Errorf("claim reminder: %w", err)
		}
		if !ok {
			return nil
		}

		details := domain.DetailsFor(a, a.Service.Title, uc.location)
		n := domain.NewNotification(domain.NotificationReminder, ptr.Ptr(a.ID), ptr.Deref(a.GuestPhone), details, uc.timeProvider.Now())

		if err := uc.notificationRepo.Create(txCtx, n); err != nil {
			return fmt.Errorf("enqueue reminder: %w", err)
		}

		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return claimed, nil
}
