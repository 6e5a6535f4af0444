package dispatch_notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

// Dispatcher доставляет уведомления из outbox
// Несколько экземпляров могут работать параллельно: строки разбираются через SKIP LOCKED
// Строка остается заблокированной, пока идет отправка, поэтому параллельный диспетчер ее пропускает
type Dispatcher struct {
	repo         NotificationRepository
	deliverer    Deliverer
	txManager    TransactionManager
	metrics      Metrics
	cfg          Config
	timeProvider TimeProvider
	logger       Logger
}

// NewDispatcher создает новый экземпляр диспетчера
func NewDispatcher(
	repo NotificationRepository,
	deliverer Deliverer,
	txManager TransactionManager,
	notificationMetrics Metrics,
	cfg Config,
	logger Logger,
) *Dispatcher {
	return &Dispatcher{
		repo:         repo,
		deliverer:    deliverer,
		txManager:    txManager,
		metrics:      notificationMetrics,
		cfg:          cfg.withDefaults(),
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Run обрабатывает outbox по таймеру до отмены контекста
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Dispatcher: started, poll=%s, batch=%d, maxAttempts=%d",
		d.cfg.PollInterval, d.cfg.BatchSize, d.cfg.MaxAttempts)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher: stopped")
			return nil
		case <-ticker.C:
			if _, err := d.processBatch(ctx); err != nil {
				d.logger.Error("Dispatcher: batch failed: %v", err)
			}
		}
	}
}

// processBatch отправляет до BatchSize уведомлений
// Каждое уведомление обрабатывается в своей короткой транзакции: ошибка учета одной строки
// откатывает только ее, уже отмеченные отправленными строки повторно не уходят
// На первой ошибке пачка прерывается
func (d *Dispatcher) processBatch(ctx context.Context) (BatchResult, error) {
	var result BatchResult
	now := d.timeProvider.Now()

	for i := 0; i < d.cfg.BatchSize; i++ {
		found, err := d.processOne(ctx, now, &result)
		if err != nil {
			return result, err
		}
		if !found {
			break
		}
	}

	if result.Total() > 0 {
		d.logger.Info("Dispatcher: sent=%d, retried=%d, failed=%d", result.Sent, result.Retried, result.Failed)
	}
	return result, nil
}

// processOne захватывает одно уведомление (FOR UPDATE SKIP LOCKED), отправляет и фиксирует исход
// Возвращает false, если ожидающих уведомлений нет
func (d *Dispatcher) processOne(ctx context.Context, now time.Time, result *BatchResult) (bool, error) {
	var (
		found   bool
		outcome BatchResult
	)

	err := d.txManager.Do(ctx, func(txCtx context.Context) error {
		due, err := d.repo.FetchDue(txCtx, now, 1)
		if err != nil {
			return fmt.Errorf("fetch due notifications: %w", err)
		}
		if len(due) == 0 {
			return nil
		}

		found = true
		return d.deliver(txCtx, due[0], now, &outcome)
	})
	if err != nil {
		return false, err
	}

	result.Sent += outcome.Sent
	result.Retried += outcome.Retried
	result.Failed += outcome.Failed
	return found, nil
}

func (d *Dispatcher) deliver(ctx context.Context, n *domain.Notification, now time.Time, result *BatchResult) error {
	attempts := n.Attempts + 1
	kind := string(n.Kind)

	sendErr := d.deliverer.Deliver(ctx, n)
	if sendErr == nil {
		if err := d.repo.MarkSent(ctx, n.ID, attempts, now); err != nil {
			return fmt.Errorf("mark notification id=%s sent: %w", n.ID, err)
		}
		d.metrics.IncNotification(kind, metrics.NotificationOutcomeSent)
		result.Sent++
		return nil
	}

	if attempts >= d.cfg.MaxAttempts {
		d.logger.Error("Dispatcher: notification id=%s (%s) failed after %d attempts: %v", n.ID, kind, attempts, sendErr)
		if err := d.repo.MarkFailed(ctx, n.ID, attempts, sendErr.Error()); err != nil {
			return fmt.Errorf("mark notification id=%s failed: %w", n.ID, err)
		}
		d.metrics.IncNotification(kind, metrics.NotificationOutcomeFailed)
		result.Failed++
		return nil
	}

	next := now.Add(d.cfg.RetryBackoff * time.Duration(attempts))
	d.logger.Warn("Dispatcher: notification id=%s (%s) attempt %d failed, retry at %s: %v",
		n.ID, kind, attempts, next.Format(time.RFC3339), sendErr)
	if err := d.repo.MarkRetry(ctx, n.ID, attempts, next, sendErr.Error()); err != nil {
		return fmt.Errorf("mark notification id=%s for retry: %w", n.ID, err)
	}
	d.metrics.IncNotification(kind, metrics.NotificationOutcomeRetry)
	result.Retried++
	return nil
}
