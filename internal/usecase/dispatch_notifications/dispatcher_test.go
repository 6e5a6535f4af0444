package dispatch_notifications

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

type fakeOutbox struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.Notification

	markSentCalls  int
	failMarkSentOn int // номер вызова MarkSent, который вернет ошибку (0 - никогда)
}

func newOutbox(list ...*domain.Notification) *fakeOutbox {
	o := &fakeOutbox{rows: make(map[uuid.UUID]*domain.Notification)}
	for _, n := range list {
		o.rows[n.ID] = n
	}
	return o
}

func (o *fakeOutbox) FetchDue(_ context.Context, now time.Time, limit int) ([]*domain.Notification, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*domain.Notification
	for _, n := range o.rows {
		if n.Status == domain.NotificationPending && !n.NextAttemptAt.After(now) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (o *fakeOutbox) MarkSent(_ context.Context, id uuid.UUID, attempts int, sentAt time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.markSentCalls++
	if o.markSentCalls == o.failMarkSentOn {
		return errors.New("db connection reset")
	}
	n := o.rows[id]
	n.Status = domain.NotificationSent
	n.Attempts = attempts
	n.SentAt = &sentAt
	return nil
}

func (o *fakeOutbox) MarkRetry(_ context.Context, id uuid.UUID, attempts int, next time.Time, lastErr string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := o.rows[id]
	n.Attempts = attempts
	n.NextAttemptAt = next
	n.LastError = &lastErr
	return nil
}

func (o *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, attempts int, lastErr string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := o.rows[id]
	n.Status = domain.NotificationFailed
	n.Attempts = attempts
	n.LastError = &lastErr
	return nil
}

type fakeDeliverer struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (d *fakeDeliverer) Deliver(_ context.Context, n *domain.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n.Phone)
	return nil
}

type passTx struct{}

func (passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// rollbackTx восстанавливает строки outbox, если fn вернула ошибку
type rollbackTx struct{ o *fakeOutbox }

func (tx rollbackTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.o.mu.Lock()
	snapshot := make(map[uuid.UUID]domain.Notification, len(tx.o.rows))
	for id, n := range tx.o.rows {
		snapshot[id] = *n
	}
	tx.o.mu.Unlock()

	err := fn(ctx)
	if err != nil {
		tx.o.mu.Lock()
		for id, n := range snapshot {
			restored := n
			tx.o.rows[id] = &restored
		}
		tx.o.mu.Unlock()
	}
	return err
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *recordingMetrics) IncNotification(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[kind+"/"+outcome]++
}

type fixedTime struct{ now time.Time }

func (p fixedTime) Now() time.Time { return p.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func pending(kind domain.NotificationKind, phone string) *domain.Notification {
	return domain.NewNotification(kind, nil, phone, domain.MessageDetails{ServiceName: "Haircut"}, now.Add(-time.Minute))
}

func newDispatcher(o *fakeOutbox, d *fakeDeliverer, m *recordingMetrics) *Dispatcher {
	disp := NewDispatcher(o, d, passTx{}, m, Config{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  3,
		RetryBackoff: time.Minute,
	}, nopLogger{})
	disp.timeProvider = fixedTime{now: now}
	return disp
}

func TestProcessBatch_Sends(t *testing.T) {
	a := pending(domain.NotificationBookingConfirmation, "+1")
	b := pending(domain.NotificationReminder, "+2")
	future := pending(domain.NotificationReminder, "+3")
	future.NextAttemptAt = now.Add(time.Hour)
	o := newOutbox(a, b, future)
	d := &fakeDeliverer{}
	m := &recordingMetrics{}

	res, err := newDispatcher(o, d, m).processBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BatchResult{Sent: 2}, res)
	assert.ElementsMatch(t, []string{"+1", "+2"}, d.sent)
	assert.Equal(t, domain.NotificationSent, o.rows[a.ID].Status)
	assert.Equal(t, 1, o.rows[a.ID].Attempts)
	assert.Equal(t, domain.NotificationPending, o.rows[future.ID].Status)
	assert.Equal(t, 1, m.outcomes["reminder/"+metrics.NotificationOutcomeSent])
}

func TestProcessBatch_RetryWithLinearBackoffThenFail(t *testing.T) {
	n := pending(domain.NotificationReminder, "+1")
	o := newOutbox(n)
	d := &fakeDeliverer{err: errors.New("provider down")}
	m := &recordingMetrics{}
	disp := newDispatcher(o, d, m)

	res, err := disp.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Retried: 1}, res)
	assert.Equal(t, now.Add(time.Minute), o.rows[n.ID].NextAttemptAt)
	require.NotNil(t, o.rows[n.ID].LastError)
	assert.Equal(t, "provider down", *o.rows[n.ID].LastError)

	disp.timeProvider = fixedTime{now: now.Add(time.Minute)}
	_, err = disp.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, o.rows[n.ID].Attempts)
	assert.Equal(t, now.Add(3*time.Minute), o.rows[n.ID].NextAttemptAt)

	disp.timeProvider = fixedTime{now: now.Add(3 * time.Minute)}
	res, err = disp.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Failed: 1}, res)
	assert.Equal(t, domain.NotificationFailed, o.rows[n.ID].Status)
	assert.Equal(t, 3, o.rows[n.ID].Attempts)

	res, err = disp.processBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Total())

	assert.Equal(t, 2, m.outcomes["reminder/"+metrics.NotificationOutcomeRetry])
	assert.Equal(t, 1, m.outcomes["reminder/"+metrics.NotificationOutcomeFailed])
}

func TestProcessBatch_BookkeepingErrorDoesNotResendCommittedRows(t *testing.T) {
	first := pending(domain.NotificationBookingConfirmation, "+1")
	second := pending(domain.NotificationReminder, "+2")
	o := newOutbox(first, second)
	o.failMarkSentOn = 2
	d := &fakeDeliverer{}

	disp := NewDispatcher(o, d, rollbackTx{o: o}, &recordingMetrics{}, Config{BatchSize: 10}, nopLogger{})
	disp.timeProvider = fixedTime{now: now}

	res, err := disp.processBatch(context.Background())
	require.Error(t, err)
	assert.Equal(t, BatchResult{Sent: 1}, res)
	assert.Equal(t, domain.NotificationSent, o.rows[first.ID].Status)
	assert.Equal(t, domain.NotificationPending, o.rows[second.ID].Status)

	res, err = disp.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Sent: 1}, res)
	assert.Equal(t, domain.NotificationSent, o.rows[second.ID].Status)

	// Откатилась только строка с ошибкой учета, первая строка отправлена один раз
	assert.Equal(t, []string{"+1", "+2", "+2"}, d.sent)
}

func TestRun_StopsOnCancel(t *testing.T) {
	o := newOutbox(pending(domain.NotificationBookingConfirmation, "+1"))
	d := &fakeDeliverer{}
	disp := newDispatcher(o, d, &recordingMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- disp.Run(ctx) }()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.sent) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
