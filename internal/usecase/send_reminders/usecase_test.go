package send_reminders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/redislock"
)

type fakeSettings struct{ settings *domain.Settings }

func (f fakeSettings) Load(context.Context) (*domain.Settings, error) { return f.settings, nil }

type fakeAppointments struct {
	mu       sync.Mutex
	rows     []*domain.Appointment
	lastFrom time.Time
	lastTo   time.Time
	// stolen эмулирует конкурентный запуск, успевший выставить флаг первым
	stolen map[uuid.UUID]bool
}

func (f *fakeAppointments) ListDueForReminder(_ context.Context, from, to time.Time, _ int) ([]*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFrom, f.lastTo = from, to

	var out []*domain.Appointment
	for _, a := range f.rows {
		if a.NeedsReminder() && !a.StartUTC.Before(from) && !a.StartUTC.After(to) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAppointments) MarkReminderSent(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stolen[id] {
		return false, nil
	}
	for _, a := range f.rows {
		if a.ID == id {
			if a.ReminderSent {
				return false, nil
			}
			a.ReminderSent = true
			return true, nil
		}
	}
	return false, nil
}

type fakeOutbox struct {
	mu    sync.Mutex
	items []*domain.Notification
}

func (f *fakeOutbox) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	return nil
}

type passTx struct{}

func (passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, time.Duration, func(context.Context) error) error {
	return redislock.ErrNotAcquired
}

type freeLocker struct{ keys []string }

func (l *freeLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	l.keys = append(l.keys, key)
	return fn(ctx)
}

type countingMetrics struct {
	mu    sync.Mutex
	total int
}

func (m *countingMetrics) AddRemindersEnqueued(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total += n
}

type fixedTime struct{ now time.Time }

func (p fixedTime) Now() time.Time { return p.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func appointmentAt(start time.Time) *domain.Appointment {
	return &domain.Appointment{
		ID:         uuid.New(),
		StartUTC:   start,
		EndUTC:     start.Add(30 * time.Minute),
		Status:     domain.StatusConfirmed,
		GuestName:  ptr.Ptr("Alice"),
		GuestPhone: ptr.Ptr("+15550001"),
		Service:    &domain.Service{Title: "Haircut"},
	}
}

func newUseCase(appts *fakeAppointments, outbox *fakeOutbox, locker Locker, m *countingMetrics) *UseCase {
	uc := NewUseCase(
		fakeSettings{settings: domain.DefaultSettings()},
		appts, outbox, passTx{}, locker, m,
		Config{}, time.UTC, nopLogger{},
	)
	uc.timeProvider = fixedTime{now: now}
	return uc
}

func TestExecute_EnqueuesWithinWindow(t *testing.T) {
	inWindow := appointmentAt(now.Add(60 * time.Minute))
	edge := appointmentAt(now.Add(75 * time.Minute))
	tooLate := appointmentAt(now.Add(90 * time.Minute))
	cancelled := appointmentAt(now.Add(60 * time.Minute))
	cancelled.Status = domain.StatusCancelled
	noPhone := appointmentAt(now.Add(60 * time.Minute))
	noPhone.GuestPhone = nil

	appts := &fakeAppointments{rows: []*domain.Appointment{inWindow, edge, tooLate, cancelled, noPhone}}
	outbox := &fakeOutbox{}
	m := &countingMetrics{}

	resp, err := newUseCase(appts, outbox, nil, m).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 60, resp.ReminderMinutes)
	assert.Equal(t, now.Add(45*time.Minute), resp.WindowStart)
	assert.Equal(t, now.Add(75*time.Minute), resp.WindowEnd)
	assert.Equal(t, 2, resp.Processed)
	assert.Equal(t, 2, resp.Enqueued)
	assert.Equal(t, 2, m.total)

	require.Len(t, outbox.items, 2)
	n := outbox.items[0]
	assert.Equal(t, domain.NotificationReminder, n.Kind)
	assert.Equal(t, "+15550001", n.Phone)
	assert.Equal(t, domain.MessageDetails{ServiceName: "Haircut", Date: "2024-06-10", Time: "10:00"}, n.Payload)

	assert.True(t, inWindow.ReminderSent)
	assert.False(t, tooLate.ReminderSent)
}

func TestExecute_SecondRunDoesNotResend(t *testing.T) {
	appts := &fakeAppointments{rows: []*domain.Appointment{appointmentAt(now.Add(time.Hour))}}
	outbox := &fakeOutbox{}
	uc := newUseCase(appts, outbox, nil, &countingMetrics{})

	first, err := uc.Execute(context.Background())
	require.NoError(t, err)
	second, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Enqueued)
	assert.Zero(t, second.Processed)
	assert.Zero(t, second.Enqueued)
	assert.Len(t, outbox.items, 1)
}

func TestExecute_LostClaimIsSkipped(t *testing.T) {
	a := appointmentAt(now.Add(time.Hour))
	appts := &fakeAppointments{rows: []*domain.Appointment{a}, stolen: map[uuid.UUID]bool{a.ID: true}}
	outbox := &fakeOutbox{}

	resp, err := newUseCase(appts, outbox, nil, &countingMetrics{}).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Processed)
	assert.Zero(t, resp.Enqueued)
	assert.Empty(t, outbox.items)
}

func TestExecute_ConcurrentRunsEnqueueOnce(t *testing.T) {
	var rows []*domain.Appointment
	for i := 0; i < 10; i++ {
		rows = append(rows, appointmentAt(now.Add(time.Hour+time.Duration(i)*time.Minute)))
	}
	appts := &fakeAppointments{rows: rows}
	outbox := &fakeOutbox{}
	uc := newUseCase(appts, outbox, nil, &countingMetrics{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = uc.Execute(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, outbox.items, 10)
}

func TestExecute_AppointmentWithoutServiceIsSkipped(t *testing.T) {
	withService := appointmentAt(now.Add(time.Hour))
	orphan := appointmentAt(now.Add(time.Hour + 5*time.Minute))
	orphan.Service = nil
	appts := &fakeAppointments{rows: []*domain.Appointment{withService, orphan}}
	outbox := &fakeOutbox{}

	resp, err := newUseCase(appts, outbox, nil, &countingMetrics{}).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Processed)
	assert.Equal(t, 1, resp.Enqueued)
	require.Len(t, outbox.items, 1)
	assert.Equal(t, "Haircut", outbox.items[0].Payload.ServiceName)
	// Флаг не выставлен: запись не считается получившей напоминание
	assert.False(t, orphan.ReminderSent)
}

func TestExecute_Locking(t *testing.T) {
	appts := &fakeAppointments{rows: []*domain.Appointment{appointmentAt(now.Add(time.Hour))}}

	_, err := newUseCase(appts, &fakeOutbox{}, busyLocker{}, &countingMetrics{}).Execute(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	locker := &freeLocker{}
	resp, err := newUseCase(appts, &fakeOutbox{}, locker, &countingMetrics{}).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Enqueued)
	assert.Equal(t, []string{lockKey}, locker.keys)
}

func TestRun_StopsOnCancel(t *testing.T) {
	appts := &fakeAppointments{rows: []*domain.Appointment{appointmentAt(now.Add(time.Hour))}}
	outbox := &fakeOutbox{}
	uc := newUseCase(appts, outbox, nil, &countingMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- uc.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		outbox.mu.Lock()
		defer outbox.mu.Unlock()
		return len(outbox.items) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
