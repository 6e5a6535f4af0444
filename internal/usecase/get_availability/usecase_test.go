package get_availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	serviceRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/service"
)

type fakeServices struct {
	items map[uuid.UUID]*domain.Service
}

func (f *fakeServices) GetByID(_ context.Context, id uuid.UUID) (*domain.Service, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, serviceRepo.ErrServiceNotFound
	}
	return s, nil
}

type fakeSettings struct {
	settings *domain.Settings
	err      error
}

func (f *fakeSettings) Load(context.Context) (*domain.Settings, error) {
	return f.settings, f.err
}

type fakeAppointments struct {
	list  []*domain.Appointment
	calls int
	last  domain.Interval
}

func (f *fakeAppointments) ListOverlapping(_ context.Context, interval domain.Interval) ([]*domain.Appointment, error) {
	f.calls++
	f.last = interval
	return f.list, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func setup(settings *domain.Settings, busy ...*domain.Appointment) (*UseCase, *domain.Service, *fakeAppointments) {
	svc := &domain.Service{ID: uuid.New(), Title: "Haircut", DurationMin: 30, Price: decimal.NewFromInt(25)}
	appts := &fakeAppointments{list: busy}
	uc := NewUseCase(
		&fakeServices{items: map[uuid.UUID]*domain.Service{svc.ID: svc}},
		&fakeSettings{settings: settings},
		appts,
		time.UTC,
		nopLogger{},
	)
	return uc, svc, appts
}

func TestExecute_SixteenSlots(t *testing.T) {
	uc, svc, appts := setup(domain.DefaultSettings())

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: svc.ID, Date: at(14, 0)})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-10", resp.Date)
	assert.False(t, resp.IsBlackout)
	assert.Equal(t, 16, resp.SlotCount)
	assert.Len(t, resp.Slots, 16)
	assert.Equal(t, 30, resp.DurationMin)
	assert.Equal(t, domain.CalendarDay(day, time.UTC), appts.last)
}

func TestExecute_Blackout(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.BlackoutDates = []string{"2024-06-10"}
	uc, svc, appts := setup(settings, appt(at(10, 0), 30, domain.StatusConfirmed))

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: svc.ID, Date: at(9, 0)})
	require.NoError(t, err)

	assert.True(t, resp.IsBlackout)
	assert.Empty(t, resp.Slots)
	assert.Zero(t, resp.SlotCount)
	assert.Zero(t, appts.calls)
}

func TestExecute_ServiceNotFound(t *testing.T) {
	uc, _, _ := setup(domain.DefaultSettings())

	_, err := uc.Execute(context.Background(), &Request{ServiceID: uuid.New(), Date: day})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestExecute_Validation(t *testing.T) {
	uc, svc, _ := setup(domain.DefaultSettings())

	_, err := uc.Execute(context.Background(), &Request{Date: day})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{ServiceID: svc.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecute_SettingsError(t *testing.T) {
	svc := &domain.Service{ID: uuid.New(), DurationMin: 30}
	uc := NewUseCase(
		&fakeServices{items: map[uuid.UUID]*domain.Service{svc.ID: svc}},
		&fakeSettings{err: assert.AnError},
		&fakeAppointments{},
		time.UTC,
		nopLogger{},
	)

	_, err := uc.Execute(context.Background(), &Request{ServiceID: svc.ID, Date: day})
	assert.ErrorIs(t, err, ErrInternal)
}
