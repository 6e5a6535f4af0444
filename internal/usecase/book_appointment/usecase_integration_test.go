//go:build integration

package book_appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	customerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/customer"
	notificationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/notification"
	serviceRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/service"
	settingsRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/settings"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	appointmentModels "github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AppointmentService/internal/service/settings"
	"github.com/m04kA/SMC-AppointmentService/internal/testhelpers"
	getAvailability "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

func TestExecute_Postgres_ConcurrentBookingsOfOneSlot(t *testing.T) {
	db := dbmetrics.Wrap(testhelpers.StartPostgres(t), nil)
	ctx := context.Background()

	services := serviceRepo.NewRepository(db)
	appointments := appointmentRepo.NewRepository(db)

	svc, err := services.Create(ctx, &domain.Service{Title: "Haircut", DurationMin: 30, Price: decimal.NewFromInt(25)})
	require.NoError(t, err)

	uc := NewUseCase(
		services,
		appointments,
		customerRepo.NewRepository(db),
		notificationRepo.NewRepository(db),
		txmanager.NewTransactionManager(db),
		(*metrics.Metrics)(nil),
		time.UTC,
		logger.NewNop(),
	)

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)

	const workers = 12
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		taken     atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.Execute(ctx, &Request{
				ServiceID:  svc.ID,
				StartUTC:   start.Add(time.Duration(i%3) * 10 * time.Minute),
				GuestName:  "Guest",
				GuestPhone: fmt.Sprintf("+15550%03d", i),
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrSlotTaken):
				taken.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Все три кандидата (start, +10, +20) пересекаются попарно: выживает ровно одна запись
	assert.EqualValues(t, 1, succeeded.Load())
	assert.EqualValues(t, workers-1, taken.Load())

	active, err := appointments.ListOverlapping(ctx, domain.NewInterval(start, time.Hour))
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestExecute_Postgres_TouchingAndCancelled(t *testing.T) {
	db := dbmetrics.Wrap(testhelpers.StartPostgres(t), nil)
	ctx := context.Background()

	services := serviceRepo.NewRepository(db)
	appointments := appointmentRepo.NewRepository(db)

	svc, err := services.Create(ctx, &domain.Service{Title: "Haircut", DurationMin: 30, Price: decimal.NewFromInt(25)})
	require.NoError(t, err)

	uc := NewUseCase(
		services,
		appointments,
		customerRepo.NewRepository(db),
		notificationRepo.NewRepository(db),
		txmanager.NewTransactionManager(db),
		(*metrics.Metrics)(nil),
		time.UTC,
		logger.NewNop(),
	)

	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour)
	book := func(at time.Time, phone string) (*Response, error) {
		return uc.Execute(ctx, &Request{ServiceID: svc.ID, StartUTC: at, GuestName: "Guest", GuestPhone: phone})
	}

	first, err := book(start, "+15550001")
	require.NoError(t, err)

	// Конец одной записи совпадает с началом другой
	_, err = book(start.Add(30*time.Minute), "+15550002")
	require.NoError(t, err)

	_, err = book(start.Add(15*time.Minute), "+15550003")
	assert.ErrorIs(t, err, ErrSlotTaken)

	require.NoError(t, appointments.UpdateStatus(ctx, first.ID, domain.StatusCancelled))

	again, err := book(start, "+15550003")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), again.Status)
}

func TestExecute_Postgres_BookedSlotLeavesAndReturnsToAvailability(t *testing.T) {
	db := dbmetrics.Wrap(testhelpers.StartPostgres(t), nil)
	ctx := context.Background()
	log := logger.NewNop()

	services := serviceRepo.NewRepository(db)
	appointmentsRepo := appointmentRepo.NewRepository(db)
	txMgr := txmanager.NewTransactionManager(db)

	svc, err := services.Create(ctx, &domain.Service{Title: "Haircut", DurationMin: 30, Price: decimal.NewFromInt(25)})
	require.NoError(t, err)

	book := NewUseCase(
		services,
		appointmentsRepo,
		customerRepo.NewRepository(db),
		notificationRepo.NewRepository(db),
		txMgr,
		(*metrics.Metrics)(nil),
		time.UTC,
		log,
	)
	availability := getAvailability.NewUseCase(
		services,
		settings.NewService(settingsRepo.NewRepository(db), txMgr, log),
		appointmentsRepo,
		time.UTC,
		log,
	)
	appointmentService := appointmentsService.NewService(appointmentsRepo, txMgr, time.UTC, false, log)

	day := time.Now().UTC().AddDate(0, 0, 3).Truncate(24 * time.Hour)
	tenAM := day.Add(10 * time.Hour)

	freeSlots := func() []time.Time {
		resp, err := availability.Execute(ctx, &getAvailability.Request{ServiceID: svc.ID, Date: day})
		require.NoError(t, err)
		require.False(t, resp.IsBlackout)
		return resp.Slots
	}

	// Рабочий день по умолчанию 09:00-17:00, услуга 30 минут
	require.Len(t, freeSlots(), 16)

	booked, err := book.Execute(ctx, &Request{
		ServiceID:  svc.ID,
		StartUTC:   tenAM,
		GuestName:  "Guest",
		GuestPhone: "+15550001",
	})
	require.NoError(t, err)

	slots := freeSlots()
	assert.Len(t, slots, 15)
	assert.NotContains(t, slots, tenAM)
	assert.Contains(t, slots, tenAM.Add(-30*time.Minute))
	assert.Contains(t, slots, tenAM.Add(30*time.Minute))

	require.NoError(t, appointmentService.Cancel(ctx, booked.ID, appointmentModels.Caller{Phone: "+15550001"}))

	slots = freeSlots()
	assert.Len(t, slots, 16)
	assert.Contains(t, slots, tenAM)
}
