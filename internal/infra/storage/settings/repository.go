package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository хранит единственную строку настроек календаря
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get получает настройки по ключу
// Внутри транзакции строка блокируется для read-modify-write
func (r *Repository) Get(ctx context.Context, id string) (*domain.Settings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(
		"id",
		"work_start_hour",
		"work_end_hour",
		"blackout_dates",
		"sms_reminder_minutes",
		"updated_at",
	).
		From("settings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var (
		s        domain.Settings
		blackout pq.StringArray
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ID,
		&s.WorkStartHour,
		&s.WorkEndHour,
		&blackout,
		&s.SMSReminderMinutes,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan settings: %w", ErrScanRow, err)
	}

	s.BlackoutDates = []string(blackout)
	if s.BlackoutDates == nil {
		s.BlackoutDates = []string{}
	}

	return &s, nil
}

// CreateIfNotExists вставляет строку, если её еще нет (конкурентные вставки безопасны)
func (r *Repository) CreateIfNotExists(ctx context.Context, s *domain.Settings) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("settings").
		Columns("id", "work_start_hour", "work_end_hour", "blackout_dates", "sms_reminder_minutes").
		Values(s.ID, s.WorkStartHour, s.WorkEndHour, pq.StringArray(s.BlackoutDates), s.SMSReminderMinutes).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: CreateIfNotExists - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: CreateIfNotExists - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}

// Update перезаписывает все изменяемые поля настроек
func (r *Repository) Update(ctx context.Context, s *domain.Settings) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("settings").
		Set("work_start_hour", s.WorkStartHour).
		Set("work_end_hour", s.WorkEndHour).
		Set("blackout_dates", pq.StringArray(s.BlackoutDates)).
		Set("sms_reminder_minutes", s.SMSReminderMinutes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSettingsNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	return nil
}
