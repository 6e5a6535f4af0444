package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Колонки записи и присоединенной услуги (LEFT JOIN, у блокировок услуги нет)
var selectColumns = []string{
	"a.id",
	"a.service_id",
	"a.customer_id",
	"a.start_utc",
	"a.end_utc",
	"a.status",
	"a.is_blocked",
	"a.block_reason",
	"a.guest_name",
	"a.guest_phone",
	"a.attendance_status",
	"a.reminder_sent",
	"a.created_at",
	"a.updated_at",
	"s.id",
	"s.title",
	"s.duration_min",
	"s.price",
	"s.created_at",
}

// Repository репозиторий записей (клиентских бронирований и административных блокировок)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

func (r *Repository) selectBuilder() squirrel.SelectBuilder {
	return psqlbuilder.Select(selectColumns...).
		From("appointments a").
		LeftJoin("services s ON s.id = a.service_id")
}

// Create сохраняет новую запись; ID генерируется, если не задан
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"id",
			"service_id",
			"customer_id",
			"start_utc",
			"end_utc",
			"status",
			"is_blocked",
			"block_reason",
			"guest_name",
			"guest_phone",
			"attendance_status",
			"reminder_sent",
		).
		Values(
			a.ID,
			a.ServiceID,
			a.CustomerID,
			a.StartUTC.UTC(),
			a.EndUTC.UTC(),
			a.Status,
			a.IsBlocked,
			a.BlockReason,
			a.GuestName,
			a.GuestPhone,
			a.AttendanceStatus,
			a.ReminderSent,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return a, nil
}

// GetByID получает запись по ID
// Внутри транзакции строка блокируется (FOR UPDATE OF a)
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := r.selectBuilder().Where(squirrel.Eq{"a.id": id})
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE OF a")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %w", ErrScanRow, err)
	}

	return a, nil
}

// ListOverlapping возвращает неотмененные записи (включая блокировки),
// пересекающиеся с полуоткрытым интервалом [start, end)
// Внутри транзакции найденные строки блокируются (FOR UPDATE OF a)
func (r *Repository) ListOverlapping(ctx context.Context, interval domain.Interval) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := r.selectBuilder().
		Where(squirrel.NotEq{"a.status": domain.StatusCancelled}).
		Where(squirrel.Lt{"a.start_utc": interval.End.UTC()}).
		Where(squirrel.Gt{"a.end_utc": interval.Start.UTC()}).
		OrderBy("a.start_utc ASC")

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE OF a")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverlapping - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// List получает записи с фильтрацией по периоду начала [From, To)
func (r *Repository) List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := r.selectBuilder().OrderBy("a.start_utc ASC")

	if filter.From != nil {
		builder = builder.Where(squirrel.GtOrEq{"a.start_utc": filter.From.UTC()})
	}
	if filter.To != nil {
		builder = builder.Where(squirrel.Lt{"a.start_utc": filter.To.UTC()})
	}
	if !filter.IncludeCancelled {
		builder = builder.Where(squirrel.NotEq{"a.status": domain.StatusCancelled})
	}
	if filter.OnlyBlocked {
		builder = builder.Where(squirrel.Eq{"a.is_blocked": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// ListByPhone получает записи клиента по телефону, новые первыми
func (r *Repository) ListByPhone(ctx context.Context, phone string) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.selectBuilder().
		Where(squirrel.Eq{"a.guest_phone": phone}).
		Where(squirrel.Eq{"a.is_blocked": false}).
		OrderBy("a.start_utc DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByPhone - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByPhone - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// ListDueForReminder получает записи, начинающиеся в [from, to], которым еще не отправлено напоминание
// Записи без услуги не возвращаются: в тексте напоминания нечего указать
func (r *Repository) ListDueForReminder(ctx context.Context, from, to time.Time, limit int) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := r.selectBuilder().
		Where(squirrel.GtOrEq{"a.start_utc": from.UTC()}).
		Where(squirrel.LtOrEq{"a.start_utc": to.UTC()}).
		Where(squirrel.NotEq{"a.status": domain.StatusCancelled}).
		Where(squirrel.Eq{"a.is_blocked": false}).
		Where(squirrel.Eq{"a.reminder_sent": false}).
		Where(squirrel.NotEq{"a.service_id": nil}).
		Where(squirrel.NotEq{"a.guest_phone": nil}).
		Where(squirrel.NotEq{"a.guest_phone": ""}).
		OrderBy("a.start_utc ASC")

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListDueForReminder - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListDueForReminder - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// UpdateStatus обновляет статус записи
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) error {
	return r.update(ctx, "UpdateStatus", id, map[string]interface{}{"status": status})
}

// SetAttendance устанавливает или очищает (nil) отметку о посещении
func (r *Repository) SetAttendance(ctx context.Context, id uuid.UUID, attendance *domain.AttendanceStatus) error {
	return r.update(ctx, "SetAttendance", id, map[string]interface{}{"attendance_status": attendance})
}

// MarkReminderSent атомарно выставляет флаг напоминания
// Возвращает false, если флаг уже был выставлен (напоминание забрал другой запуск)
func (r *Repository) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("reminder_sent", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"reminder_sent": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: MarkReminderSent - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: MarkReminderSent - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: MarkReminderSent - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}

// Delete физически удаляет запись (используется для снятия блокировок)
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}

// LockDay берет транзакционную advisory-блокировку на календарный день
// Сериализует бронирования одного дня поверх SERIALIZABLE
func (r *Repository) LockDay(ctx context.Context, day string) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return ErrTransactionRequired
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "appointments:"+day); err != nil {
		return fmt.Errorf("%w: LockDay - execute advisory lock: %w", ErrExecQuery, err)
	}

	return nil
}

func (r *Repository) update(ctx context.Context, method string, id uuid.UUID, values map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		SetMap(values).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, method, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}
	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		a            domain.Appointment
		serviceID    uuid.NullUUID
		customerID   uuid.NullUUID
		blockReason  sql.NullString
		guestName    sql.NullString
		guestPhone   sql.NullString
		attendance   sql.NullString
		svcID        uuid.NullUUID
		svcTitle     sql.NullString
		svcDuration  sql.NullInt64
		svcPrice     decimal.NullDecimal
		svcCreatedAt sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&serviceID,
		&customerID,
		&a.StartUTC,
		&a.EndUTC,
		&a.Status,
		&a.IsBlocked,
		&blockReason,
		&guestName,
		&guestPhone,
		&attendance,
		&a.ReminderSent,
		&a.CreatedAt,
		&a.UpdatedAt,
		&svcID,
		&svcTitle,
		&svcDuration,
		&svcPrice,
		&svcCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.StartUTC = a.StartUTC.UTC()
	a.EndUTC = a.EndUTC.UTC()

	if serviceID.Valid {
		a.ServiceID = &serviceID.UUID
	}
	if customerID.Valid {
		a.CustomerID = &customerID.UUID
	}
	if blockReason.Valid {
		a.BlockReason = &blockReason.String
	}
	if guestName.Valid {
		a.GuestName = &guestName.String
	}
	if guestPhone.Valid {
		a.GuestPhone = &guestPhone.String
	}
	if attendance.Valid {
		status := domain.AttendanceStatus(attendance.String)
		a.AttendanceStatus = &status
	}
	if svcID.Valid {
		a.Service = &domain.Service{
			ID:          svcID.UUID,
			Title:       svcTitle.String,
			DurationMin: int(svcDuration.Int64),
			Price:       svcPrice.Decimal,
			CreatedAt:   svcCreatedAt.Time,
		}
	}

	return &a, nil
}

// scanAppointments сканирует результаты запроса в слайс записей
func scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)

	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanAppointments - scan row: %w", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanAppointments - rows error: %w", ErrScanRow, err)
	}

	return appointments, nil
}
