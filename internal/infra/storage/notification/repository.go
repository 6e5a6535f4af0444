package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository transactional outbox SMS-уведомлений
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create ставит уведомление в очередь
func (r *Repository) Create(ctx context.Context, n *domain.Notification) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("%w: Create - marshal payload: %v", ErrPayload, err)
	}

	query, args, err := psqlbuilder.Insert("notifications").
		Columns("id", "appointment_id", "kind", "phone", "payload", "status", "attempts", "next_attempt_at").
		Values(n.ID, n.AppointmentID, n.Kind, n.Phone, string(payload), n.Status, n.Attempts, n.NextAttemptAt.UTC()).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}

// FetchDue выбирает пачку ожидающих уведомлений с истекшим next_attempt_at
// Строки блокируются FOR UPDATE SKIP LOCKED, поэтому несколько диспетчеров не берут одно и то же
func (r *Repository) FetchDue(ctx context.Context, now time.Time, limit int) ([]*domain.Notification, error) {
	if !dbmetrics.IsInTransaction(ctx) {
		return nil, ErrTransactionRequired
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"appointment_id",
		"kind",
		"phone",
		"payload",
		"status",
		"attempts",
		"next_attempt_at",
		"last_error",
		"created_at",
		"sent_at",
	).
		From("notifications").
		Where(squirrel.Eq{"status": domain.NotificationPending}).
		Where(squirrel.LtOrEq{"next_attempt_at": now.UTC()}).
		OrderBy("next_attempt_at ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FetchDue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FetchDue - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*domain.Notification, 0)
	for rows.Next() {
		var (
			n             domain.Notification
			appointmentID uuid.NullUUID
			payload       []byte
			lastError     sql.NullString
			sentAt        sql.NullTime
		)
		if err := rows.Scan(
			&n.ID,
			&appointmentID,
			&n.Kind,
			&n.Phone,
			&payload,
			&n.Status,
			&n.Attempts,
			&n.NextAttemptAt,
			&lastError,
			&n.CreatedAt,
			&sentAt,
		); err != nil {
			return nil, fmt.Errorf("%w: FetchDue - scan row: %w", ErrScanRow, err)
		}

		if err := json.Unmarshal(payload, &n.Payload); err != nil {
			return nil, fmt.Errorf("%w: FetchDue - unmarshal payload id=%s: %v", ErrPayload, n.ID, err)
		}
		if appointmentID.Valid {
			n.AppointmentID = &appointmentID.UUID
		}
		if lastError.Valid {
			n.LastError = &lastError.String
		}
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}

		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FetchDue - rows error: %w", ErrScanRow, err)
	}

	return result, nil
}

// MarkSent помечает уведомление доставленным
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, attempts int, sentAt time.Time) error {
	return r.update(ctx, "MarkSent", id, map[string]interface{}{
		"status":     domain.NotificationSent,
		"attempts":   attempts,
		"sent_at":    sentAt.UTC(),
		"last_error": nil,
	})
}

// MarkRetry откладывает следующую попытку
func (r *Repository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	return r.update(ctx, "MarkRetry", id, map[string]interface{}{
		"attempts":        attempts,
		"next_attempt_at": nextAttemptAt.UTC(),
		"last_error":      lastError,
	})
}

// MarkFailed окончательно прекращает попытки доставки
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	return r.update(ctx, "MarkFailed", id, map[string]interface{}{
		"status":     domain.NotificationFailed,
		"attempts":   attempts,
		"last_error": lastError,
	})
}

func (r *Repository) update(ctx context.Context, method string, id uuid.UUID, values map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("notifications").
		SetMap(values).
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
		return ErrNotificationNotFound
	}

	return nil
}
