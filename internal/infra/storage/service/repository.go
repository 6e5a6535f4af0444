package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var columns = []string{"id", "title", "duration_min", "price", "created_at"}

// Repository репозиторий каталога услуг
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет услугу в каталог
func (r *Repository) Create(ctx context.Context, s *domain.Service) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	query, args, err := psqlbuilder.Insert("services").
		Columns("id", "title", "duration_min", "price").
		Values(s.ID, s.Title, s.DurationMin, s.Price).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&s.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return s, nil
}

// GetByID получает услугу по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("services").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.Service
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Title, &s.DurationMin, &s.Price, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan service: %w", ErrScanRow, err)
	}

	return &s, nil
}

// GetAll возвращает весь каталог, отсортированный по названию
func (r *Repository) GetAll(ctx context.Context) ([]*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("services").
		OrderBy("title ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetAll - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAll - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	services := make([]*domain.Service, 0)
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Title, &s.DurationMin, &s.Price, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: GetAll - scan row: %w", ErrScanRow, err)
		}
		services = append(services, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAll - rows error: %w", ErrScanRow, err)
	}

	return services, nil
}

// Count возвращает количество услуг в каталоге
func (r *Repository) Count(ctx context.Context) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").From("services").ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Count - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: Count - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}
