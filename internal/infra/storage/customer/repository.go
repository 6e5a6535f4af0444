package customer

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

// Repository репозиторий клиентов, идентифицируемых по телефону
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByPhone ищет клиента по телефону (FOR UPDATE внутри транзакции)
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select("id", "phone", "name", "created_at", "updated_at").
		From("customers").
		Where(squirrel.Eq{"phone": phone})
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPhone - build select query: %v", ErrBuildQuery, err)
	}

	var c domain.Customer
	err = executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Phone, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPhone - scan customer: %w", ErrScanRow, err)
	}

	return &c, nil
}

// Create создает клиента
func (r *Repository) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	query, args, err := psqlbuilder.Insert("customers").
		Columns("id", "phone", "name").
		Values(c.ID, c.Phone, c.Name).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return c, nil
}

// UpdateName обновляет отображаемое имя клиента
func (r *Repository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("customers").
		Set("name", name).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateName - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateName - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateName - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrCustomerNotFound
	}

	return nil
}
