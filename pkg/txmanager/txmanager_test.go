package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (t *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (t *fakeTx) Commit() error {
	t.committed = true
	return t.commitErr
}
func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx    *fakeTx
	opts  *sql.TxOptions
	calls int
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	b.calls++
	b.opts = opts
	return b.tx, nil
}

func TestDoSerializable_Commit(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	m := NewTransactionManager(b)

	err := m.DoSerializable(context.Background(), func(ctx context.Context) error {
		assert.True(t, dbmetrics.IsInTransaction(ctx))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, b.tx.committed)
	assert.False(t, b.tx.rolledBack)
	assert.Equal(t, sql.LevelSerializable, b.opts.Isolation)
}

func TestDo_RollbackOnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	m := NewTransactionManager(b)
	boom := errors.New("boom")

	err := m.Do(context.Background(), func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.True(t, b.tx.rolledBack)
	assert.False(t, b.tx.committed)
}

func TestDoReadOnly_Options(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	m := NewTransactionManager(b)

	require.NoError(t, m.DoReadOnly(context.Background(), func(context.Context) error { return nil }))
	assert.True(t, b.opts.ReadOnly)
}

func TestNestedCallReusesTransaction(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	m := NewTransactionManager(b)

	err := m.DoSerializable(context.Background(), func(ctx context.Context) error {
		return m.Do(ctx, func(context.Context) error { return nil })
	})

	require.NoError(t, err)
	assert.Equal(t, 1, b.calls)
}

func TestSerializationFailureClassified(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	m := NewTransactionManager(b)
	pqErr := &pq.Error{Code: "40001"}

	err := m.DoSerializable(context.Background(), func(context.Context) error {
		return fmt.Errorf("insert: %w", pqErr)
	})

	assert.ErrorIs(t, err, ErrSerializationFailure)
	assert.True(t, IsSerializationFailure(err))
}

func TestCommitSerializationFailure(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{commitErr: &pq.Error{Code: "40001"}}}
	m := NewTransactionManager(b)

	err := m.DoSerializable(context.Background(), func(context.Context) error { return nil })

	assert.ErrorIs(t, err, ErrCommitTx)
	assert.ErrorIs(t, err, ErrSerializationFailure)
}

func TestIsSerializationFailure_OtherErrors(t *testing.T) {
	assert.False(t, IsSerializationFailure(errors.New("x")))
	assert.False(t, IsSerializationFailure(&pq.Error{Code: "23505"}))
	assert.True(t, IsSerializationFailure(&pq.Error{Code: "40P01"}))
}
