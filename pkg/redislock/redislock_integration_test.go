//go:build integration

package redislock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestLocker_AcquireRelease(t *testing.T) {
	rdb := startRedis(t)
	locker := New(rdb, "test")
	ctx := context.Background()

	lock, err := locker.Acquire(ctx, "reminders", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "reminders", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, lock.Release(ctx))
	assert.ErrorIs(t, lock.Release(ctx), ErrNotHeld)

	again, err := locker.Acquire(ctx, "reminders", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocker_ExpiredLockIsNotReleasedByOldOwner(t *testing.T) {
	rdb := startRedis(t)
	locker := New(rdb, "test")
	ctx := context.Background()

	old, err := locker.Acquire(ctx, "job", 100*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(300 * time.Millisecond)

	current, err := locker.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, old.Release(ctx), ErrNotHeld)
	require.NoError(t, current.Release(ctx))
}

func TestLocker_WithLock(t *testing.T) {
	rdb := startRedis(t)
	locker := New(rdb, "test")
	ctx := context.Background()

	called := false
	err := locker.WithLock(ctx, "reminders", time.Minute, func(ctx context.Context) error {
		called = true

		inner := locker.WithLock(ctx, "reminders", time.Minute, func(context.Context) error {
			t.Fatal("nested holder must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrNotAcquired)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	exists, err := rdb.Exists(ctx, "test:reminders").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
