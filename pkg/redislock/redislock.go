package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired ключ уже удерживается другим владельцем
	ErrNotAcquired = errors.New("redislock: lock not acquired")

	// ErrNotHeld блокировка истекла или перехвачена до освобождения
	ErrNotHeld = errors.New("redislock: lock not held")
)

// Удаляет ключ, только если он принадлежит владельцу с этим токеном
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker выдает распределенные блокировки вида SET NX PX
type Locker struct {
	rdb    *redis.Client
	prefix string
}

// New создает Locker; prefix добавляется к каждому ключу
func New(rdb *redis.Client, prefix string) *Locker {
	if prefix == "" {
		prefix = "lock"
	}
	return &Locker{rdb: rdb, prefix: prefix}
}

// Lock захваченная блокировка
type Lock struct {
	rdb   *redis.Client
	key   string
	token string
}

// Acquire пытается захватить ключ на ttl, не дожидаясь освобождения
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	fullKey := l.prefix + ":" + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redislock: SETNX %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return &Lock{rdb: l.rdb, key: fullKey, token: token}, nil
}

// Release освобождает блокировку, если она еще принадлежит владельцу
func (lk *Lock) Release(ctx context.Context) error {
	res, err := releaseScript.Run(ctx, lk.rdb, []string{lk.key}, lk.token).Int64()
	if err != nil {
		return fmt.Errorf("redislock: release %s: %w", lk.key, err)
	}
	if res == 0 {
		return ErrNotHeld
	}
	return nil
}

// Key полное имя ключа в redis
func (lk *Lock) Key() string {
	return lk.key
}

// WithLock выполняет fn, удерживая ключ; если ключ занят, возвращает ErrNotAcquired не вызывая fn
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lock, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}

	fnErr := fn(ctx)

	// Освобождаем даже при отмененном контексте вызывающего
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := lock.Release(releaseCtx); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}
