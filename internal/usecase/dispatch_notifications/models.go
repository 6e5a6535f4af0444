package dispatch_notifications

import "time"

// Config параметры диспетчера
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	RetryBackoff time.Duration // задержка растет линейно: RetryBackoff * attempts
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 30 * time.Second
	}
	return c
}

// BatchResult итог обработки одной пачки
type BatchResult struct {
	Sent    int
	Retried int
	Failed  int
}

// Total количество обработанных уведомлений
func (r BatchResult) Total() int {
	return r.Sent + r.Retried + r.Failed
}
