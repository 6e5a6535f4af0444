package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Политики пересечения административных блокировок
const (
	BlockOverlapAllow  = "allow"
	BlockOverlapReject = "reject"
)

// Провайдеры SMS
const (
	SMSProviderTwilio = "twilio"
	SMSProviderNoop   = "noop"
)

// DefaultEnvFile файл с секретами, подмешиваемый поверх config.toml
const DefaultEnvFile = ".env"

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Business      BusinessConfig      `toml:"business"`
	SMS           SMSConfig           `toml:"sms"`
	Notifications NotificationsConfig `toml:"notifications"`
	Reminders     RemindersConfig     `toml:"reminders"`
	Redis         RedisConfig         `toml:"redis"`
}

// ServerConfig таймауты задаются в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Path        string `toml:"path"`
}

// BusinessConfig часовой пояс, в котором считаются рабочие часы и календарные дни
type BusinessConfig struct {
	Timezone           string `toml:"timezone"`
	BlockOverlapPolicy string `toml:"block_overlap_policy"`
}

// Location загружает часовой пояс бизнеса
func (c BusinessConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

type SMSConfig struct {
	Provider            string `toml:"provider"`
	AccountSID          string `toml:"account_sid"`
	AuthToken           string `toml:"auth_token"`
	MessagingServiceSID string `toml:"messaging_service_sid"`
}

// NotificationsConfig параметры диспетчера outbox; интервалы в секундах
type NotificationsConfig struct {
	PollInterval int `toml:"poll_interval"`
	BatchSize    int `toml:"batch_size"`
	MaxAttempts  int `toml:"max_attempts"`
	RetryBackoff int `toml:"retry_backoff"`
}

type RemindersConfig struct {
	Enabled       bool   `toml:"enabled"`
	Interval      int    `toml:"interval"` // секунды
	WindowMinutes int    `toml:"window_minutes"`
	CronSecret    string `toml:"cron_secret"`
}

// RedisConfig пустой Addr отключает распределенную блокировку
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	LockTTL  int    `toml:"lock_ttl"` // секунды
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "appointments",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			ServiceName: "appointment_service",
			Path:        "/metrics",
		},
		Business: BusinessConfig{
			Timezone:           "UTC",
			BlockOverlapPolicy: BlockOverlapAllow,
		},
		SMS: SMSConfig{
			Provider: SMSProviderNoop,
		},
		Notifications: NotificationsConfig{
			PollInterval: 5,
			BatchSize:    20,
			MaxAttempts:  5,
			RetryBackoff: 30,
		},
		Reminders: RemindersConfig{
			Enabled:       true,
			Interval:      300,
			WindowMinutes: 15,
		},
		Redis: RedisConfig{
			LockTTL: 120,
		},
	}
}

// Load читает TOML-файл, подмешивает .env и переменные окружения, валидирует результат
func Load(path string) (*Config, error) {
	return LoadWithEnvFile(path, DefaultEnvFile)
}

// LoadWithEnvFile как Load, но с явным путем к .env (пустая строка отключает его)
func LoadWithEnvFile(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("config: failed to load %s: %w", envFile, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setString(&cfg.Logs.Level, "LOG_LEVEL")
	setString(&cfg.Business.Timezone, "BUSINESS_TIMEZONE")
	setString(&cfg.SMS.Provider, "SMS_PROVIDER")
	setString(&cfg.SMS.AccountSID, "TWILIO_ACCOUNT_SID")
	setString(&cfg.SMS.AuthToken, "TWILIO_AUTH_TOKEN")
	setString(&cfg.SMS.MessagingServiceSID, "TWILIO_MESSAGING_SERVICE_SID")
	setString(&cfg.Reminders.CronSecret, "CRON_SECRET")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	if err := setInt(&cfg.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.Server.HTTPPort, "HTTP_PORT"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer: %v", ErrInvalidConfig, key, err)
	}
	*dst = n
	return nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port out of range", ErrInvalidConfig)
	}

	if _, err := c.Business.Location(); err != nil {
		return fmt.Errorf("%w: business.timezone %q: %v", ErrInvalidConfig, c.Business.Timezone, err)
	}

	switch c.Business.BlockOverlapPolicy {
	case BlockOverlapAllow, BlockOverlapReject:
	default:
		return fmt.Errorf("%w: business.block_overlap_policy must be %q or %q",
			ErrInvalidConfig, BlockOverlapAllow, BlockOverlapReject)
	}

	switch c.SMS.Provider {
	case SMSProviderNoop:
	case SMSProviderTwilio:
		if c.SMS.AccountSID == "" || c.SMS.AuthToken == "" || c.SMS.MessagingServiceSID == "" {
			return fmt.Errorf("%w: twilio provider requires account_sid, auth_token and messaging_service_sid",
				ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: sms.provider must be %q or %q", ErrInvalidConfig, SMSProviderTwilio, SMSProviderNoop)
	}

	if c.Notifications.PollInterval <= 0 || c.Notifications.BatchSize <= 0 || c.Notifications.MaxAttempts <= 0 {
		return fmt.Errorf("%w: notifications poll_interval, batch_size and max_attempts must be positive",
			ErrInvalidConfig)
	}

	if c.Reminders.WindowMinutes <= 0 {
		return fmt.Errorf("%w: reminders.window_minutes must be positive", ErrInvalidConfig)
	}
	if c.Reminders.Enabled && c.Reminders.Interval <= 0 {
		return fmt.Errorf("%w: reminders.interval must be positive", ErrInvalidConfig)
	}

	return nil
}
