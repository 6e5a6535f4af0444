package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smc"

// Исходы бронирования
const (
	BookingOutcomeCreated  = "created"
	BookingOutcomeConflict = "conflict"
	BookingOutcomeRejected = "rejected"
	BookingOutcomeError    = "error"
)

// Исходы отправки уведомления
const (
	NotificationOutcomeSent   = "sent"
	NotificationOutcomeRetry  = "retry"
	NotificationOutcomeFailed = "failed"
)

// Metrics набор prometheus-метрик сервиса
// Все методы безопасны для вызова на nil (метрики выключены)
type Metrics struct {
	service string

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
	dbOpenConns     *prometheus.GaugeVec
	dbInUseConns    *prometheus.GaugeVec
	dbIdleConns     *prometheus.GaugeVec

	bookingsTotal      *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	remindersEnqueued  *prometheus.CounterVec
}

// New регистрирует метрики в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry регистрирует метрики в переданном реестре
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	m := &Metrics{
		service: serviceName,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"service", "method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query latency.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation"}),
		dbQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_query_errors_total",
			Help:      "Total number of failed database queries.",
		}, []string{"service", "operation"}),
		dbOpenConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_open_connections",
			Help:      "Open connections in the pool.",
		}, []string{"service"}),
		dbInUseConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_in_use_connections",
			Help:      "Connections currently in use.",
		}, []string{"service"}),
		dbIdleConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_idle_connections",
			Help:      "Idle connections in the pool.",
		}, []string{"service"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		}, []string{"service", "outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind and outcome.",
		}, []string{"service", "kind", "outcome"}),
		remindersEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_enqueued_total",
			Help:      "Reminders claimed and enqueued.",
		}, []string{"service"}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dbQueryDuration,
		m.dbQueryErrors,
		m.dbOpenConns,
		m.dbInUseConns,
		m.dbIdleConns,
		m.bookingsTotal,
		m.notificationsTotal,
		m.remindersEnqueued,
	)

	return m
}

// ObserveHTTP фиксирует завершенный HTTP-запрос
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(m.service, method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(m.service, method, route).Observe(d.Seconds())
}

// ObserveDBQuery фиксирует выполнение запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(m.service, operation).Observe(d.Seconds())
	if err != nil {
		m.dbQueryErrors.WithLabelValues(m.service, operation).Inc()
	}
}

// SetPoolStats обновляет метрики connection pool
func (m *Metrics) SetPoolStats(open, inUse, idle int) {
	if m == nil {
		return
	}
	m.dbOpenConns.WithLabelValues(m.service).Set(float64(open))
	m.dbInUseConns.WithLabelValues(m.service).Set(float64(inUse))
	m.dbIdleConns.WithLabelValues(m.service).Set(float64(idle))
}

func (m *Metrics) IncBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(m.service, outcome).Inc()
}

func (m *Metrics) IncNotification(kind, outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(m.service, kind, outcome).Inc()
}

func (m *Metrics) AddRemindersEnqueued(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.remindersEnqueued.WithLabelValues(m.service).Add(float64(n))
}
