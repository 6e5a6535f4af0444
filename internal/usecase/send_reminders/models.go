package send_reminders

import "time"

// Config параметры запуска
type Config struct {
	BatchSize int           // максимум записей за один запуск, 0 - без ограничения
	LockTTL   time.Duration // время жизни распределенной блокировки
	Window    time.Duration // половина окна вокруг now + smsReminderMinutes
}

// Response итог одного запуска рассылки напоминаний
type Response struct {
	ReminderMinutes int
	WindowStart     time.Time
	WindowEnd       time.Time
	Processed       int // найдено кандидатов
	Enqueued        int // поставлено в outbox
}
