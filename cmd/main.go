package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	blockSlotHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/block_slot"
	bookAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/book_appointment"
	cancelAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_appointment"
	createServiceHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_service"
	getAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment"
	getAvailabilityHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_availability"
	getSettingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_settings"
	listAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_appointments"
	listMyAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_my_appointments"
	listServicesHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_services"
	manageBlackoutDatesHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/manage_blackout_dates"
	markAttendanceHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/mark_attendance"
	runRemindersHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/run_reminders"
	unblockSlotHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/unblock_slot"
	updateSettingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_settings"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	customerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/customer"
	notificationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/notification"
	serviceRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/service"
	settingsRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/settings"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/sms"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	catalogService "github.com/m04kA/SMC-AppointmentService/internal/service/catalog"
	settingsService "github.com/m04kA/SMC-AppointmentService/internal/service/settings"
	bookAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
	dispatchNotificationsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/dispatch_notifications"
	getAvailabilityUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_availability"
	sendRemindersUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/send_reminders"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/redislock"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")

	// Validate уже проверил часовой пояс
	location, _ := cfg.Business.Location()
	log.Info("Business timezone: %s, block overlap policy: %s", location, cfg.Business.BlockOverlapPolicy)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// С nil-метриками обёртка ведет себя как обычный *sql.DB
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	serviceRepository := serviceRepo.NewRepository(wrappedDB)
	customerRepository := customerRepo.NewRepository(wrappedDB)
	settingsRepository := settingsRepo.NewRepository(wrappedDB)
	notificationRepository := notificationRepo.NewRepository(wrappedDB)

	// Инициализируем сервисы
	settingsSvc := settingsService.NewService(settingsRepository, txMgr, log)
	catalogSvc := catalogService.NewService(serviceRepository, txMgr, log)
	appointmentsSvc := appointmentsService.NewService(
		appointmentRepository,
		txMgr,
		location,
		cfg.Business.BlockOverlapPolicy == config.BlockOverlapReject,
		log,
	)

	// Инициализируем SMS-провайдера
	var sender sms.Sender
	switch cfg.SMS.Provider {
	case config.SMSProviderTwilio:
		sender = sms.NewTwilioSender(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.MessagingServiceSID, log)
	default:
		sender = sms.NewNoopSender(log)
	}
	smsClient := sms.NewClient(sender, log)
	log.Info("SMS provider: %s", sender.ProviderID())

	// Распределенная блокировка рассылки напоминаний (опционально)
	var locker sendRemindersUC.Locker
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}

		locker = redislock.New(rdb, "appointments")
		log.Info("Redis lock enabled (addr=%s)", cfg.Redis.Addr)
	}

	// Инициализируем use cases
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		serviceRepository,
		settingsSvc,
		appointmentRepository,
		location,
		log,
	)

	bookAppointmentUseCase := bookAppointmentUC.NewUseCase(
		serviceRepository,
		appointmentRepository,
		customerRepository,
		notificationRepository,
		txMgr,
		metricsCollector,
		location,
		log,
	)

	sendRemindersUseCase := sendRemindersUC.NewUseCase(
		settingsSvc,
		appointmentRepository,
		notificationRepository,
		txMgr,
		locker,
		metricsCollector,
		sendRemindersUC.Config{
			LockTTL: time.Duration(cfg.Redis.LockTTL) * time.Second,
			Window:  time.Duration(cfg.Reminders.WindowMinutes) * time.Minute,
		},
		location,
		log,
	)

	dispatcher := dispatchNotificationsUC.NewDispatcher(
		notificationRepository,
		smsClient,
		txMgr,
		metricsCollector,
		dispatchNotificationsUC.Config{
			PollInterval: time.Duration(cfg.Notifications.PollInterval) * time.Second,
			BatchSize:    cfg.Notifications.BatchSize,
			MaxAttempts:  cfg.Notifications.MaxAttempts,
			RetryBackoff: time.Duration(cfg.Notifications.RetryBackoff) * time.Second,
		},
		log,
	)

	// Инициализируем handlers
	listServices := listServicesHandler.NewHandler(catalogSvc, log)
	createService := createServiceHandler.NewHandler(catalogSvc, log)
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, location, log)
	bookAppointment := bookAppointmentHandler.NewHandler(bookAppointmentUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentsSvc, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(appointmentsSvc, log)
	listMyAppointments := listMyAppointmentsHandler.NewHandler(appointmentsSvc, log)
	listAppointments := listAppointmentsHandler.NewHandler(appointmentsSvc, location, log)
	markAttendance := markAttendanceHandler.NewHandler(appointmentsSvc, log)
	blockSlot := blockSlotHandler.NewHandler(appointmentsSvc, log)
	unblockSlot := unblockSlotHandler.NewHandler(appointmentsSvc, log)
	getSettings := getSettingsHandler.NewHandler(settingsSvc, log)
	updateSettings := updateSettingsHandler.NewHandler(settingsSvc, log)
	manageBlackoutDates := manageBlackoutDatesHandler.NewHandler(settingsSvc, log)
	runReminders := runRemindersHandler.NewHandler(sendRemindersUseCase, cfg.Reminders.CronSecret, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	api.HandleFunc("/services", listServices.Handle).Methods(http.MethodGet)
	api.HandleFunc("/services/{serviceId}/availability", getAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/settings", getSettings.Handle).Methods(http.MethodGet)

	// Гостевая запись: телефон передается в теле запроса
	api.HandleFunc("/appointments", bookAppointment.Handle).Methods(http.MethodPost)

	// Внешний планировщик, защищен X-Cron-Secret
	api.HandleFunc("/internal/reminders/run", runReminders.Handle).Methods(http.MethodPost)

	// ============================================================
	// ADMIN ROUTES (X-User-Role: admin)
	// Регистрируются раньше protected: его пустой префикс совпадает с любым путем
	// ============================================================

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.Auth, middleware.RequireAdmin)

	// --- Каталог ---
	admin.HandleFunc("/services", createService.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/services/seed", createService.HandleSeed).Methods(http.MethodPost)

	// --- Записи ---
	admin.HandleFunc("/appointments", listAppointments.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/appointments/{appointmentId}/attendance", markAttendance.Handle).Methods(http.MethodPatch)

	// --- Блокировки ---
	admin.HandleFunc("/blocks", blockSlot.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/blocks/{appointmentId}", unblockSlot.Handle).Methods(http.MethodDelete)

	// --- Настройки ---
	admin.HandleFunc("/settings", updateSettings.Handle).Methods(http.MethodPut)
	admin.HandleFunc("/settings/blackout-dates", manageBlackoutDates.HandleAdd).Methods(http.MethodPost)
	admin.HandleFunc("/settings/blackout-dates/{date}", manageBlackoutDates.HandleRemove).Methods(http.MethodDelete)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-Phone header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	protected.HandleFunc("/me/appointments", listMyAppointments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{appointmentId}/cancel", cancelAppointment.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Ожидаем сигнал завершения
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return dispatcher.Run(gCtx)
	})

	if cfg.Reminders.Enabled {
		g.Go(func() error {
			return sendRemindersUseCase.Run(gCtx, time.Duration(cfg.Reminders.Interval)*time.Second)
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
		)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
