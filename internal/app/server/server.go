package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"onehr/internal/domain/audit"
	"onehr/internal/domain/auth"
	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
	"onehr/internal/domain/employees"
	"onehr/internal/domain/holidays"
	"onehr/internal/domain/notifications"
	"onehr/internal/platform/config"
	"onehr/internal/platform/db"
	"onehr/internal/platform/email"
	"onehr/internal/platform/jobs"
	"onehr/internal/platform/metrics"
	"onehr/internal/transport/http/api"
	audithandler "onehr/internal/transport/http/handlers/audit"
	authhandler "onehr/internal/transport/http/handlers/auth"
	calendarhandler "onehr/internal/transport/http/handlers/calendar"
	employeeshandler "onehr/internal/transport/http/handlers/employees"
	holidayshandler "onehr/internal/transport/http/handlers/holidays"
	notificationshandler "onehr/internal/transport/http/handlers/notifications"
	"onehr/internal/transport/http/middleware"
	"onehr/migrations"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
}

// Services is everything the router mounts. Nil services are only safe for
// routes that are never reached.
type Services struct {
	Auth          authhandler.Authenticator
	Perms         middleware.PermissionStore
	Employees     employeeshandler.Directory
	Holidays      holidayshandler.Calendar
	Calendar      calendarhandler.Calendar
	Notifications notificationshandler.Inbox
	Alerts        notificationshandler.AlertRunner
	Audit         *audit.Service
	Idempotency   middleware.IdempotencyStore
	Metrics       *metrics.Collector
	Ready         func(ctx context.Context) error
}

// New connects to the database, prepares the schema and wires every service.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	collector := metrics.New()
	authStore := auth.NewStore(pool)
	authService := auth.NewService(authStore, cfg.JWTSecret)
	authService.TokenTTL = cfg.TokenTTL

	employeeService := employees.NewService(employees.NewStore(pool))
	holidayService, err := holidays.NewService(holidays.NewStore(pool))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("holiday rules: %w", err)
	}
	notificationService := notifications.New(notifications.NewStore(pool), email.New(cfg))
	notificationService.DefaultFrom = cfg.EmailFrom

	calendarService := calendar.NewService(employeeService, holidayService, notificationService, calendar.NewStore(pool))
	calendarService.Recorder = collector

	alerter := &calendar.Alerter{
		Calendar:   calendarService,
		Sink:       notificationService,
		Recipients: authStore,
		LeadDays:   cfg.AlertLeadDays,
	}
	jobService := jobs.New(cfg, authStore, alerter, jobs.PGRunLog{DB: pool})
	jobService.Recorder = collector

	router := NewRouter(cfg, Services{
		Auth:          authService,
		Perms:         authStore,
		Employees:     employeeService,
		Holidays:      holidayService,
		Calendar:      calendarService,
		Notifications: notificationService,
		Alerts:        jobService,
		Audit:         audit.New(pool),
		Idempotency:   middleware.NewIdempotencyStore(pool),
		Metrics:       collector,
		Ready:         pool.Ping,
	})

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobService}, nil
}

func NewRouter(cfg config.Config, svc Services) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(svc.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if svc.Ready != nil {
			if err := svc.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && svc.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, svc.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	var recorder audit.Recorder
	if svc.Audit != nil {
		recorder = svc.Audit
	}

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
			r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
		}
		r.Use(middleware.Idempotent(svc.Idempotency))

		authhandler.NewHandler(svc.Auth).RegisterRoutes(r)
		employeeshandler.NewHandler(svc.Employees, svc.Perms, recorder).RegisterRoutes(r)

		holidaysHandler := holidayshandler.NewHandler(svc.Holidays, svc.Perms, recorder)
		holidaysHandler.Today = func() civil.Day { return civil.Today(time.Now(), cfg.Location) }
		holidaysHandler.RegisterRoutes(r)

		calendarHandler := calendarhandler.NewHandler(svc.Calendar, holidaysHandler, svc.Perms, recorder)
		calendarHandler.WeekStart = cfg.WeekStart
		calendarHandler.Location = cfg.Location
		calendarHandler.RegisterRoutes(r)

		notificationshandler.NewHandler(svc.Notifications, svc.Alerts, svc.Perms).RegisterRoutes(r)

		if svc.Audit != nil {
			audithandler.NewHandler(svc.Audit, svc.Perms).RegisterRoutes(r)
		}
	})

	return router
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func Run() error {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.DB.Close()

	if err := app.Jobs.Start(ctx); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("OneHR server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
