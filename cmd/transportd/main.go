package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Olawill/church-transport-application-sub001/internal/application"
	"github.com/Olawill/church-transport-application-sub001/internal/config"
	httptransport "github.com/Olawill/church-transport-application-sub001/internal/http"
	"github.com/Olawill/church-transport-application-sub001/internal/logging"
	"github.com/Olawill/church-transport-application-sub001/internal/persistence/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	bootstrapLogger := logging.New(os.Stdout, "json", "info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootstrapLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	userRepo := sqlite.NewUserRepository(pool)
	addressRepo := sqlite.NewAddressRepository(pool)
	serviceRepo := sqlite.NewServiceRepository(pool)
	requestRepo := sqlite.NewRequestRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)

	tracker := &logTracker{logger: logger}

	requestService := application.NewRequestServiceWithLogger(requestRepo, serviceRepo, addressRepo, tracker, idGenerator, now, cfg.RequestCutoff, logger)
	catalogService := application.NewServiceCatalogServiceWithLogger(serviceRepo, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(userRepo, sessionRepo, nil, idGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Requests: httptransport.NewRequestHandler(requestService, logger),
		Services: httptransport.NewServiceHandler(catalogService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login is the only route reachable without a session.
		if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	maintenance := startMaintenance(cfg.MaintenanceSpec, requestService, authService, logger)
	defer maintenance.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("transport API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// startMaintenance schedules the background jobs: expiring stale requests
// and purging expired sessions.
func startMaintenance(spec string, requests *application.RequestService, auth *application.AuthService, logger *slog.Logger) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := requests.ExpirePastRequests(ctx); err != nil {
			logger.Error("failed to expire past requests", "error", err)
		}
		if err := auth.PurgeExpiredSessions(ctx); err != nil {
			logger.Error("failed to purge expired sessions", "error", err)
		}
	}); err != nil {
		logger.Error("invalid maintenance schedule, jobs disabled", "spec", spec, "error", err)
		return c
	}

	c.Start()
	logger.Info("maintenance jobs scheduled", "spec", spec)
	return c
}

// logTracker records lifecycle events in the service log. A real deployment
// could swap in a notification or analytics sink here.
type logTracker struct {
	logger *slog.Logger
}

func (t *logTracker) Track(ctx context.Context, event application.Event) error {
	t.logger.InfoContext(ctx, "request lifecycle event",
		"event", string(event.Name),
		"user_id", event.UserID,
		"requests", len(event.RequestIDs),
	)
	return nil
}
