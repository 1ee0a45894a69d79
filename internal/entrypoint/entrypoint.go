package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/config"
	http_controllers "github.com/mrlokans/library-manager/internal/http"
	"github.com/mrlokans/library-manager/internal/scheduler"
	"github.com/mrlokans/library-manager/internal/tasks"
)

// Scheduled job names, also reported by /health.
const (
	JobOverdueSweep = "overdue_sweep"
	JobAuditCleanup = "audit_cleanup"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs handler until SIGINT or SIGTERM, then shuts down within the
// configured timeout.
func Serve(handler http.Handler, cfg *config.Config, logger *log.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("Shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Background work stops after the last request has drained.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	logger.Info("Server exited")
	return nil
}

// Run wires every component from cfg and serves the API until interrupted.
func Run(cfg *config.Config, logger *log.Logger, version string) error {
	logger.Info("Starting Library Manager", "version", version)

	app, err := Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Error closing database", "err", err)
		}
	}()

	routerCfg := http_controllers.RouterConfig{
		Books:              app.Books,
		Authors:            app.Authors,
		Categories:         app.Categories,
		Users:              app.Users,
		Borrows:            app.Borrows,
		Reports:            app.Reports,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		Database:           app.DB,
		Version:            version,
		AuthConfig:         cfg.Auth,
		DemoMode:           cfg.Global.DemoMode,
		DefaultPageSize:    cfg.Library.DefaultPageSize,
		RateLimit:          cfg.RateLimit,
		Logger:             logger.WithPrefix("http"),
	}
	if app.Audit != nil {
		routerCfg.AuditRecorder = app.Audit
		routerCfg.AuditReader = app.Audit
		routerCfg.AuthRecorder = app.Audit
	}

	// Task queue and scheduler
	var taskClient *tasks.Client
	var sched *scheduler.Scheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("Error closing task client", "err", err)
			}
		}()

		var recorder tasks.TaskRecorder = noopTaskRecorder{}
		var cleaner tasks.AuditEventCleaner
		if app.Audit != nil {
			recorder = app.Audit
			cleaner = app.Audit
		}
		taskClient.Register(tasks.NewMarkOverdueBorrowsQueue(app.Borrows, recorder))
		if cleaner != nil {
			taskClient.Register(tasks.NewCleanupAuditEventsQueue(cleaner, recorder))
		}

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		jobs := scheduledJobs(cfg, app.Audit != nil)
		sched = scheduler.New(taskClient, jobs...)
		if err := sched.Start(taskCtx); err != nil {
			taskCtxCancel()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		for _, job := range jobs {
			routerCfg.JobNames = append(routerCfg.JobNames, job.Name)
		}
		routerCfg.TaskQueue = taskClient
		routerCfg.Scheduler = sched
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		logger.Info("Authentication mode: local")
		if err := wireAuth(&routerCfg, app, cfg.Auth, logger); err != nil {
			if taskCtxCancel != nil {
				taskCtxCancel()
			}
			return err
		}
	} else {
		logger.Info("Authentication mode: none (no authentication required)")
	}

	router, stopRouter := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		stopRouter()
		if sched != nil {
			sched.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	return Serve(router, cfg, logger, onShutdown)
}

func scheduledJobs(cfg *config.Config, auditEnabled bool) []scheduler.Job {
	var jobs []scheduler.Job
	if cfg.Scheduler.OverdueSweepEnabled {
		jobs = append(jobs, scheduler.Job{
			Name:     JobOverdueSweep,
			Schedule: cfg.Scheduler.OverdueSweepSchedule,
			Task:     func() backlite.Task { return tasks.MarkOverdueBorrowsTask{} },
		})
	}
	if cfg.Scheduler.AuditCleanupEnabled && auditEnabled {
		retention := cfg.Audit.RetentionDays
		jobs = append(jobs, scheduler.Job{
			Name:     JobAuditCleanup,
			Schedule: cfg.Scheduler.AuditCleanupSchedule,
			Task:     func() backlite.Task { return tasks.CleanupAuditEventsTask{RetentionDays: retention} },
		})
	}
	return jobs
}

func wireAuth(routerCfg *http_controllers.RouterConfig, app *App, cfg config.Auth, logger *log.Logger) error {
	svc := auth.NewService(app.DB.DB, cfg)

	sqlDB, err := app.DB.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sm, err := auth.NewSessionManager(sqlDB, app.DB.Driver, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	secret, err := csrfSecret(cfg.SessionSecret)
	if err != nil {
		return err
	}
	if cfg.SessionSecret == "" {
		logger.Warn("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	hasStaff, err := svc.HasStaff(context.Background())
	if err != nil {
		return fmt.Errorf("failed to check staff accounts: %w", err)
	}
	if !hasStaff {
		logger.Warn("No staff accounts found. Create one with 'library-manager staff create'.")
	}

	routerCfg.AuthService = svc
	routerCfg.SessionManager = sm
	routerCfg.CSRFSecret = secret
	return nil
}

// csrfSecret decodes a hex session secret, falls back to the raw bytes, and
// generates a fresh one when none is configured.
func csrfSecret(configured string) ([]byte, error) {
	if configured == "" {
		generated, err := auth.GenerateSessionSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		configured = generated
	}
	if secret, err := hex.DecodeString(configured); err == nil && len(secret) >= 32 {
		return secret, nil
	}
	if len(configured) < 32 {
		return nil, fmt.Errorf("AUTH_SESSION_SECRET must be at least 32 bytes")
	}
	return []byte(configured), nil
}

type noopTaskRecorder struct{}

func (noopTaskRecorder) LogTask(string, string, map[string]any, error) {}
