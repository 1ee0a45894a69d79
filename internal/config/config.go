package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Staff accounts with sessions and API tokens
)

type (
	Config struct {
		HTTP
		Global
		Database
		Library
		Audit
		Tasks
		Scheduler
		Auth
		Log
		RateLimit
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		DemoMode                 bool // Serve read-only, rejecting every mutation
	}
	Database struct {
		Driver   string // "sqlite" or "postgres"
		Path     string // sqlite file path
		URL      string // postgres DSN
		LogLevel string // gorm logger level: silent, error, warn, info
	}
	Library struct {
		DefaultPageSize     int
		LoanPeriod          time.Duration
		EnforceAvailability bool // Reject borrows once active loans reach book quantity
	}
	Audit struct {
		Enabled       bool
		RetentionDays int    // Days to keep audit events (default: 90)
		ArchiveDir    string // Deleted events are written here as JSON when set
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Scheduler struct {
		OverdueSweepEnabled  bool
		OverdueSweepSchedule string // Cron format: "0 * * * *" = hourly
		AuditCleanupEnabled  bool
		AuditCleanupSchedule string
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Log struct {
		Level  string
		Format string // "text" or "json"
	}
	RateLimit struct {
		Enabled bool
		RPS     float64
		Burst   int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("demo_mode", false)

	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_url", "")
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("library_default_page_size", DefaultPageSize)
	v.SetDefault("library_loan_period", DefaultLoanPeriod.String())
	v.SetDefault("library_enforce_availability", false)

	v.SetDefault("audit_enabled", true)
	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_archive_dir", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("overdue_sweep_enabled", true)
	v.SetDefault("overdue_sweep_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("audit_cleanup_enabled", true)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *") // Daily at 03:30

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "")
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_token_expiry", "720h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_rps", 20.0)
	v.SetDefault("rate_limit_burst", 40)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			DemoMode:                 v.GetBool("DEMO_MODE"),
		},
		Database: Database{
			Driver:   v.GetString("DATABASE_DRIVER"),
			Path:     v.GetString("DATABASE_PATH"),
			URL:      v.GetString("DATABASE_URL"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Library: Library{
			DefaultPageSize:     v.GetInt("LIBRARY_DEFAULT_PAGE_SIZE"),
			LoanPeriod:          v.GetDuration("LIBRARY_LOAN_PERIOD"),
			EnforceAvailability: v.GetBool("LIBRARY_ENFORCE_AVAILABILITY"),
		},
		Audit: Audit{
			Enabled:       v.GetBool("AUDIT_ENABLED"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
			ArchiveDir:    v.GetString("AUDIT_ARCHIVE_DIR"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Scheduler: Scheduler{
			OverdueSweepEnabled:  v.GetBool("OVERDUE_SWEEP_ENABLED"),
			OverdueSweepSchedule: v.GetString("OVERDUE_SWEEP_SCHEDULE"),
			AuditCleanupEnabled:  v.GetBool("AUDIT_CLEANUP_ENABLED"),
			AuditCleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		RateLimit: RateLimit{
			Enabled: v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:     v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:   v.GetInt("RATE_LIMIT_BURST"),
		},
	}
}
