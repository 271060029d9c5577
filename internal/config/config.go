package config

import (
	"time"

	"github.com/spf13/viper"
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"   // Local file database (default)
	DriverPostgres DatabaseDriver = "postgres" // DSN-based PostgreSQL
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Tasks
		Monitor
		Cache
		Activity
		Log
	}

	HTTP struct {
		Port       int32
		Host       string
		EnableHSTS bool // Only when served over TLS
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver       DatabaseDriver
		Path         string // SQLite file path
		DSN          string // PostgreSQL connection string
		MaxOpenConns int
		MaxIdleConns int
	}
	Auth struct {
		JWTSecret     string
		TokenExpiry   time.Duration
		BcryptCost    int
		AdminEmail    string // Bootstrap admin, created at startup when set
		AdminPassword string
	}
	Tasks struct {
		Enabled           bool
		DBPath            string // Defaults to "<database path>-tasks.db"
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Monitor struct {
		Enabled          bool
		DueSoonSchedule  string // Cron format: "0 9 * * *" = daily at 09:00
		LowStockSchedule string // Cron format: "0 */12 * * *" = every 12 hours
		OverdueSchedule  string // Cron format: "0 0 * * *" = daily at midnight
		DueSoonWindow    time.Duration
	}
	Cache struct {
		Enabled       bool
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		TTL           time.Duration
	}
	Activity struct {
		RetentionDays   int    // Days to keep activity entries (default: 180)
		CleanupSchedule string // Cron format for enqueueing retention cleanup
	}
	Log struct {
		Level  string // zerolog level name
		Format string // "console" or "json"
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 5000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("enable_hsts", false)
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_max_open_conns", 20) // Mirrors the original pool limit
	v.SetDefault("database_max_idle_conns", 5)

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "") // Auto-generated if empty
	v.SetDefault("auth_token_expiry", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_admin_email", "")
	v.SetDefault("auth_admin_password", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_db_path", "")
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Monitor defaults
	v.SetDefault("monitor_enabled", true)
	v.SetDefault("monitor_due_soon_schedule", "0 9 * * *")
	v.SetDefault("monitor_low_stock_schedule", "0 */12 * * *")
	v.SetDefault("monitor_overdue_schedule", "0 0 * * *")
	v.SetDefault("monitor_due_soon_window", "72h")

	// Catalog cache defaults
	v.SetDefault("cache_enabled", false)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", "5m")

	v.SetDefault("activity_retention_days", 180)
	v.SetDefault("activity_cleanup_schedule", "30 3 * * *")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	return &Config{
		HTTP: HTTP{
			Port:       v.GetInt32("PORT"),
			Host:       v.GetString("HOST"),
			EnableHSTS: v.GetBool("ENABLE_HSTS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:       DatabaseDriver(v.GetString("DATABASE_DRIVER")),
			Path:         v.GetString("DATABASE_PATH"),
			DSN:          v.GetString("DATABASE_DSN"),
			MaxOpenConns: v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DATABASE_MAX_IDLE_CONNS"),
		},
		Auth: Auth{
			JWTSecret:     v.GetString("AUTH_JWT_SECRET"),
			TokenExpiry:   v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:    v.GetInt("AUTH_BCRYPT_COST"),
			AdminEmail:    v.GetString("AUTH_ADMIN_EMAIL"),
			AdminPassword: v.GetString("AUTH_ADMIN_PASSWORD"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			DBPath:            v.GetString("TASKS_DB_PATH"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Monitor: Monitor{
			Enabled:          v.GetBool("MONITOR_ENABLED"),
			DueSoonSchedule:  v.GetString("MONITOR_DUE_SOON_SCHEDULE"),
			LowStockSchedule: v.GetString("MONITOR_LOW_STOCK_SCHEDULE"),
			OverdueSchedule:  v.GetString("MONITOR_OVERDUE_SCHEDULE"),
			DueSoonWindow:    v.GetDuration("MONITOR_DUE_SOON_WINDOW"),
		},
		Cache: Cache{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTL:           v.GetDuration("CACHE_TTL"),
		},
		Activity: Activity{
			RetentionDays:   v.GetInt("ACTIVITY_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("ACTIVITY_CLEANUP_SCHEDULE"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
