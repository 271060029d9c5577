package tasks

import (
	"path/filepath"
	"time"

	"github.com/datptitudu2/backendthuvienptit/internal/config"
)

// Config holds configuration for the task queue system.
type Config struct {
	// DBPath is the SQLite file backing the queue.
	DBPath string

	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long to keep completed tasks. Default: 24h
	RetentionDuration time.Duration
}

// DSN is the go-sqlite3 connection string of the queue database. The queue
// is written by every worker, so it runs in WAL mode with a busy timeout.
func (c Config) DSN() string {
	return c.DBPath + "?_journal=WAL&_timeout=5000&_busy_timeout=5000"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBPath:            TasksDBPath(config.DefaultDatabasePath),
		Workers:           2,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// ConfigFrom builds the queue configuration from application settings,
// falling back to defaults for unset values.
func ConfigFrom(tasks config.Tasks, db config.Database) Config {
	cfg := DefaultConfig()
	switch {
	case tasks.DBPath != "":
		cfg.DBPath = tasks.DBPath
	case db.Driver != config.DriverPostgres && db.Path != "":
		cfg.DBPath = TasksDBPath(db.Path)
	}
	if tasks.Workers > 0 {
		cfg.Workers = tasks.Workers
	}
	if tasks.ReleaseAfter > 0 {
		cfg.ReleaseAfter = tasks.ReleaseAfter
	}
	if tasks.CleanupInterval > 0 {
		cfg.CleanupInterval = tasks.CleanupInterval
	}
	if tasks.RetentionDuration > 0 {
		cfg.RetentionDuration = tasks.RetentionDuration
	}
	return cfg
}

// TasksDBPath places the queue database alongside the main database with a
// "-tasks" suffix.
func TasksDBPath(mainDBPath string) string {
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	return filepath.Join(dir, name+"-tasks"+ext)
}
