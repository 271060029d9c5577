package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrNotStarted is returned by Enqueue before Start.
var ErrNotStarted = errors.New("task queue not started")

// Client owns the backlite queue of background library work: the low-stock
// sweep triggered by borrows and the activity retention cleanup.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	config   Config
	log      zerolog.Logger

	mu      sync.RWMutex
	started bool
}

// NewClient opens the queue database and installs the backlite schema.
func NewClient(cfg Config) (*Client, error) {
	db, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}

	// One connection per worker plus headroom for producers on the request path.
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	logger := log.With().Str("component", "tasks").Logger()
	bc, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &zeroLogger{log: logger},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}
	if err := bc.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{backlite: bc, db: db, config: cfg, log: logger}, nil
}

// Register adds queues. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start runs the workers until Stop. It returns immediately; calling it twice
// is a no-op.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.backlite.Start(ctx)
	c.log.Info().Int("workers", c.config.Workers).Str("path", c.config.DBPath).Msg("Task queue started")
}

// Running reports whether workers are processing tasks.
func (c *Client) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

// Stop waits for in-flight tasks until ctx expires. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return true
	}
	c.started = false

	graceful := c.backlite.Stop(ctx)
	if graceful {
		c.log.Info().Msg("Task queue stopped")
	} else {
		c.log.Warn().Msg("Task queue stop timed out; unfinished tasks will be released on next start")
	}
	return graceful
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Enqueue persists one task and returns its id. Tasks added before Start are
// rejected so that a misconfigured producer fails loudly instead of filling a
// queue nobody drains.
func (c *Client) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	if !c.Running() {
		return "", ErrNotStarted
	}
	ids, err := c.backlite.Add(task).Ctx(ctx).Save()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("backlite returned no task id")
	}
	return ids[0], nil
}

// zeroLogger adapts zerolog to backlite.Logger. Per-task chatter goes to
// debug.
type zeroLogger struct {
	log zerolog.Logger
}

func (l *zeroLogger) Info(message string, params ...any) {
	l.log.Debug().Fields(params).Msg(message)
}

func (l *zeroLogger) Error(message string, params ...any) {
	l.log.Error().Fields(params).Msg(message)
}
