package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client wraps backlite to provide task queue functionality.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config
	logger *log.Logger

	mu      sync.RWMutex
	started bool
}

// defaultTasksDBPath is used when there is no sqlite path to sit next to,
// as with postgres deployments that leave DATABASE_PATH empty.
const defaultTasksDBPath = "library-tasks.db"

// TasksDBPath returns the task queue database path for a main database path:
// the same directory and name with a "-tasks" suffix.
func TasksDBPath(mainDBPath string) string {
	if strings.TrimSpace(mainDBPath) == "" {
		return defaultTasksDBPath
	}
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	return filepath.Join(dir, name+"-tasks"+ext)
}

// NewClient creates a new task queue client with a dedicated SQLite database
// stored alongside mainDBPath.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	tasksDBPath := TasksDBPath(mainDBPath)

	db, err := sql.Open("sqlite3", tasksDBPath+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}

	// Sized for concurrent workers plus enqueueing callers.
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	logger := log.Default().WithPrefix("tasks")
	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &charmLogger{logger: logger},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}

	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{
		client: client,
		db:     db,
		config: cfg,
		logger: logger,
	}, nil
}

// Register registers task queues with the client.
// Must be called before Start().
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing tasks. It does not block. Use Stop() for
// graceful shutdown.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.logger.Info("Task queue started", "workers", c.config.Workers)
	c.client.Start(ctx)
}

// Stop gracefully shuts down the task queue, waiting for active tasks to complete.
// Returns true if all workers finished before the context deadline.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	c.logger.Info("Stopping task queue")
	success := c.client.Stop(ctx)
	if success {
		c.logger.Info("Task queue stopped gracefully")
	} else {
		c.logger.Warn("Task queue stopped with timeout, some tasks may not have completed")
	}
	return success
}

// Close releases all resources. Should be called after Stop().
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// Enqueue saves a single task and returns its id.
func (c *Client) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	ids, err := c.client.Add(task).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("failed to enqueue task: no id returned")
	}
	return ids[0], nil
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

// charmLogger adapts the application logger to backlite.Logger.
type charmLogger struct {
	logger *log.Logger
}

func (l *charmLogger) Info(message string, params ...any) {
	l.logger.Info(message, params...)
}

func (l *charmLogger) Error(message string, params ...any) {
	l.logger.Error(message, params...)
}
