package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dueReminderTask stands in for a library task in queue plumbing tests.
type dueReminderTask struct {
	BorrowID uint `json:"borrow_id"`
}

func (dueReminderTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "due_reminder",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "library.db")

	cfg := DefaultConfig()
	cfg.Workers = 1
	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, dbPath
}

func startClient(t *testing.T, client *Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go client.Start(ctx)
}

func TestNewClient_CreatesTasksDatabaseNextToMain(t *testing.T) {
	_, dbPath := newTestClient(t)

	_, err := os.Stat(TasksDBPath(dbPath))
	assert.NoError(t, err)
}

func TestClient_StopBeforeStart(t *testing.T) {
	client, _ := newTestClient(t)
	assert.True(t, client.Stop(context.Background()))
}

func TestClient_StartStop(t *testing.T) {
	client, _ := newTestClient(t)
	startClient(t, client)
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.True(t, client.Stop(ctx))
}

func TestClient_RunsRegisteredQueue(t *testing.T) {
	client, _ := newTestClient(t)

	executed := make(chan uint, 1)
	client.Register(backlite.NewQueue(func(ctx context.Context, task dueReminderTask) error {
		executed <- task.BorrowID
		return nil
	}))
	startClient(t, client)

	id, err := client.Enqueue(context.Background(), dueReminderTask{BorrowID: 42})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case borrowID := <-executed:
		assert.Equal(t, uint(42), borrowID)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestClient_StatusOfPendingTask(t *testing.T) {
	client, _ := newTestClient(t)
	client.Register(backlite.NewQueue(func(ctx context.Context, task dueReminderTask) error { return nil }))

	ids, err := client.Add(dueReminderTask{BorrowID: 1}, dueReminderTask{BorrowID: 2}).Save()
	require.NoError(t, err)
	require.Len(t, ids, 2)

	for _, id := range ids {
		status, err := client.Status(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, backlite.TaskStatusPending, status)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "library-tasks.db"), TasksDBPath(filepath.Join("data", "library.db")))
	assert.Equal(t, "library-tasks", TasksDBPath("library"))
	assert.Equal(t, "library-tasks.db", TasksDBPath(""))
}
