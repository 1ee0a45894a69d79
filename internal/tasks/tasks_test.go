package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library-manager/internal/config"
)

type fakeMarker struct {
	calledWith time.Time
	updated    int64
	err        error
}

func (f *fakeMarker) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	f.calledWith = now
	return f.updated, f.err
}

type fakeCleaner struct {
	retention time.Duration
	deleted   int64
}

func (f *fakeCleaner) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return f.deleted, nil
}

type recordedTask struct {
	taskType string
	metadata map[string]any
}

type fakeRecorder struct {
	tasks []recordedTask
}

func (f *fakeRecorder) LogTask(taskType, _ string, metadata map[string]any, _ error) {
	f.tasks = append(f.tasks, recordedTask{taskType: taskType, metadata: metadata})
}

func TestMarkOverdueBorrowsTaskConfig(t *testing.T) {
	cfg := MarkOverdueBorrowsTask{}.Config()

	assert.Equal(t, TypeMarkOverdueBorrows, cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestMarkOverdueBorrowsProcessor(t *testing.T) {
	t.Run("uses task time and records outcome", func(t *testing.T) {
		marker := &fakeMarker{updated: 4}
		recorder := &fakeRecorder{}
		now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

		err := MarkOverdueBorrowsProcessor(marker, recorder)(context.Background(), MarkOverdueBorrowsTask{Now: now})

		require.NoError(t, err)
		assert.True(t, marker.calledWith.Equal(now))
		require.Len(t, recorder.tasks, 1)
		assert.Equal(t, TypeMarkOverdueBorrows, recorder.tasks[0].taskType)
		assert.Equal(t, int64(4), recorder.tasks[0].metadata["updated"])
	})

	t.Run("defaults to current time and skips empty sweeps", func(t *testing.T) {
		marker := &fakeMarker{}
		recorder := &fakeRecorder{}
		before := time.Now()

		err := MarkOverdueBorrowsProcessor(marker, recorder)(context.Background(), MarkOverdueBorrowsTask{})

		require.NoError(t, err)
		assert.False(t, marker.calledWith.Before(before))
		assert.Empty(t, recorder.tasks)
	})

	t.Run("propagates errors", func(t *testing.T) {
		marker := &fakeMarker{err: errors.New("database is locked")}

		err := MarkOverdueBorrowsProcessor(marker, nil)(context.Background(), MarkOverdueBorrowsTask{})

		assert.ErrorContains(t, err, "database is locked")
	})

	t.Run("requires marker", func(t *testing.T) {
		err := MarkOverdueBorrowsProcessor(nil, nil)(context.Background(), MarkOverdueBorrowsTask{})
		assert.Error(t, err)
	})
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("uses task retention", func(t *testing.T) {
		cleaner := &fakeCleaner{deleted: 2}
		recorder := &fakeRecorder{}

		err := CleanupAuditEventsProcessor(cleaner, recorder)(context.Background(), CleanupAuditEventsTask{RetentionDays: 7})

		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, cleaner.retention)
		require.Len(t, recorder.tasks, 1)
		assert.Equal(t, TypeCleanupAuditEvents, recorder.tasks[0].taskType)
	})

	t.Run("defaults to ninety days", func(t *testing.T) {
		cleaner := &fakeCleaner{}

		err := CleanupAuditEventsProcessor(cleaner, nil)(context.Background(), CleanupAuditEventsTask{})

		require.NoError(t, err)
		assert.Equal(t, 90*24*time.Hour, cleaner.retention)
	})
}

func TestNewTask(t *testing.T) {
	task, err := NewTask(TypeMarkOverdueBorrows, 0)
	require.NoError(t, err)
	assert.IsType(t, MarkOverdueBorrowsTask{}, task)

	task, err = NewTask(TypeCleanupAuditEvents, 30)
	require.NoError(t, err)
	assert.Equal(t, CleanupAuditEventsTask{RetentionDays: 30}, task)

	_, err = NewTask("enrich_book", 0)
	assert.Error(t, err)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.Tasks{Workers: 4, TaskTimeout: time.Minute})

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
}

func TestMarkOverdueQueueRunsThroughClient(t *testing.T) {
	client, err := NewClient(t.TempDir()+"/library.db", Config{Workers: 1, ReleaseAfter: time.Minute, CleanupInterval: time.Hour})
	require.NoError(t, err)
	defer client.Close()

	done := make(chan struct{}, 1)
	marker := markerFunc(func(context.Context, time.Time) (int64, error) {
		done <- struct{}{}
		return 0, nil
	})
	client.Register(NewMarkOverdueBorrowsQueue(marker, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	ids, err := client.Add(MarkOverdueBorrowsTask{}).Save()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("overdue sweep was not executed within timeout")
	}
}

type markerFunc func(context.Context, time.Time) (int64, error)

func (f markerFunc) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	return f(ctx, now)
}
