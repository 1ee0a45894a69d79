package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mikestefanello/backlite"
)

// TypeMarkOverdueBorrows is the queue name for the overdue sweep.
const TypeMarkOverdueBorrows = "mark_overdue_borrows"

// OverdueMarker flips borrow records past their due date to overdue.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// TaskRecorder writes task outcomes to the audit trail.
type TaskRecorder interface {
	LogTask(taskType, description string, metadata map[string]any, err error)
}

// MarkOverdueBorrowsTask sweeps not-returned borrows whose due date has passed.
// A zero Now means the time the task runs.
type MarkOverdueBorrowsTask struct {
	Now time.Time `json:"now,omitempty"`
}

// Config returns the queue configuration for overdue sweeps.
func (t MarkOverdueBorrowsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        TypeMarkOverdueBorrows,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// MarkOverdueBorrowsProcessor creates a processor function for MarkOverdueBorrowsTask.
func MarkOverdueBorrowsProcessor(marker OverdueMarker, recorder TaskRecorder) backlite.QueueProcessor[MarkOverdueBorrowsTask] {
	return func(ctx context.Context, task MarkOverdueBorrowsTask) error {
		if marker == nil {
			return fmt.Errorf("overdue marker not configured")
		}

		now := task.Now
		if now.IsZero() {
			now = time.Now()
		}

		updated, err := marker.MarkOverdue(ctx, now)
		if err != nil {
			return fmt.Errorf("mark overdue borrows: %w", err)
		}

		log.Info("Marked overdue borrows", "updated", updated)
		if recorder != nil && updated > 0 {
			recorder.LogTask(TypeMarkOverdueBorrows,
				fmt.Sprintf("Marked %d borrows overdue", updated),
				map[string]any{"updated": updated}, nil)
		}
		return nil
	}
}

// NewMarkOverdueBorrowsQueue creates a backlite queue for overdue sweeps.
func NewMarkOverdueBorrowsQueue(marker OverdueMarker, recorder TaskRecorder) backlite.Queue {
	return backlite.NewQueue(MarkOverdueBorrowsProcessor(marker, recorder))
}
