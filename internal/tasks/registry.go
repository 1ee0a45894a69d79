package tasks

import (
	"fmt"

	"github.com/mikestefanello/backlite"
)

// Types lists the task types that can be enqueued on demand.
var Types = []string{TypeMarkOverdueBorrows, TypeCleanupAuditEvents}

// NewTask builds a task of the named type. retentionDays applies to audit cleanup.
func NewTask(taskType string, retentionDays int) (backlite.Task, error) {
	switch taskType {
	case TypeMarkOverdueBorrows:
		return MarkOverdueBorrowsTask{}, nil
	case TypeCleanupAuditEvents:
		return CleanupAuditEventsTask{RetentionDays: retentionDays}, nil
	default:
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}
}
