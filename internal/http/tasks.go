package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/library-manager/internal/entities"
	"github.com/mrlokans/library-manager/internal/tasks"
)

// TasksController handles task queue endpoints.
type TasksController struct {
	queue         TaskQueue
	changes       changeLogger
	retentionDays int
}

func NewTasksController(queue TaskQueue, recorder ChangeRecorder, retentionDays int) *TasksController {
	return &TasksController{
		queue:         queue,
		changes:       changeLogger{recorder: recorder},
		retentionDays: retentionDays,
	}
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": tasks.Types})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	task, err := tasks.NewTask(taskType, tc.retentionDays)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	id, err := tc.queue.Enqueue(ctx, task)
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	tc.changes.log(c, entities.AuditActionTask, taskType, 0, "Enqueued task "+id, map[string]any{"task_id": id})
	c.JSON(http.StatusAccepted, gin.H{
		"task_id": id,
		"type":    taskType,
		"message": "task enqueued",
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task "+taskID+" not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
