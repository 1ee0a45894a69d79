package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Time      string            `json:"time"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks"`
	Schedules map[string]string `json:"schedules,omitempty"`
}

type HealthController struct {
	db        Pinger
	version   string
	scheduler ScheduleInfo
	jobs      []string
}

// NewHealthController reports store connectivity and, when a scheduler is
// given, the next run of each named job.
func NewHealthController(db Pinger, version string, scheduler ScheduleInfo, jobs ...string) *HealthController {
	return &HealthController{db: db, version: version, scheduler: scheduler, jobs: jobs}
}

// Status handles GET /health
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
		status = "unhealthy"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	if h.scheduler != nil {
		health.Schedules = make(map[string]string)
		for _, name := range h.jobs {
			if next := h.scheduler.NextRunTime(name); next != nil {
				health.Schedules[name] = next.Format(time.RFC3339)
			}
		}
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

// Ping handles GET /ping
func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Welcome handles GET /
func (h *HealthController) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "Welcome to Library Management System API"})
}
