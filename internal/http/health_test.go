package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubSchedule map[string]time.Time

func (s stubSchedule) NextRunTime(name string) *time.Time {
	if next, ok := s[name]; ok {
		return &next
	}
	return nil
}

func serveHealth(controller *HealthController, path string) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/", controller.Welcome)
	router.GET("/health", controller.Status)
	router.GET("/ping", controller.Ping)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		w := serveHealth(NewHealthController(stubPinger{}, "1.0.0", nil), "/health")

		assert.Equal(t, http.StatusOK, w.Code)
		var response HealthResponse
		decode(t, w, &response)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.NotEmpty(t, response.Time)
		assert.Empty(t, response.Schedules)
	})

	t.Run("returns unhealthy when ping fails", func(t *testing.T) {
		w := serveHealth(NewHealthController(stubPinger{err: errors.New("disk gone")}, "1.0.0", nil), "/health")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var response HealthResponse
		decode(t, w, &response)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "disk gone")
	})

	t.Run("returns unhealthy when database is nil", func(t *testing.T) {
		w := serveHealth(NewHealthController(nil, "1.0.0", nil), "/health")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "not configured")
	})

	t.Run("lists next scheduled runs", func(t *testing.T) {
		next := time.Date(2030, 1, 1, 3, 30, 0, 0, time.UTC)
		schedule := stubSchedule{"audit_cleanup": next}

		w := serveHealth(NewHealthController(stubPinger{}, "1.0.0", schedule, "audit_cleanup", "overdue_sweep"), "/health")

		require.Equal(t, http.StatusOK, w.Code)
		var response HealthResponse
		decode(t, w, &response)
		assert.Equal(t, map[string]string{"audit_cleanup": next.Format(time.RFC3339)}, response.Schedules)
	})
}

func TestHealthController_PingAndWelcome(t *testing.T) {
	controller := NewHealthController(stubPinger{}, "", nil)

	w := serveHealth(controller, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	w = serveHealth(controller, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome to Library Management System API"}`, w.Body.String())
}
