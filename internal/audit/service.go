package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	jsoniter "github.com/json-iterator/go"

	"github.com/mrlokans/library-manager/internal/database/audit"
	"github.com/mrlokans/library-manager/internal/entities"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record describes one change to library data.
type Record struct {
	StaffID     uint
	Action      entities.AuditAction
	EntityType  string
	EntityID    uint
	Description string
	Metadata    map[string]any
	IPAddress   string
	UserAgent   string
	RequestID   string
	Err         error
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo     *audit.Repository
	archiver *Archiver
	wg       sync.WaitGroup
}

// NewService creates a new audit service. archiver may be nil.
func NewService(repo *audit.Repository, archiver *Archiver) *Service {
	return &Service{repo: repo, archiver: archiver}
}

// Log records an audit event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			log.Error("Failed to log audit event", "action", event.Action, "err", err)
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogChange records a create, update, delete, borrow or return.
func (s *Service) LogChange(rec Record) {
	s.LogAsync(rec.event())
}

// LogAuth records a login, logout or token event.
func (s *Service) LogAuth(staffID uint, description, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		StaffID:     staffID,
		Action:      entities.AuditActionAuth,
		Description: description,
		IPAddress:   ipAddr,
		UserAgent:   truncate(userAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogTask records the outcome of a background task.
func (s *Service) LogTask(taskType, description string, metadata map[string]any, err error) {
	s.LogAsync(Record{
		Action:      entities.AuditActionTask,
		EntityType:  taskType,
		Description: description,
		Metadata:    metadata,
		Err:         err,
	}.event())
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, filter, limit, offset)
}

// DeleteOldEvents removes events older than the retention period, archiving
// them first when an archiver is configured.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	if s.archiver != nil {
		events, err := s.repo.GetEventsBefore(ctx, cutoff)
		if err != nil {
			return 0, fmt.Errorf("failed to load events for archive: %w", err)
		}
		if len(events) > 0 {
			if _, err := s.archiver.SaveJSON(events); err != nil {
				return 0, err
			}
		}
	}

	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func (r Record) event() *entities.AuditEvent {
	event := &entities.AuditEvent{
		StaffID:     r.StaffID,
		Action:      r.Action,
		Description: truncate(r.Description, 500),
		EntityType:  r.EntityType,
		IPAddress:   r.IPAddress,
		UserAgent:   truncate(r.UserAgent, 500),
		RequestID:   r.RequestID,
		Status:      entities.AuditStatusSuccess,
	}
	if r.EntityID != 0 {
		id := r.EntityID
		event.EntityID = &id
	}
	if len(r.Metadata) > 0 {
		if mdBytes, err := json.Marshal(r.Metadata); err == nil {
			event.Metadata = string(mdBytes)
		}
	}
	if r.Err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(r.Err.Error(), 500)
	}
	return event
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
