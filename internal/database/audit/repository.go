package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/entities"
)

const defaultLimit = 50

// Filter narrows an event listing. Zero values match everything.
type Filter struct {
	StaffID    uint
	Action     entities.AuditAction
	EntityType string
	EntityID   uint
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// GetEvents retrieves paginated audit events, most recent first, with the total match count.
func (r *Repository) GetEvents(ctx context.Context, filter Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	events := []entities.AuditEvent{}
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.AuditEvent{})
	if filter.StaffID > 0 {
		query = query.Where("staff_id = ?", filter.StaffID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID > 0 {
		query = query.Where("entity_id = ?", filter.EntityID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// GetRecentEvents retrieves audit events since a specific time.
func (r *Repository) GetRecentEvents(ctx context.Context, since time.Time) ([]entities.AuditEvent, error) {
	var events []entities.AuditEvent
	err := r.db.WithContext(ctx).Where("created_at > ?", since).Order("created_at DESC").Find(&events).Error
	return events, err
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}

// GetEventByID retrieves a single audit event by ID, or nil.
func (r *Repository) GetEventByID(ctx context.Context, id uint) (*entities.AuditEvent, error) {
	var event entities.AuditEvent
	err := r.db.WithContext(ctx).First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return &event, nil
}

// GetEventsBefore retrieves every audit event created before the given time, oldest first.
func (r *Repository) GetEventsBefore(ctx context.Context, before time.Time) ([]entities.AuditEvent, error) {
	var events []entities.AuditEvent
	err := r.db.WithContext(ctx).Where("created_at < ?", before).Order("created_at ASC, id ASC").Find(&events).Error
	return events, err
}
