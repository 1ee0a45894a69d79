package entities

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionBorrow AuditAction = "borrow"
	AuditActionReturn AuditAction = "return"
	AuditActionAuth   AuditAction = "auth"
	AuditActionTask   AuditAction = "task"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	StaffID     uint        `gorm:"index" json:"staff_id"`
	Action      AuditAction `gorm:"index;size:50" json:"action"`
	Description string      `gorm:"size:500" json:"description"`
	EntityType  string      `gorm:"index;size:50" json:"entity_type"` // "book", "author", "borrow", ...
	EntityID    *uint       `gorm:"index" json:"entity_id,omitempty"`
	Metadata    string      `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	IPAddress   string      `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   string      `gorm:"size:500" json:"user_agent,omitempty"`
	RequestID   string      `gorm:"size:64" json:"request_id,omitempty"`
	Status      AuditStatus `gorm:"size:20" json:"status"`
	ErrorMsg    string      `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
