package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/audit"
	"github.com/mrlokans/library-manager/internal/auth"
	dbaudit "github.com/mrlokans/library-manager/internal/database/audit"
	"github.com/mrlokans/library-manager/internal/entities"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditController serves the audit trail.
type AuditController struct {
	reader AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{reader: reader}
}

// GetAuditEvents returns audit events newest first.
// GET /api/audit?limit&offset&action&entity_type&entity_id&staff_id
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", defaultAuditLimit)
	if !ok {
		return
	}
	if limit == 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}
	offset, ok := parseIntQuery(c, "offset", 0)
	if !ok {
		return
	}
	entityID, ok := parseOptionalUintQuery(c, "entity_id")
	if !ok {
		return
	}
	staffID, ok := parseOptionalUintQuery(c, "staff_id")
	if !ok {
		return
	}

	filter := dbaudit.Filter{
		StaffID:    staffID,
		Action:     entities.AuditAction(c.Query("action")),
		EntityType: c.Query("entity_type"),
		EntityID:   entityID,
	}

	events, total, err := ac.reader.GetEvents(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// changeLogger fills audit records with request details. A nil recorder
// turns it into a no-op.
type changeLogger struct {
	recorder ChangeRecorder
}

func (l changeLogger) log(c *gin.Context, action entities.AuditAction, entityType string, entityID uint, description string, metadata map[string]any) {
	if l.recorder == nil {
		return
	}
	l.recorder.LogChange(audit.Record{
		StaffID:     auth.GetStaffID(c),
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		Metadata:    metadata,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		RequestID:   GetRequestID(c),
	})
}
