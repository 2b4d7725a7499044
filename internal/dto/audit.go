package dto

import (
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// ListAuditLogParams filters and pages the tenant's audit trail.
type ListAuditLogParams struct {
	Entity    *string             `form:"entity"`
	EntityID  *string             `form:"entityID"`
	Action    *domain.AuditAction `form:"action"`
	UserID    *string             `form:"userID" binding:"omitempty,uuid"`
	From      *time.Time          `form:"from"`
	To        *time.Time          `form:"to"`
	Limit     int                 `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string             `form:"nextToken"`
}

// ListAuditLogResponse is one page of audit entries, newest first.
type ListAuditLogResponse struct {
	Entries   []domain.AuditLogEntry `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// AuditStatsParams bounds the aggregation window.
type AuditStatsParams struct {
	From *time.Time `form:"from"`
	To   *time.Time `form:"to"`
}
