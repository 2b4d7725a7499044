package services

import (
	"context"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/dto"
)

// AuditRecorder appends entries to the audit trail. Implementations
// must never fail the calling business operation; persistence errors
// are logged and swallowed.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditLogEntry)
}

// AuditSvcFacade records and queries the tenant's audit trail.
type AuditSvcFacade interface {
	AuditRecorder
	ListEntries(ctx context.Context, tenantID string, params dto.ListAuditLogParams) (*dto.ListAuditLogResponse, error)
	GetStats(ctx context.Context, tenantID string, params dto.AuditStatsParams) (*domain.AuditStats, error)
}
