package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
	"github.com/finbooks/finbooks_backend/internal/middleware"
)

// defaultStatsWindow bounds audit statistics when the caller gives no range.
const defaultStatsWindow = 30 * 24 * time.Hour

// auditService records and queries the append-only audit trail.
type auditService struct {
	auditRepo portsrepo.AuditLogRepository
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo portsrepo.AuditLogRepository) portssvc.AuditSvcFacade {
	return &auditService{auditRepo: auditRepo}
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// Record appends one entry to the audit trail. Persistence failures are logged
// and swallowed so audit recording never fails the business operation.
func (s *auditService) Record(ctx context.Context, entry domain.AuditLogEntry) {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := s.auditRepo.SaveEntry(ctx, entry); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to record audit entry",
			slog.String("error", err.Error()),
			slog.String("entity", entry.Entity),
			slog.String("entity_id", entry.EntityID),
			slog.String("action", string(entry.Action)),
		)
	}
}

// ListEntries retrieves a filtered page of the tenant's audit trail, newest
// first.
func (s *auditService) ListEntries(ctx context.Context, tenantID string, params dto.ListAuditLogParams) (*dto.ListAuditLogResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := portsrepo.AuditLogFilter{}
	if params.Entity != nil {
		filter.Entity = *params.Entity
	}
	if params.EntityID != nil {
		filter.EntityID = *params.EntityID
	}
	if params.Action != nil {
		filter.Action = *params.Action
	}
	if params.UserID != nil {
		filter.UserID = *params.UserID
	}
	if params.From != nil {
		filter.From = *params.From
	}
	if params.To != nil {
		filter.To = *params.To
	}

	entries, nextToken, err := s.auditRepo.ListEntries(ctx, tenantID, filter, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return &dto.ListAuditLogResponse{Entries: entries, NextToken: nextToken}, nil
}

// GetStats aggregates audit activity over the requested window, defaulting to
// the last thirty days.
func (s *auditService) GetStats(ctx context.Context, tenantID string, params dto.AuditStatsParams) (*domain.AuditStats, error) {
	to := time.Now().UTC()
	if params.To != nil {
		to = *params.To
	}
	from := to.Add(-defaultStatsWindow)
	if params.From != nil {
		from = *params.From
	}
	stats, err := s.auditRepo.GetStats(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate audit stats: %w", err)
	}
	return stats, nil
}
