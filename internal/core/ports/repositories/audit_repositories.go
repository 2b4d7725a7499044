package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// AuditLogFilter narrows audit log queries. Zero values mean "any".
type AuditLogFilter struct {
	Entity   string
	EntityID string
	Action   domain.AuditAction
	UserID   string
	From     time.Time
	To       time.Time
}

// AuditLogRepository defines operations over the append-only audit log.
// There are deliberately no update or delete operations.
type AuditLogRepository interface {
	// SaveEntry appends one audit entry.
	SaveEntry(ctx context.Context, entry domain.AuditLogEntry) error

	// ListEntries retrieves a filtered, paginated slice of the log, newest
	// first, using a timestamp cursor token.
	ListEntries(ctx context.Context, tenantID string, filter AuditLogFilter, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error)

	// GetStats aggregates counts by action/entity/user, the failure rate and a
	// daily activity timeline over the filtered window.
	GetStats(ctx context.Context, tenantID string, from, to time.Time) (*domain.AuditStats, error)
}
