package pgsql

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	"github.com/finbooks/finbooks_backend/internal/models"
	"github.com/finbooks/finbooks_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditLogColumns = `entry_id, tenant_id, user_id, action, entity, entity_id, changes, timestamp, success, error_message, execution_time_ms`

type PgxAuditLogRepository struct {
	BaseRepository
}

// newPgxAuditLogRepository creates a new repository for the append-only audit
// log.
func newPgxAuditLogRepository(pool *pgxpool.Pool) portsrepo.AuditLogRepository {
	return &PgxAuditLogRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.AuditLogRepository = (*PgxAuditLogRepository)(nil)

func toModelAuditLogEntry(d domain.AuditLogEntry) (models.AuditLogEntry, error) {
	var changes []byte
	if len(d.Changes) > 0 {
		b, err := json.Marshal(d.Changes)
		if err != nil {
			return models.AuditLogEntry{}, fmt.Errorf("failed to marshal audit changes: %w", err)
		}
		changes = b
	}
	return models.AuditLogEntry{
		EntryID:         d.EntryID,
		TenantID:        d.TenantID,
		UserID:          d.UserID,
		Action:          string(d.Action),
		Entity:          d.Entity,
		EntityID:        d.EntityID,
		Changes:         changes,
		Timestamp:       d.Timestamp,
		Success:         d.Success,
		ErrorMessage:    d.ErrorMessage,
		ExecutionTimeMs: d.ExecutionTimeMs,
	}, nil
}

func toDomainAuditLogEntry(m models.AuditLogEntry) (domain.AuditLogEntry, error) {
	var changes map[string]domain.FieldChange
	if len(m.Changes) > 0 {
		if err := json.Unmarshal(m.Changes, &changes); err != nil {
			return domain.AuditLogEntry{}, fmt.Errorf("failed to unmarshal audit changes: %w", err)
		}
	}
	return domain.AuditLogEntry{
		EntryID:         m.EntryID,
		TenantID:        m.TenantID,
		UserID:          m.UserID,
		Action:          domain.AuditAction(m.Action),
		Entity:          m.Entity,
		EntityID:        m.EntityID,
		Changes:         changes,
		Timestamp:       m.Timestamp,
		Success:         m.Success,
		ErrorMessage:    m.ErrorMessage,
		ExecutionTimeMs: m.ExecutionTimeMs,
	}, nil
}

// SaveEntry appends one audit entry.
func (r *PgxAuditLogRepository) SaveEntry(ctx context.Context, entry domain.AuditLogEntry) error {
	m, err := toModelAuditLogEntry(entry)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_log (` + auditLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.EntryID,
		m.TenantID,
		m.UserID,
		m.Action,
		m.Entity,
		m.EntityID,
		m.Changes,
		m.Timestamp,
		m.Success,
		m.ErrorMessage,
		m.ExecutionTimeMs,
	)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to save audit entry %s", m.EntryID), err)
	}
	return nil
}

// ListEntries retrieves a filtered page of the log, newest first, using a
// timestamp cursor.
func (r *PgxAuditLogRepository) ListEntries(ctx context.Context, tenantID string, filter portsrepo.AuditLogFilter, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	fetchLimit := limit + 1

	query := `SELECT ` + auditLogColumns + ` FROM audit_log WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.Entity != "" {
		args = append(args, filter.Entity)
		query += ` AND entity = $` + strconv.Itoa(len(args))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		query += ` AND entity_id = $` + strconv.Itoa(len(args))
	}
	if filter.Action != "" {
		args = append(args, string(filter.Action))
		query += ` AND action = $` + strconv.Itoa(len(args))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += ` AND user_id = $` + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += ` AND timestamp >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += ` AND timestamp <= $` + strconv.Itoa(len(args))
	}

	if nextToken != nil && *nextToken != "" {
		before, err := pagination.DecodeTimestampToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, before)
		query += ` AND timestamp < $` + strconv.Itoa(len(args))
	}

	args = append(args, fetchLimit)
	query += ` ORDER BY timestamp DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list audit entries", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditLogEntry, 0, fetchLimit)
	for rows.Next() {
		var m models.AuditLogEntry
		err := rows.Scan(
			&m.EntryID,
			&m.TenantID,
			&m.UserID,
			&m.Action,
			&m.Entity,
			&m.EntityID,
			&m.Changes,
			&m.Timestamp,
			&m.Success,
			&m.ErrorMessage,
			&m.ExecutionTimeMs,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan audit entry row", err)
		}
		entry, err := toDomainAuditLogEntry(m)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to decode audit entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating audit entry rows", err)
	}

	var newToken *string
	if len(entries) > limit {
		token := pagination.EncodeTimestampToken(entries[limit-1].Timestamp)
		newToken = &token
		entries = entries[:limit]
	}
	return entries, newToken, nil
}

// GetStats aggregates counts by action, entity and user, the failure rate and
// a daily activity timeline over the window.
func (r *PgxAuditLogRepository) GetStats(ctx context.Context, tenantID string, from, to time.Time) (*domain.AuditStats, error) {
	stats := &domain.AuditStats{
		CountsByAction: make(map[string]int64),
		CountsByEntity: make(map[string]int64),
		CountsByUser:   make(map[string]int64),
		Timeline:       make([]domain.AuditBucket, 0),
	}

	totalsQuery := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT success)
		FROM audit_log
		WHERE tenant_id = $1 AND timestamp >= $2 AND timestamp <= $3;
	`
	if err := r.Pool.QueryRow(ctx, totalsQuery, tenantID, from, to).Scan(&stats.Total, &stats.Failures); err != nil {
		return nil, apperrors.NewAppError(500, "failed to aggregate audit totals", err)
	}
	if stats.Total > 0 {
		stats.FailureRate = float64(stats.Failures) / float64(stats.Total)
	}

	groupBys := []struct {
		column string
		dest   map[string]int64
	}{
		{"action", stats.CountsByAction},
		{"entity", stats.CountsByEntity},
		{"user_id", stats.CountsByUser},
	}
	for _, g := range groupBys {
		query := `
			SELECT ` + g.column + `, COUNT(*)
			FROM audit_log
			WHERE tenant_id = $1 AND timestamp >= $2 AND timestamp <= $3
			GROUP BY ` + g.column + `;
		`
		rows, err := r.Pool.Query(ctx, query, tenantID, from, to)
		if err != nil {
			return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to aggregate audit counts by %s", g.column), err)
		}
		for rows.Next() {
			var key string
			var count int64
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, apperrors.NewAppError(500, "failed to scan audit count row", err)
			}
			g.dest[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, apperrors.NewAppError(500, "error iterating audit count rows", err)
		}
		rows.Close()
	}

	timelineQuery := `
		SELECT date_trunc('day', timestamp) AS day, COUNT(*)
		FROM audit_log
		WHERE tenant_id = $1 AND timestamp >= $2 AND timestamp <= $3
		GROUP BY day
		ORDER BY day;
	`
	rows, err := r.Pool.Query(ctx, timelineQuery, tenantID, from, to)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to aggregate audit timeline", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bucket domain.AuditBucket
		if err := rows.Scan(&bucket.PeriodStart, &bucket.Count); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan audit timeline row", err)
		}
		stats.Timeline = append(stats.Timeline, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating audit timeline rows", err)
	}

	return stats, nil
}
