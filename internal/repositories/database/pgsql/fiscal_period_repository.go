package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	"github.com/finbooks/finbooks_backend/internal/models"
	"github.com/finbooks/finbooks_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fiscalPeriodColumns = `period_id, tenant_id, name, start_date, end_date, is_closed, created_at, created_by, last_updated_at, last_updated_by`

type PgxFiscalPeriodRepository struct {
	BaseRepository
}

// newPgxFiscalPeriodRepository creates a new repository for fiscal period data.
func newPgxFiscalPeriodRepository(pool *pgxpool.Pool) portsrepo.FiscalPeriodRepository {
	return &PgxFiscalPeriodRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.FiscalPeriodRepository = (*PgxFiscalPeriodRepository)(nil)

func scanFiscalPeriod(row pgx.Row) (*models.FiscalPeriod, error) {
	var m models.FiscalPeriod
	err := row.Scan(
		&m.PeriodID,
		&m.TenantID,
		&m.Name,
		&m.StartDate,
		&m.EndDate,
		&m.IsClosed,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveFiscalPeriod persists a new fiscal period.
func (r *PgxFiscalPeriodRepository) SaveFiscalPeriod(ctx context.Context, period domain.FiscalPeriod) error {
	m := mapping.ToModelFiscalPeriod(period)

	query := `
		INSERT INTO fiscal_periods (` + fiscalPeriodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.PeriodID,
		m.TenantID,
		m.Name,
		m.StartDate,
		m.EndDate,
		m.IsClosed,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: fiscal period %s already exists", apperrors.ErrDuplicate, m.Name)
		}
		return apperrors.NewAppError(500, fmt.Sprintf("failed to save fiscal period %s", m.PeriodID), err)
	}
	return nil
}

// FindFiscalPeriodByID retrieves a period within a tenant.
func (r *PgxFiscalPeriodRepository) FindFiscalPeriodByID(ctx context.Context, tenantID, periodID string) (*domain.FiscalPeriod, error) {
	query := `SELECT ` + fiscalPeriodColumns + ` FROM fiscal_periods WHERE tenant_id = $1 AND period_id = $2;`

	m, err := scanFiscalPeriod(r.Pool.QueryRow(ctx, query, tenantID, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: fiscal period %s", apperrors.ErrNotFound, periodID)
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to find fiscal period %s", periodID), err)
	}
	p := mapping.ToDomainFiscalPeriod(*m)
	return &p, nil
}

// FindFiscalPeriodForDate finds the period whose range contains the date.
// Ranges are inclusive on both ends and never overlap.
func (r *PgxFiscalPeriodRepository) FindFiscalPeriodForDate(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error) {
	query := `SELECT ` + fiscalPeriodColumns + ` FROM fiscal_periods WHERE tenant_id = $1 AND start_date <= $2 AND end_date >= $2;`

	m, err := scanFiscalPeriod(r.Pool.QueryRow(ctx, query, tenantID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrNotFound, date.Format("2006-01-02"))
		}
		return nil, apperrors.NewAppError(500, "failed to find fiscal period for date", err)
	}
	p := mapping.ToDomainFiscalPeriod(*m)
	return &p, nil
}

// ListFiscalPeriods lists a tenant's periods ordered by start date.
func (r *PgxFiscalPeriodRepository) ListFiscalPeriods(ctx context.Context, tenantID string) ([]domain.FiscalPeriod, error) {
	query := `SELECT ` + fiscalPeriodColumns + ` FROM fiscal_periods WHERE tenant_id = $1 ORDER BY start_date;`

	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list fiscal periods", err)
	}
	defer rows.Close()

	periods := make([]domain.FiscalPeriod, 0)
	for rows.Next() {
		m, err := scanFiscalPeriod(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan fiscal period row", err)
		}
		periods = append(periods, mapping.ToDomainFiscalPeriod(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating fiscal period rows", err)
	}
	return periods, nil
}

// CloseFiscalPeriod marks a period closed. The guard on is_closed makes a
// repeated close surface as ErrConflict.
func (r *PgxFiscalPeriodRepository) CloseFiscalPeriod(ctx context.Context, tenantID, periodID string, userID string, now time.Time) error {
	query := `
		UPDATE fiscal_periods
		SET is_closed = TRUE, last_updated_at = $3, last_updated_by = $4
		WHERE tenant_id = $1 AND period_id = $2 AND is_closed = FALSE;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, periodID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to close fiscal period %s", periodID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: fiscal period %s is already closed or does not exist", apperrors.ErrConflict, periodID)
	}
	return nil
}
