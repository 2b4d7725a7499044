package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	"github.com/finbooks/finbooks_backend/internal/models"
	"github.com/finbooks/finbooks_backend/internal/utils/mapping"
	"github.com/finbooks/finbooks_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const journalColumns = `journal_id, tenant_id, source_type, source_id, transaction_date, description, currency_code, status, fiscal_period_id, amount, original_journal_id, reversing_journal_id, created_at, created_by, last_updated_at, last_updated_by`

const journalLineColumns = `line_id, journal_id, account_id, debit, credit, cost_center_id, description, created_at, created_by, last_updated_at, last_updated_by`

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal data.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryWithTx {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.JournalRepositoryWithTx = (*PgxJournalRepository)(nil)

func scanJournal(row pgx.Row) (*models.Journal, error) {
	var m models.Journal
	err := row.Scan(
		&m.JournalID,
		&m.TenantID,
		&m.SourceType,
		&m.SourceID,
		&m.TransactionDate,
		&m.Description,
		&m.CurrencyCode,
		&m.Status,
		&m.FiscalPeriodID,
		&m.Amount,
		&m.OriginalJournalID,
		&m.ReversingJournalID,
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

func scanJournalLine(rows pgx.Rows) (models.JournalLine, error) {
	var m models.JournalLine
	err := rows.Scan(
		&m.LineID,
		&m.JournalID,
		&m.AccountID,
		&m.Debit,
		&m.Credit,
		&m.CostCenterID,
		&m.Description,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func insertJournal(ctx context.Context, tx pgx.Tx, journal domain.Journal) error {
	m := mapping.ToModelJournal(journal)

	query := `
		INSERT INTO journals (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, query,
		m.JournalID,
		m.TenantID,
		m.SourceType,
		m.SourceID,
		m.TransactionDate,
		m.Description,
		m.CurrencyCode,
		m.Status,
		m.FiscalPeriodID,
		m.Amount,
		m.OriginalJournalID,
		m.ReversingJournalID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: journal %s already exists", apperrors.ErrDuplicate, m.JournalID)
		}
		return apperrors.NewAppError(500, fmt.Sprintf("failed to save journal %s", m.JournalID), err)
	}
	return nil
}

func insertJournalLines(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO journal_lines (` + journalLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		m := mapping.ToModelJournalLine(line)
		batch.Queue(query,
			m.LineID,
			m.JournalID,
			m.AccountID,
			m.Debit,
			m.Credit,
			m.CostCenterID,
			m.Description,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range lines {
		if _, err := br.Exec(); err != nil {
			return apperrors.NewAppError(500, "failed to insert journal line", err)
		}
	}
	return nil
}

// SaveDraftJournal persists a manual journal and its lines in DRAFT status.
func (r *PgxJournalRepository) SaveDraftJournal(ctx context.Context, journal domain.Journal, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = r.Rollback(ctx, tx)
		}
	}()

	if err := insertJournal(ctx, tx, journal); err != nil {
		return err
	}
	if err := insertJournalLines(ctx, tx, lines); err != nil {
		return err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateJournalStatus moves a journal between pre-posting statuses with an
// optimistic guard on the current status.
func (r *PgxJournalRepository) UpdateJournalStatus(ctx context.Context, tenantID, journalID string, from, to domain.DocumentStatus, userID string, now time.Time) error {
	query := `
		UPDATE journals
		SET status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND journal_id = $2 AND status = $3;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, journalID, string(from), string(to), now, userID)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to update status of journal %s", journalID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s is not in status %s", apperrors.ErrConflict, journalID, from)
	}
	return nil
}

// FindJournalByID retrieves a specific journal within a tenant.
func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, tenantID, journalID string) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE tenant_id = $1 AND journal_id = $2;`

	m, err := scanJournal(r.Pool.QueryRow(ctx, query, tenantID, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to find journal %s", journalID), err)
	}
	j := mapping.ToDomainJournal(*m)
	return &j, nil
}

// FindJournalLines retrieves all lines of a journal.
func (r *PgxJournalRepository) FindJournalLines(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	query := `SELECT ` + journalLineColumns + ` FROM journal_lines WHERE journal_id = $1 ORDER BY created_at, line_id;`

	rows, err := r.Pool.Query(ctx, query, journalID)
	if err != nil {
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to query lines of journal %s", journalID), err)
	}
	defer rows.Close()

	lines := make([]models.JournalLine, 0)
	for rows.Next() {
		m, err := scanJournalLine(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal line row", err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal line rows", err)
	}
	return mapping.ToDomainJournalLineSlice(lines), nil
}

// ListJournals retrieves a page of journals newest first, using a
// (transaction_date, created_at) cursor token.
func (r *PgxJournalRepository) ListJournals(ctx context.Context, tenantID string, filter portsrepo.JournalListFilter, limit int, nextToken *string) ([]domain.Journal, *string, error) {
	fetchLimit := limit + 1

	query := `SELECT ` + journalColumns + ` FROM journals WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.SourceType != nil {
		args = append(args, string(*filter.SourceType))
		query += ` AND source_type = $` + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}

	if nextToken != nil && *nextToken != "" {
		transactionDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, transactionDate, createdAt)
		query += ` AND (transaction_date, created_at) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query += ` ORDER BY transaction_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list journals", err)
	}
	defer rows.Close()

	journals := make([]domain.Journal, 0, fetchLimit)
	for rows.Next() {
		m, err := scanJournal(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal row", err)
		}
		journals = append(journals, mapping.ToDomainJournal(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal rows", err)
	}

	var newToken *string
	if len(journals) > limit {
		last := journals[limit-1]
		token := pagination.EncodeToken(last.TransactionDate, last.CreatedAt)
		newToken = &token
		journals = journals[:limit]
	}
	return journals, newToken, nil
}

// ListLinesByAccount retrieves a paginated ledger of posted lines for one
// account, newest transaction first. The cursor runs over the parent
// journal's transaction date and the line's creation time.
func (r *PgxJournalRepository) ListLinesByAccount(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	fetchLimit := limit + 1

	query := `
		SELECT jl.line_id, jl.journal_id, jl.account_id, jl.debit, jl.credit, jl.cost_center_id, jl.description, jl.created_at, jl.created_by, jl.last_updated_at, jl.last_updated_by, j.transaction_date
		FROM journal_lines jl
		JOIN journals j ON j.journal_id = jl.journal_id
		WHERE j.tenant_id = $1 AND jl.account_id = $2 AND j.status = $3`
	args := []interface{}{tenantID, accountID, string(domain.StatusPosted)}

	if nextToken != nil && *nextToken != "" {
		transactionDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, transactionDate, createdAt)
		query += ` AND (j.transaction_date, jl.created_at) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query += ` ORDER BY j.transaction_date DESC, jl.created_at DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, fmt.Sprintf("failed to list ledger lines for account %s", accountID), err)
	}
	defer rows.Close()

	type ledgerRow struct {
		line            models.JournalLine
		transactionDate time.Time
	}
	ledger := make([]ledgerRow, 0, fetchLimit)
	for rows.Next() {
		var lr ledgerRow
		err := rows.Scan(
			&lr.line.LineID,
			&lr.line.JournalID,
			&lr.line.AccountID,
			&lr.line.Debit,
			&lr.line.Credit,
			&lr.line.CostCenterID,
			&lr.line.Description,
			&lr.line.CreatedAt,
			&lr.line.CreatedBy,
			&lr.line.LastUpdatedAt,
			&lr.line.LastUpdatedBy,
			&lr.transactionDate,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan ledger row", err)
		}
		ledger = append(ledger, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating ledger rows", err)
	}

	var newToken *string
	if len(ledger) > limit {
		last := ledger[limit-1]
		token := pagination.EncodeToken(last.transactionDate, last.line.CreatedAt)
		newToken = &token
		ledger = ledger[:limit]
	}

	lines := make([]domain.JournalLine, 0, len(ledger))
	for _, lr := range ledger {
		lines = append(lines, mapping.ToDomainJournalLine(lr.line))
	}
	return lines, newToken, nil
}

// SaveJournalInTx inserts a posted journal with its lines inside the caller's
// transaction.
func (r *PgxJournalRepository) SaveJournalInTx(ctx context.Context, tx pgx.Tx, journal domain.Journal, lines []domain.JournalLine) error {
	if err := insertJournal(ctx, tx, journal); err != nil {
		return err
	}
	return insertJournalLines(ctx, tx, lines)
}

// FindJournalByIDForUpdate locks the journal row for the duration of the
// enclosing transaction.
func (r *PgxJournalRepository) FindJournalByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, journalID string) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE tenant_id = $1 AND journal_id = $2 FOR UPDATE;`

	m, err := scanJournal(tx.QueryRow(ctx, query, tenantID, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to lock journal %s", journalID), err)
	}
	j := mapping.ToDomainJournal(*m)
	return &j, nil
}

// MarkJournalPostedInTx sets a locked manual journal's status to POSTED.
func (r *PgxJournalRepository) MarkJournalPostedInTx(ctx context.Context, tx pgx.Tx, journalID string, userID string, now time.Time) error {
	query := `
		UPDATE journals
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE journal_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, journalID, string(domain.StatusPosted), now, userID)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to mark journal %s posted", journalID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	return nil
}

// UpdateJournalReversalLinksInTx links the reversing journal to the original.
// The original stays POSTED so its lines keep counting in every read path; the
// reversal is visible only through the link, and the IS NULL guard makes it
// once-only.
func (r *PgxJournalRepository) UpdateJournalReversalLinksInTx(ctx context.Context, tx pgx.Tx, journalID string, reversingJournalID string, userID string, now time.Time) error {
	query := `
		UPDATE journals
		SET reversing_journal_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE journal_id = $1 AND reversing_journal_id IS NULL;
	`
	cmdTag, err := tx.Exec(ctx, query, journalID, reversingJournalID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to link reversal of journal %s", journalID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s is already reversed", apperrors.ErrConflict, journalID)
	}
	return nil
}
