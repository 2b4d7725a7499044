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
	"github.com/shopspring/decimal"
)

const invoiceColumns = `invoice_id, tenant_id, invoice_type, party_type, party_id, currency_code, exchange_rate, invoice_date, status, total_amount, base_amount, paid_amount, balance_amount, fiscal_period_id, journal_id, created_at, created_by, last_updated_at, last_updated_by`

const invoiceLineColumns = `line_id, invoice_id, line_number, description, quantity, unit_price, tax_rate, discount_percent, account_id, line_total`

type PgxInvoiceRepository struct {
	BaseRepository
}

// newPgxInvoiceRepository creates a new repository for invoice data.
func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryWithTx {
	return &PgxInvoiceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.InvoiceRepositoryWithTx = (*PgxInvoiceRepository)(nil)

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var m models.Invoice
	err := row.Scan(
		&m.InvoiceID,
		&m.TenantID,
		&m.InvoiceType,
		&m.PartyType,
		&m.PartyID,
		&m.CurrencyCode,
		&m.ExchangeRate,
		&m.InvoiceDate,
		&m.Status,
		&m.TotalAmount,
		&m.BaseAmount,
		&m.PaidAmount,
		&m.BalanceAmount,
		&m.FiscalPeriodID,
		&m.JournalID,
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

func insertInvoiceLines(ctx context.Context, tx pgx.Tx, lines []domain.InvoiceLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO invoice_lines (` + invoiceLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		m := mapping.ToModelInvoiceLine(line)
		batch.Queue(query,
			m.LineID,
			m.InvoiceID,
			m.LineNumber,
			m.Description,
			m.Quantity,
			m.UnitPrice,
			m.TaxRate,
			m.DiscountPercent,
			m.AccountID,
			m.LineTotal,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range lines {
		if _, err := br.Exec(); err != nil {
			return apperrors.NewAppError(500, "failed to insert invoice line", err)
		}
	}
	return nil
}

// SaveInvoice persists a new draft invoice with its lines atomically.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLine) error {
	m := mapping.ToModelInvoice(invoice)

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

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err = tx.Exec(ctx, query,
		m.InvoiceID,
		m.TenantID,
		m.InvoiceType,
		m.PartyType,
		m.PartyID,
		m.CurrencyCode,
		m.ExchangeRate,
		m.InvoiceDate,
		m.Status,
		m.TotalAmount,
		m.BaseAmount,
		m.PaidAmount,
		m.BalanceAmount,
		m.FiscalPeriodID,
		m.JournalID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: invoice %s already exists", apperrors.ErrDuplicate, m.InvoiceID)
		}
		return apperrors.NewAppError(500, fmt.Sprintf("failed to save invoice %s", m.InvoiceID), err)
	}

	if err := insertInvoiceLines(ctx, tx, lines); err != nil {
		return err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateDraftInvoice replaces a draft invoice's header fields and lines. The
// status guard in the UPDATE turns a lost race into ErrConflict.
func (r *PgxInvoiceRepository) UpdateDraftInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLine) error {
	m := mapping.ToModelInvoice(invoice)

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

	query := `
		UPDATE invoices
		SET party_type = $3, party_id = $4, currency_code = $5, exchange_rate = $6, invoice_date = $7, total_amount = $8, base_amount = $9, balance_amount = $10, fiscal_period_id = $11, last_updated_at = $12, last_updated_by = $13
		WHERE tenant_id = $1 AND invoice_id = $2 AND status = $14;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.TenantID,
		m.InvoiceID,
		m.PartyType,
		m.PartyID,
		m.CurrencyCode,
		m.ExchangeRate,
		m.InvoiceDate,
		m.TotalAmount,
		m.BaseAmount,
		m.BalanceAmount,
		m.FiscalPeriodID,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		string(domain.StatusDraft),
	)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to update invoice %s", m.InvoiceID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %s is no longer a draft", apperrors.ErrConflict, m.InvoiceID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1;`, m.InvoiceID); err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to clear lines of invoice %s", m.InvoiceID), err)
	}
	if err := insertInvoiceLines(ctx, tx, lines); err != nil {
		return err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateInvoiceStatus moves the invoice between statuses with an optimistic
// guard on the current status.
func (r *PgxInvoiceRepository) UpdateInvoiceStatus(ctx context.Context, tenantID, invoiceID string, from, to domain.DocumentStatus, userID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND invoice_id = $2 AND status = $3;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, invoiceID, string(from), string(to), now, userID)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to update status of invoice %s", invoiceID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %s is not in status %s", apperrors.ErrConflict, invoiceID, from)
	}
	return nil
}

// FindInvoiceByID retrieves an invoice header within a tenant.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1 AND invoice_id = $2;`

	m, err := scanInvoice(r.Pool.QueryRow(ctx, query, tenantID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %s", apperrors.ErrNotFound, invoiceID)
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to find invoice %s", invoiceID), err)
	}
	inv := mapping.ToDomainInvoice(*m)
	return &inv, nil
}

// FindInvoiceLines retrieves an invoice's lines ordered by line number.
func (r *PgxInvoiceRepository) FindInvoiceLines(ctx context.Context, invoiceID string) ([]domain.InvoiceLine, error) {
	query := `SELECT ` + invoiceLineColumns + ` FROM invoice_lines WHERE invoice_id = $1 ORDER BY line_number;`

	rows, err := r.Pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to query lines of invoice %s", invoiceID), err)
	}
	defer rows.Close()

	lines := make([]models.InvoiceLine, 0)
	for rows.Next() {
		var m models.InvoiceLine
		err := rows.Scan(
			&m.LineID,
			&m.InvoiceID,
			&m.LineNumber,
			&m.Description,
			&m.Quantity,
			&m.UnitPrice,
			&m.TaxRate,
			&m.DiscountPercent,
			&m.AccountID,
			&m.LineTotal,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan invoice line row", err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating invoice line rows", err)
	}
	return mapping.ToDomainInvoiceLineSlice(lines), nil
}

// ListInvoices retrieves a page of invoices newest first, using a
// (invoice_date, created_at) cursor token.
func (r *PgxInvoiceRepository) ListInvoices(ctx context.Context, tenantID string, filter portsrepo.InvoiceListFilter, limit int, nextToken *string) ([]domain.Invoice, *string, error) {
	fetchLimit := limit + 1

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.InvoiceType != nil {
		args = append(args, string(*filter.InvoiceType))
		query += ` AND invoice_type = $` + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.PartyID != nil {
		args = append(args, *filter.PartyID)
		query += ` AND party_id = $` + strconv.Itoa(len(args))
	}

	if nextToken != nil && *nextToken != "" {
		invoiceDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, invoiceDate, createdAt)
		query += ` AND (invoice_date, created_at) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query += ` ORDER BY invoice_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list invoices", err)
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0, fetchLimit)
	for rows.Next() {
		m, err := scanInvoice(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan invoice row", err)
		}
		invoices = append(invoices, mapping.ToDomainInvoice(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating invoice rows", err)
	}

	var newToken *string
	if len(invoices) > limit {
		last := invoices[limit-1]
		token := pagination.EncodeToken(last.InvoiceDate, last.CreatedAt)
		newToken = &token
		invoices = invoices[:limit]
	}
	return invoices, newToken, nil
}

// FindInvoiceByIDForUpdate locks the invoice row for the duration of the
// enclosing transaction.
func (r *PgxInvoiceRepository) FindInvoiceByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1 AND invoice_id = $2 FOR UPDATE;`

	m, err := scanInvoice(tx.QueryRow(ctx, query, tenantID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %s", apperrors.ErrNotFound, invoiceID)
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to lock invoice %s", invoiceID), err)
	}
	inv := mapping.ToDomainInvoice(*m)
	return &inv, nil
}

// MarkInvoicePostedInTx sets status POSTED and links the generated journal.
func (r *PgxInvoiceRepository) MarkInvoicePostedInTx(ctx context.Context, tx pgx.Tx, invoiceID, journalID string, userID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET status = $2, journal_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE invoice_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, invoiceID, string(domain.StatusPosted), journalID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to mark invoice %s posted", invoiceID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %s", apperrors.ErrNotFound, invoiceID)
	}
	return nil
}

// UpdateInvoiceBalanceInTx writes a recomputed paid amount, balance and
// derived status for a locked invoice.
func (r *PgxInvoiceRepository) UpdateInvoiceBalanceInTx(ctx context.Context, tx pgx.Tx, invoiceID string, paidAmount, balanceAmount decimal.Decimal, status domain.DocumentStatus, userID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET paid_amount = $2, balance_amount = $3, status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE invoice_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, invoiceID, paidAmount, balanceAmount, string(status), now, userID)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to update balance of invoice %s", invoiceID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %s", apperrors.ErrNotFound, invoiceID)
	}
	return nil
}
