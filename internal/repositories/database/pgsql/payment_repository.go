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

const paymentColumns = `payment_id, tenant_id, payment_type, party_type, party_id, amount, currency_code, exchange_rate, payment_date, status, journal_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payment data.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryWithTx {
	return &PgxPaymentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.PaymentRepositoryWithTx = (*PgxPaymentRepository)(nil)

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var m models.Payment
	err := row.Scan(
		&m.PaymentID,
		&m.TenantID,
		&m.PaymentType,
		&m.PartyType,
		&m.PartyID,
		&m.Amount,
		&m.CurrencyCode,
		&m.ExchangeRate,
		&m.PaymentDate,
		&m.Status,
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

// SavePayment persists a new draft payment.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.PaymentID,
		m.TenantID,
		m.PaymentType,
		m.PartyType,
		m.PartyID,
		m.Amount,
		m.CurrencyCode,
		m.ExchangeRate,
		m.PaymentDate,
		m.Status,
		m.JournalID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: payment %s already exists", apperrors.ErrDuplicate, m.PaymentID)
		}
		return apperrors.NewAppError(500, fmt.Sprintf("failed to save payment %s", m.PaymentID), err)
	}
	return nil
}

// UpdatePaymentStatus moves the payment between statuses with an optimistic
// guard on the current status.
func (r *PgxPaymentRepository) UpdatePaymentStatus(ctx context.Context, tenantID, paymentID string, from, to domain.DocumentStatus, userID string, now time.Time) error {
	query := `
		UPDATE payments
		SET status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND payment_id = $2 AND status = $3;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, paymentID, string(from), string(to), now, userID)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to update status of payment %s", paymentID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment %s is not in status %s", apperrors.ErrConflict, paymentID, from)
	}
	return nil
}

// FindPaymentByID retrieves a payment header within a tenant.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, tenantID, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1 AND payment_id = $2;`

	m, err := scanPayment(r.Pool.QueryRow(ctx, query, tenantID, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to find payment %s", paymentID), err)
	}
	p := mapping.ToDomainPayment(*m)
	return &p, nil
}

// FindAllocationsByPaymentID retrieves a payment's allocations in creation
// order.
func (r *PgxPaymentRepository) FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	query := `
		SELECT allocation_id, payment_id, invoice_id, amount, created_at, created_by, last_updated_at, last_updated_by
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to query allocations of payment %s", paymentID), err)
	}
	defer rows.Close()

	allocations := make([]models.PaymentAllocation, 0)
	for rows.Next() {
		var m models.PaymentAllocation
		err := rows.Scan(
			&m.AllocationID,
			&m.PaymentID,
			&m.InvoiceID,
			&m.Amount,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan allocation row", err)
		}
		allocations = append(allocations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating allocation rows", err)
	}
	return mapping.ToDomainPaymentAllocationSlice(allocations), nil
}

// ListPayments retrieves a page of payments newest first, using a
// (payment_date, created_at) cursor token.
func (r *PgxPaymentRepository) ListPayments(ctx context.Context, tenantID string, filter portsrepo.PaymentListFilter, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	fetchLimit := limit + 1

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.PaymentType != nil {
		args = append(args, string(*filter.PaymentType))
		query += ` AND payment_type = $` + strconv.Itoa(len(args))
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
		paymentDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, paymentDate, createdAt)
		query += ` AND (payment_date, created_at) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query += ` ORDER BY payment_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list payments", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0, fetchLimit)
	for rows.Next() {
		m, err := scanPayment(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan payment row", err)
		}
		payments = append(payments, mapping.ToDomainPayment(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating payment rows", err)
	}

	var newToken *string
	if len(payments) > limit {
		last := payments[limit-1]
		token := pagination.EncodeToken(last.PaymentDate, last.CreatedAt)
		newToken = &token
		payments = payments[:limit]
	}
	return payments, newToken, nil
}

// FindPaymentByIDForUpdate locks the payment row for the duration of the
// enclosing transaction.
func (r *PgxPaymentRepository) FindPaymentByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1 AND payment_id = $2 FOR UPDATE;`

	m, err := scanPayment(tx.QueryRow(ctx, query, tenantID, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to lock payment %s", paymentID), err)
	}
	p := mapping.ToDomainPayment(*m)
	return &p, nil
}

// SaveAllocationInTx persists an allocation while the payment and target
// invoice rows are locked by the caller.
func (r *PgxPaymentRepository) SaveAllocationInTx(ctx context.Context, tx pgx.Tx, allocation domain.PaymentAllocation) error {
	m := mapping.ToModelPaymentAllocation(allocation)

	query := `
		INSERT INTO payment_allocations (allocation_id, payment_id, invoice_id, amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := tx.Exec(ctx, query,
		m.AllocationID,
		m.PaymentID,
		m.InvoiceID,
		m.Amount,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: payment %s already allocates to invoice %s", apperrors.ErrDuplicate, m.PaymentID, m.InvoiceID)
		}
		return apperrors.NewAppError(500, fmt.Sprintf("failed to save allocation %s", m.AllocationID), err)
	}
	return nil
}

// SumPendingAllocationsForInvoiceInTx totals allocations against an invoice
// from payments that are neither posted nor cancelled. Everything in between
// still claims part of the invoice's open balance.
func (r *PgxPaymentRepository) SumPendingAllocationsForInvoiceInTx(ctx context.Context, tx pgx.Tx, invoiceID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(pa.amount), 0)
		FROM payment_allocations pa
		JOIN payments p ON p.payment_id = pa.payment_id
		WHERE pa.invoice_id = $1 AND p.status NOT IN ($2, $3);
	`
	var sum decimal.Decimal
	err := tx.QueryRow(ctx, query, invoiceID, string(domain.StatusPosted), string(domain.StatusCancelled)).Scan(&sum)
	if err != nil {
		return decimal.Zero, apperrors.NewAppError(500, fmt.Sprintf("failed to sum allocations for invoice %s", invoiceID), err)
	}
	return sum, nil
}

// MarkPaymentPostedInTx sets status POSTED and links the generated journal.
func (r *PgxPaymentRepository) MarkPaymentPostedInTx(ctx context.Context, tx pgx.Tx, paymentID, journalID string, userID string, now time.Time) error {
	query := `
		UPDATE payments
		SET status = $2, journal_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE payment_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, paymentID, string(domain.StatusPosted), journalID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, fmt.Sprintf("failed to mark payment %s posted", paymentID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
	}
	return nil
}
