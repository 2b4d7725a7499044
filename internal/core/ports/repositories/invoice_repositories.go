package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// InvoiceListFilter narrows invoice listings. Nil fields mean "any".
type InvoiceListFilter struct {
	InvoiceType *domain.InvoiceType
	Status      *domain.DocumentStatus
	PartyID     *string
}

// InvoiceReader defines read operations for invoice data.
type InvoiceReader interface {
	// FindInvoiceByID retrieves an invoice header within a tenant.
	FindInvoiceByID(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error)

	// FindInvoiceLines retrieves an invoice's lines ordered by line number.
	FindInvoiceLines(ctx context.Context, invoiceID string) ([]domain.InvoiceLine, error)

	// ListInvoices retrieves a paginated list of invoices using token-based
	// pagination over (invoice_date, created_at).
	ListInvoices(ctx context.Context, tenantID string, filter InvoiceListFilter, limit int, nextToken *string) ([]domain.Invoice, *string, error)
}

// InvoiceWriter defines write operations for invoice data. Draft-only guards
// are enforced at the SQL level (WHERE status = 'DRAFT').
type InvoiceWriter interface {
	// SaveInvoice persists a new draft invoice with its lines.
	SaveInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLine) error

	// UpdateDraftInvoice replaces a draft invoice's header fields and lines.
	// Returns ErrConflict if the invoice is no longer a draft.
	UpdateDraftInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLine) error

	// UpdateInvoiceStatus moves the invoice from one status to another with an
	// optimistic guard: zero rows affected because of a status mismatch maps
	// to ErrConflict.
	UpdateInvoiceStatus(ctx context.Context, tenantID, invoiceID string, from, to domain.DocumentStatus, userID string, now time.Time) error
}

// InvoiceTransactionSupport defines operations inside a posting or allocation
// transaction. The invoice row lock serializes concurrent posts and
// allocations against the same invoice.
type InvoiceTransactionSupport interface {
	// FindInvoiceByIDForUpdate selects the invoice row FOR UPDATE.
	FindInvoiceByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, invoiceID string) (*domain.Invoice, error)

	// MarkInvoicePostedInTx sets status POSTED and links the generated journal.
	MarkInvoicePostedInTx(ctx context.Context, tx pgx.Tx, invoiceID, journalID string, userID string, now time.Time) error

	// UpdateInvoiceBalanceInTx writes a recomputed paid amount, balance and
	// derived status for a locked invoice.
	UpdateInvoiceBalanceInTx(ctx context.Context, tx pgx.Tx, invoiceID string, paidAmount, balanceAmount decimal.Decimal, status domain.DocumentStatus, userID string, now time.Time) error
}

// InvoiceRepositoryFacade combines all invoice-related repository interfaces.
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
	InvoiceTransactionSupport
}

// InvoiceRepositoryWithTx extends InvoiceRepositoryFacade with transaction capabilities.
type InvoiceRepositoryWithTx interface {
	InvoiceRepositoryFacade
	TransactionManager
}
