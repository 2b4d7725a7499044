package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentListFilter narrows payment listings. Nil fields mean "any".
type PaymentListFilter struct {
	PaymentType *domain.PaymentType
	Status      *domain.DocumentStatus
	PartyID     *string
}

// PaymentReader defines read operations for payment data.
type PaymentReader interface {
	// FindPaymentByID retrieves a payment header within a tenant.
	FindPaymentByID(ctx context.Context, tenantID, paymentID string) (*domain.Payment, error)

	// FindAllocationsByPaymentID retrieves a payment's allocations.
	FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error)

	// ListPayments retrieves a paginated list of payments using token-based
	// pagination over (payment_date, created_at).
	ListPayments(ctx context.Context, tenantID string, filter PaymentListFilter, limit int, nextToken *string) ([]domain.Payment, *string, error)
}

// PaymentWriter defines write operations for payment data.
type PaymentWriter interface {
	// SavePayment persists a new draft payment.
	SavePayment(ctx context.Context, payment domain.Payment) error

	// UpdatePaymentStatus moves the payment between statuses with an
	// optimistic guard; a status mismatch maps to ErrConflict.
	UpdatePaymentStatus(ctx context.Context, tenantID, paymentID string, from, to domain.DocumentStatus, userID string, now time.Time) error
}

// PaymentTransactionSupport defines operations inside an allocation or
// posting transaction.
type PaymentTransactionSupport interface {
	// FindPaymentByIDForUpdate selects the payment row FOR UPDATE.
	FindPaymentByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*domain.Payment, error)

	// SaveAllocationInTx persists an allocation while the payment and target
	// invoice rows are locked.
	SaveAllocationInTx(ctx context.Context, tx pgx.Tx, allocation domain.PaymentAllocation) error

	// SumPendingAllocationsForInvoiceInTx totals allocations against the
	// invoice from payments that are neither posted nor cancelled, while the
	// invoice row is locked. Posted payments are already reflected in the
	// invoice balance; cancelled ones never will be.
	SumPendingAllocationsForInvoiceInTx(ctx context.Context, tx pgx.Tx, invoiceID string) (decimal.Decimal, error)

	// MarkPaymentPostedInTx sets status POSTED and links the generated journal.
	MarkPaymentPostedInTx(ctx context.Context, tx pgx.Tx, paymentID, journalID string, userID string, now time.Time) error
}

// PaymentRepositoryFacade combines all payment-related repository interfaces.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
	PaymentTransactionSupport
}

// PaymentRepositoryWithTx extends PaymentRepositoryFacade with transaction capabilities.
type PaymentRepositoryWithTx interface {
	PaymentRepositoryFacade
	TransactionManager
}
