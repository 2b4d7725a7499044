package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// JournalListFilter narrows journal listings. Nil fields mean "any".
type JournalListFilter struct {
	SourceType *domain.JournalSourceType
	Status     *domain.DocumentStatus
}

// JournalReader defines read operations for journal data.
type JournalReader interface {
	// FindJournalByID retrieves a specific journal within a tenant.
	FindJournalByID(ctx context.Context, tenantID, journalID string) (*domain.Journal, error)

	// FindJournalLines retrieves all lines of a journal.
	FindJournalLines(ctx context.Context, journalID string) ([]domain.JournalLine, error)

	// ListJournals retrieves a paginated list of journals for a tenant using
	// token-based pagination.
	ListJournals(ctx context.Context, tenantID string, filter JournalListFilter, limit int, nextToken *string) ([]domain.Journal, *string, error)

	// ListLinesByAccount retrieves a paginated ledger of posted lines for one
	// account.
	ListLinesByAccount(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error)
}

// JournalWriter defines write operations for journal data.
type JournalWriter interface {
	// SaveDraftJournal persists a manual journal and its lines in DRAFT status.
	SaveDraftJournal(ctx context.Context, journal domain.Journal, lines []domain.JournalLine) error

	// UpdateJournalStatus moves a manual journal between pre-posting statuses
	// with an optimistic guard; a status mismatch maps to ErrConflict.
	UpdateJournalStatus(ctx context.Context, tenantID, journalID string, from, to domain.DocumentStatus, userID string, now time.Time) error
}

// JournalTransactionSupport defines the writes that happen inside a posting
// transaction.
type JournalTransactionSupport interface {
	// SaveJournalInTx inserts a posted journal with its lines.
	SaveJournalInTx(ctx context.Context, tx pgx.Tx, journal domain.Journal, lines []domain.JournalLine) error

	// FindJournalByIDForUpdate selects the journal row FOR UPDATE.
	FindJournalByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, journalID string) (*domain.Journal, error)

	// MarkJournalPostedInTx sets a locked manual journal's status to POSTED.
	MarkJournalPostedInTx(ctx context.Context, tx pgx.Tx, journalID string, userID string, now time.Time) error

	// UpdateJournalReversalLinksInTx links the reversing journal to the
	// original, which stays POSTED; guarded so it applies at most once.
	UpdateJournalReversalLinksInTx(ctx context.Context, tx pgx.Tx, journalID string, reversingJournalID string, userID string, now time.Time) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	JournalTransactionSupport
}

// JournalRepositoryWithTx extends JournalRepositoryFacade with transaction capabilities.
type JournalRepositoryWithTx interface {
	JournalRepositoryFacade
	TransactionManager
}

// BalanceApplier is the slice of account support the posting engine needs to
// apply signed balance changes while accounts are locked.
type BalanceApplier interface {
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, accountIDs []string) (map[string]domain.Account, error)
	UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error
}
