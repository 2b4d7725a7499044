package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	"github.com/finbooks/finbooks_backend/internal/utils/accounting"
)

// postingEngine turns source documents into balanced journals and applies them
// to account balances inside a caller-owned transaction. All generated lines
// are denominated in the tenant base currency at the document's frozen rate.
type postingEngine struct {
	accountRepo portsrepo.AccountRepositoryFacade
	journalRepo portsrepo.JournalRepositoryFacade
}

func newPostingEngine(accountRepo portsrepo.AccountRepositoryFacade, journalRepo portsrepo.JournalRepositoryFacade) *postingEngine {
	return &postingEngine{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
	}
}

// resolveSystemAccounts looks up the tenant's control accounts for the given
// codes. A missing control account is a chart-of-accounts setup problem.
func (e *postingEngine) resolveSystemAccounts(ctx context.Context, tenantID string, codes []domain.SystemAccountCode) (map[domain.SystemAccountCode]domain.Account, error) {
	accounts, err := e.accountRepo.FindAccountsBySystemCodes(ctx, tenantID, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve system accounts: %w", err)
	}
	for _, code := range codes {
		acc, found := accounts[code]
		if !found {
			return nil, fmt.Errorf("%w: tenant has no account with system code %s", apperrors.ErrValidation, code)
		}
		if !acc.IsActive || !acc.IsPostingAllowed {
			return nil, fmt.Errorf("%w: system account %s (%s) does not accept postings", apperrors.ErrValidation, acc.Code, code)
		}
	}
	return accounts, nil
}

// BuildInvoiceJournal generates the balanced journal for posting an invoice.
// Sales: debit the receivable control for the base-currency total, credit each
// line's revenue account for its base taxable amount, credit tax payable for
// the base tax total. Purchases mirror this on the opposite sides.
func (e *postingEngine) BuildInvoiceJournal(ctx context.Context, tenant domain.Tenant, invoice domain.Invoice, lines []domain.InvoiceLine, docPrecision, basePrecision int32, fiscalPeriodID string, userID string, now time.Time) (domain.Journal, []domain.JournalLine, error) {
	codes := []domain.SystemAccountCode{invoice.ControlAccountCode(), invoice.OffsetAccountCode(), domain.SystemTaxPayable}
	systemAccounts, err := e.resolveSystemAccounts(ctx, tenant.TenantID, codes)
	if err != nil {
		return domain.Journal{}, nil, err
	}
	controlAccount := systemAccounts[invoice.ControlAccountCode()]
	defaultOffset := systemAccounts[invoice.OffsetAccountCode()]
	taxAccount := systemAccounts[domain.SystemTaxPayable]

	// Per-line conversion keeps the journal consistent with the invoice header
	// base amount, which is itself the sum of converted line amounts.
	offsetByAccount := make(map[string]decimal.Decimal)
	taxTotal := decimal.Zero
	baseTotal := decimal.Zero
	for _, line := range lines {
		amounts := accounting.ComputeLineAmounts(line, docPrecision)
		baseTaxable := accounting.ConvertToBase(amounts.Taxable, invoice.ExchangeRate, basePrecision)
		baseTax := accounting.ConvertToBase(amounts.Tax, invoice.ExchangeRate, basePrecision)

		offsetAccountID := defaultOffset.AccountID
		if line.AccountID != nil {
			offsetAccountID = *line.AccountID
		}
		offsetByAccount[offsetAccountID] = offsetByAccount[offsetAccountID].Add(baseTaxable)
		taxTotal = taxTotal.Add(baseTax)
		baseTotal = baseTotal.Add(baseTaxable).Add(baseTax)
	}

	journalID := uuid.NewString()
	sourceID := invoice.InvoiceID
	journal := domain.Journal{
		JournalID:       journalID,
		TenantID:        tenant.TenantID,
		SourceType:      domain.SourceInvoice,
		SourceID:        &sourceID,
		TransactionDate: invoice.InvoiceDate,
		Description:     fmt.Sprintf("Posting of %s invoice %s", invoice.InvoiceType, invoice.InvoiceID),
		CurrencyCode:    tenant.BaseCurrencyCode,
		Status:          domain.StatusPosted,
		FiscalPeriodID:  fiscalPeriodID,
		Amount:          baseTotal,
		AuditFields:     newAuditFields(userID, now),
	}

	journalLines := make([]domain.JournalLine, 0, len(offsetByAccount)+2)
	controlLine := domain.JournalLine{
		LineID:      uuid.NewString(),
		JournalID:   journalID,
		AccountID:   controlAccount.AccountID,
		Description: journal.Description,
		AuditFields: journal.AuditFields,
	}
	if invoice.InvoiceType == domain.SalesInvoice {
		controlLine.Debit = baseTotal
	} else {
		controlLine.Credit = baseTotal
	}
	journalLines = append(journalLines, controlLine)

	// Deterministic line order for stable persistence and tests.
	offsetAccountIDs := make([]string, 0, len(offsetByAccount))
	for accountID := range offsetByAccount {
		offsetAccountIDs = append(offsetAccountIDs, accountID)
	}
	sort.Strings(offsetAccountIDs)
	for _, accountID := range offsetAccountIDs {
		line := domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountID:   accountID,
			Description: journal.Description,
			AuditFields: journal.AuditFields,
		}
		if invoice.InvoiceType == domain.SalesInvoice {
			line.Credit = offsetByAccount[accountID]
		} else {
			line.Debit = offsetByAccount[accountID]
		}
		journalLines = append(journalLines, line)
	}

	if taxTotal.IsPositive() {
		taxLine := domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountID:   taxAccount.AccountID,
			Description: journal.Description,
			AuditFields: journal.AuditFields,
		}
		if invoice.InvoiceType == domain.SalesInvoice {
			taxLine.Credit = taxTotal
		} else {
			taxLine.Debit = taxTotal
		}
		journalLines = append(journalLines, taxLine)
	}

	if err := accounting.ValidateLinesBalance(journalLines, basePrecision); err != nil {
		return domain.Journal{}, nil, fmt.Errorf("%w: invoice %s: %v", apperrors.ErrPostingImbalance, invoice.InvoiceID, err)
	}
	return journal, journalLines, nil
}

// BuildPaymentJournal generates the balanced journal for posting a payment.
// Receipts debit cash and credit the receivable control; outgoing payments
// debit the payable control and credit cash.
func (e *postingEngine) BuildPaymentJournal(ctx context.Context, tenant domain.Tenant, payment domain.Payment, basePrecision int32, fiscalPeriodID string, userID string, now time.Time) (domain.Journal, []domain.JournalLine, error) {
	codes := []domain.SystemAccountCode{domain.SystemCash, payment.ControlAccountCode()}
	systemAccounts, err := e.resolveSystemAccounts(ctx, tenant.TenantID, codes)
	if err != nil {
		return domain.Journal{}, nil, err
	}
	cashAccount := systemAccounts[domain.SystemCash]
	controlAccount := systemAccounts[payment.ControlAccountCode()]

	baseAmount := accounting.ConvertToBase(payment.Amount, payment.ExchangeRate, basePrecision)

	journalID := uuid.NewString()
	sourceID := payment.PaymentID
	journal := domain.Journal{
		JournalID:       journalID,
		TenantID:        tenant.TenantID,
		SourceType:      domain.SourcePayment,
		SourceID:        &sourceID,
		TransactionDate: payment.PaymentDate,
		Description:     fmt.Sprintf("Posting of %s payment %s", payment.PaymentType, payment.PaymentID),
		CurrencyCode:    tenant.BaseCurrencyCode,
		Status:          domain.StatusPosted,
		FiscalPeriodID:  fiscalPeriodID,
		Amount:          baseAmount,
		AuditFields:     newAuditFields(userID, now),
	}

	cashLine := domain.JournalLine{
		LineID:      uuid.NewString(),
		JournalID:   journalID,
		AccountID:   cashAccount.AccountID,
		Description: journal.Description,
		AuditFields: journal.AuditFields,
	}
	controlLine := domain.JournalLine{
		LineID:      uuid.NewString(),
		JournalID:   journalID,
		AccountID:   controlAccount.AccountID,
		Description: journal.Description,
		AuditFields: journal.AuditFields,
	}
	if payment.PaymentType == domain.PaymentReceipt {
		cashLine.Debit = baseAmount
		controlLine.Credit = baseAmount
	} else {
		controlLine.Debit = baseAmount
		cashLine.Credit = baseAmount
	}
	journalLines := []domain.JournalLine{cashLine, controlLine}

	if err := accounting.ValidateLinesBalance(journalLines, basePrecision); err != nil {
		return domain.Journal{}, nil, fmt.Errorf("%w: payment %s: %v", apperrors.ErrPostingImbalance, payment.PaymentID, err)
	}
	return journal, journalLines, nil
}

// BuildReversingJournal mirrors a posted journal with debit and credit sides
// swapped, linked back to the original.
func (e *postingEngine) BuildReversingJournal(original domain.Journal, originalLines []domain.JournalLine, fiscalPeriodID string, transactionDate time.Time, userID string, now time.Time) (domain.Journal, []domain.JournalLine) {
	journalID := uuid.NewString()
	originalID := original.JournalID
	journal := domain.Journal{
		JournalID:         journalID,
		TenantID:          original.TenantID,
		SourceType:        original.SourceType,
		SourceID:          original.SourceID,
		TransactionDate:   transactionDate,
		Description:       fmt.Sprintf("Reversal of journal %s", original.JournalID),
		CurrencyCode:      original.CurrencyCode,
		Status:            domain.StatusPosted,
		FiscalPeriodID:    fiscalPeriodID,
		Amount:            original.Amount,
		OriginalJournalID: &originalID,
		AuditFields:       newAuditFields(userID, now),
	}

	journalLines := make([]domain.JournalLine, len(originalLines))
	for i, line := range originalLines {
		journalLines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			JournalID:    journalID,
			AccountID:    line.AccountID,
			Debit:        line.Credit,
			Credit:       line.Debit,
			CostCenterID: line.CostCenterID,
			Description:  journal.Description,
			AuditFields:  journal.AuditFields,
		}
	}
	return journal, journalLines
}

// ApplyJournalInTx persists the journal and applies its net balance changes to
// the affected accounts.
func (e *postingEngine) ApplyJournalInTx(ctx context.Context, tx pgx.Tx, tenantID string, journal domain.Journal, lines []domain.JournalLine, userID string, now time.Time) error {
	if err := e.journalRepo.SaveJournalInTx(ctx, tx, journal, lines); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}
	return e.ApplyBalancesInTx(ctx, tx, tenantID, lines, userID, now)
}

// ApplyBalancesInTx applies the net balance changes of a set of journal lines
// to their accounts. Accounts are locked FOR UPDATE before the changes are
// computed so concurrent postings serialize on the account rows.
func (e *postingEngine) ApplyBalancesInTx(ctx context.Context, tx pgx.Tx, tenantID string, lines []domain.JournalLine, userID string, now time.Time) error {
	accountIDs := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			accountIDs = append(accountIDs, line.AccountID)
		}
	}
	sort.Strings(accountIDs) // consistent lock order avoids deadlocks

	accounts, err := e.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, tenantID, accountIDs)
	if err != nil {
		return fmt.Errorf("failed to lock accounts for posting: %w", err)
	}

	balanceChanges := make(map[string]decimal.Decimal, len(accountIDs))
	for _, line := range lines {
		account, found := accounts[line.AccountID]
		if !found {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, line.AccountID)
		}
		if !account.IsActive {
			return fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, account.Code)
		}
		if !account.IsPostingAllowed {
			return fmt.Errorf("%w: account %s does not accept postings", apperrors.ErrValidation, account.Code)
		}
		signed, err := accounting.SignedAmount(line, account.BalanceType)
		if err != nil {
			return fmt.Errorf("failed to sign journal line %s: %w", line.LineID, err)
		}
		balanceChanges[line.AccountID] = balanceChanges[line.AccountID].Add(signed)
	}

	if err := e.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, userID, now); err != nil {
		return fmt.Errorf("failed to update account balances: %w", err)
	}
	return nil
}

// newAuditFields stamps creation audit fields for a new entity.
func newAuditFields(userID string, now time.Time) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
}
