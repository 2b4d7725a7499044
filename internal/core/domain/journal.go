package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalSourceType identifies what produced a journal.
type JournalSourceType string

const (
	SourceInvoice JournalSourceType = "INVOICE"
	SourcePayment JournalSourceType = "PAYMENT"
	SourceManual  JournalSourceType = "MANUAL"
)

// Journal is a balanced set of ledger lines. Journals derived from invoices and
// payments are created directly in POSTED status by the posting engine and are
// always denominated in the tenant base currency; manual journals walk the
// document lifecycle like any other document.
type Journal struct {
	JournalID         string            `json:"journalID"` // Primary Key (e.g., UUID)
	TenantID          string            `json:"tenantID"`
	SourceType        JournalSourceType `json:"sourceType"`
	SourceID          *string           `json:"sourceID,omitempty"` // Invoice/payment back-reference
	TransactionDate   time.Time         `json:"transactionDate"`
	Description       string            `json:"description"`
	CurrencyCode      string            `json:"currencyCode"` // Tenant base currency for derived journals
	Status            DocumentStatus    `json:"status"`
	FiscalPeriodID    string            `json:"fiscalPeriodID"`
	Amount            decimal.Decimal   `json:"amount"` // Total debit side, the journal's economic value
	OriginalJournalID *string           `json:"originalJournalID,omitempty"`  // Set on reversing journals
	ReversingJournalID *string          `json:"reversingJournalID,omitempty"` // Set on reversed journals
	Lines             []JournalLine     `json:"lines,omitempty"`
	AuditFields
}

// JournalLine is a single ledger line. Exactly one of Debit/Credit is non-zero.
type JournalLine struct {
	LineID       string          `json:"lineID"`
	JournalID    string          `json:"journalID"`
	AccountID    string          `json:"accountID"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CostCenterID *string         `json:"costCenterID,omitempty"`
	Description  string          `json:"description"`
	AuditFields
}

// IsDebit reports whether the line carries its amount on the debit side.
func (l JournalLine) IsDebit() bool {
	return l.Debit.IsPositive()
}

// Amount returns the line's single non-zero side.
func (l JournalLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}
