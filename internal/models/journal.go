package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal maps to the journals table.
type Journal struct {
	JournalID          string          `json:"journalID"`
	TenantID           string          `json:"tenantID"`
	SourceType         string          `json:"sourceType"`
	SourceID           *string         `json:"sourceID"`
	TransactionDate    time.Time       `json:"transactionDate"`
	Description        string          `json:"description"`
	CurrencyCode       string          `json:"currencyCode"`
	Status             string          `json:"status"`
	FiscalPeriodID     string          `json:"fiscalPeriodID"`
	Amount             decimal.Decimal `json:"amount"`
	OriginalJournalID  *string         `json:"originalJournalID"`
	ReversingJournalID *string         `json:"reversingJournalID"`
	AuditFields
}

// JournalLine maps to the journal_lines table.
type JournalLine struct {
	LineID       string          `json:"lineID"`
	JournalID    string          `json:"journalID"`
	AccountID    string          `json:"accountID"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CostCenterID *string         `json:"costCenterID"`
	Description  string          `json:"description"`
	AuditFields
}
