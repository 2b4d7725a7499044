package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// CreateJournalLineRequest is one leg of a manual journal. Exactly
// one of Debit and Credit must be positive.
type CreateJournalLineRequest struct {
	AccountID    string          `json:"accountID" binding:"required,uuid"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CostCenterID *string         `json:"costCenterID,omitempty"`
	Description  string          `json:"description,omitempty" binding:"max=255"`
}

// CreateJournalRequest creates a draft manual journal.
type CreateJournalRequest struct {
	TransactionDate time.Time                  `json:"transactionDate" binding:"required"`
	Description     string                     `json:"description,omitempty" binding:"max=255"`
	CurrencyCode    string                     `json:"currencyCode" binding:"required,len=3"`
	Lines           []CreateJournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// ListJournalsParams pages through the tenant's journals.
type ListJournalsParams struct {
	SourceType *domain.JournalSourceType `form:"sourceType" binding:"omitempty,oneof=INVOICE PAYMENT MANUAL"`
	Status     *domain.DocumentStatus    `form:"status"`
	Limit      int                       `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken  *string                   `form:"nextToken"`
}

// ListJournalsResponse is one page of journals.
type ListJournalsResponse struct {
	Journals  []domain.Journal `json:"journals"`
	NextToken *string          `json:"nextToken,omitempty"`
}

// ListAccountLedgerParams pages through posted lines of one account.
type ListAccountLedgerParams struct {
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListAccountLedgerResponse is one page of journal lines for an account.
type ListAccountLedgerResponse struct {
	Lines     []domain.JournalLine `json:"lines"`
	NextToken *string              `json:"nextToken,omitempty"`
}
