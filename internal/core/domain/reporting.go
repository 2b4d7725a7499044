package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single account's debit/credit totals in a trial
// balance report.
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceReport sums all posted journal lines up to AsOf, grouped by
// account. An unbalanced report indicates a posting engine defect, surfaced as
// a system health signal rather than a user error.
type TrialBalanceReport struct {
	AsOf        time.Time         `json:"asOf"`
	Entries     []TrialBalanceRow `json:"entries"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	IsBalanced  bool              `json:"isBalanced"`
}

// CashFlowSummary reports cash movement between two dates. The canonical field
// for the period delta is NetChangeInCash.
type CashFlowSummary struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	OpeningCash     decimal.Decimal `json:"openingCash"`
	ClosingCash     decimal.Decimal `json:"closingCash"`
	NetChangeInCash decimal.Decimal `json:"netChangeInCash"`
}
