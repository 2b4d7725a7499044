package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// BalanceType is the normal (increasing) side of an account.
type BalanceType string

const (
	DebitBalance  BalanceType = "DEBIT"
	CreditBalance BalanceType = "CREDIT"
)

// SystemAccountCode identifies the control accounts the posting engine resolves
// per tenant. A tenant's chart of accounts must provide one account for each
// code it posts against.
type SystemAccountCode string

const (
	SystemAccountsReceivable SystemAccountCode = "ACCOUNTS_RECEIVABLE"
	SystemAccountsPayable    SystemAccountCode = "ACCOUNTS_PAYABLE"
	SystemSalesRevenue       SystemAccountCode = "SALES_REVENUE"
	SystemPurchaseExpense    SystemAccountCode = "PURCHASE_EXPENSE"
	SystemTaxPayable         SystemAccountCode = "TAX_PAYABLE"
	SystemCash               SystemAccountCode = "CASH"
)

// Account represents a ledger account within a tenant's chart of accounts.
// AccountType and BalanceType are immutable once any journal line references
// the account.
type Account struct {
	AccountID        string             `json:"accountID"` // Primary Key (e.g., UUID)
	TenantID         string             `json:"tenantID"`  // FK -> tenants.tenant_id (NON-NULL)
	Code             string             `json:"code"`      // User-facing account code, unique per tenant
	Name             string             `json:"name"`
	AccountType      AccountType        `json:"accountType"`
	BalanceType      BalanceType        `json:"balanceType"` // Normal increasing side
	CurrencyCode     string             `json:"currencyCode"`
	ParentAccountID  *string            `json:"parentAccountID,omitempty"` // Self-referencing, nullable
	SystemCode       *SystemAccountCode `json:"systemCode,omitempty"`      // Control-account role, nullable
	Description      string             `json:"description"`
	IsPostingAllowed bool               `json:"isPostingAllowed"` // False for group/header accounts
	IsActive         bool               `json:"isActive"`
	Balance          decimal.Decimal    `json:"balance"` // Persisted running balance
	AuditFields
}

// NormalBalanceType returns the conventional normal side for an account type.
func NormalBalanceType(t AccountType) BalanceType {
	switch t {
	case Asset, Expense:
		return DebitBalance
	default:
		return CreditBalance
	}
}
