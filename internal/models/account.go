package models

import "github.com/shopspring/decimal"

// AccountType mirrors domain.AccountType at the storage boundary.
type AccountType string

// BalanceType mirrors domain.BalanceType at the storage boundary.
type BalanceType string

// Account maps to the accounts table.
type Account struct {
	AccountID        string          `json:"accountID"`
	TenantID         string          `json:"tenantID"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	AccountType      AccountType     `json:"accountType"`
	BalanceType      BalanceType     `json:"balanceType"`
	CurrencyCode     string          `json:"currencyCode"`
	ParentAccountID  *string         `json:"parentAccountID"`
	SystemCode       *string         `json:"systemCode"`
	Description      string          `json:"description"`
	IsPostingAllowed bool            `json:"isPostingAllowed"`
	IsActive         bool            `json:"isActive"`
	Balance          decimal.Decimal `json:"balance"`
	AuditFields
}
