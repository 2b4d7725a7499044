package dto

import "github.com/finbooks/finbooks_backend/internal/core/domain"

// CreateAccountRequest creates a ledger account for the tenant.
// BalanceType may be omitted, in which case the normal balance side
// for the account type is used.
type CreateAccountRequest struct {
	Code             string                    `json:"code" binding:"required,max=50"`
	Name             string                    `json:"name" binding:"required,max=255"`
	AccountType      domain.AccountType        `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	BalanceType      *domain.BalanceType       `json:"balanceType,omitempty" binding:"omitempty,oneof=DEBIT CREDIT"`
	CurrencyCode     string                    `json:"currencyCode" binding:"required,len=3"`
	ParentAccountID  *string                   `json:"parentAccountID,omitempty" binding:"omitempty,uuid"`
	SystemCode       *domain.SystemAccountCode `json:"systemCode,omitempty"`
	Description      string                    `json:"description,omitempty" binding:"max=1000"`
	IsPostingAllowed bool                      `json:"isPostingAllowed"`
}

// UpdateAccountRequest updates account attributes. Code and currency
// are fixed after creation; AccountType and BalanceType may only change
// while no journal line references the account.
type UpdateAccountRequest struct {
	Name             *string             `json:"name,omitempty" binding:"omitempty,max=255"`
	Description      *string             `json:"description,omitempty" binding:"omitempty,max=1000"`
	AccountType      *domain.AccountType `json:"accountType,omitempty" binding:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	BalanceType      *domain.BalanceType `json:"balanceType,omitempty" binding:"omitempty,oneof=DEBIT CREDIT"`
	IsPostingAllowed *bool               `json:"isPostingAllowed,omitempty"`
}

// ListAccountsParams filters the tenant's chart of accounts.
type ListAccountsParams struct {
	AccountType *domain.AccountType `form:"accountType" binding:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ActiveOnly  bool                `form:"activeOnly"`
}
