package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiscalPeriod maps to the fiscal_periods table.
type FiscalPeriod struct {
	PeriodID  string    `json:"periodID"`
	TenantID  string    `json:"tenantID"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsClosed  bool      `json:"isClosed"`
	AuditFields
}

// Currency maps to the currencies table.
type Currency struct {
	CurrencyCode string `json:"currencyCode"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Precision    int32  `json:"precision"`
	AuditFields
}

// ExchangeRate maps to the exchange_rates table.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	TenantID         string          `json:"tenantID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}

// Tenant maps to the tenants table.
type Tenant struct {
	TenantID          string `json:"tenantID"`
	Name              string `json:"name"`
	BaseCurrencyCode  string `json:"baseCurrencyCode"`
	AllowSelfApproval bool   `json:"allowSelfApproval"`
	IsActive          bool   `json:"isActive"`
	AuditFields
}

// User maps to the users table.
type User struct {
	UserID       string `json:"userID"`
	TenantID     string `json:"tenantID"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}
