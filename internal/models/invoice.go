package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice maps to the invoices table.
type Invoice struct {
	InvoiceID      string          `json:"invoiceID"`
	TenantID       string          `json:"tenantID"`
	InvoiceType    string          `json:"invoiceType"`
	PartyType      string          `json:"partyType"`
	PartyID        string          `json:"partyID"`
	CurrencyCode   string          `json:"currencyCode"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"`
	InvoiceDate    time.Time       `json:"invoiceDate"`
	Status         string          `json:"status"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	BaseAmount     decimal.Decimal `json:"baseCurrencyAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	BalanceAmount  decimal.Decimal `json:"balanceAmount"`
	FiscalPeriodID string          `json:"fiscalPeriodID"`
	JournalID      *string         `json:"journalID"`
	AuditFields
}

// InvoiceLine maps to the invoice_lines table.
type InvoiceLine struct {
	LineID          string          `json:"lineID"`
	InvoiceID       string          `json:"invoiceID"`
	LineNumber      int             `json:"lineNumber"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	AccountID       *string         `json:"accountID"`
	LineTotal       decimal.Decimal `json:"lineTotal"`
}
