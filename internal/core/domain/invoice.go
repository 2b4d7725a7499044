package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes customer invoices from vendor bills.
type InvoiceType string

const (
	SalesInvoice    InvoiceType = "SALES"
	PurchaseInvoice InvoiceType = "PURCHASE"
)

// PartyType is the kind of counterparty a document is addressed to.
type PartyType string

const (
	PartyCustomer PartyType = "CUSTOMER"
	PartyVendor   PartyType = "VENDOR"
)

// Invoice is a sales or purchase document. It is mutable only while DRAFT and
// becomes immutable once POSTED; PAID/PARTIALLY_PAID are derived from
// BalanceAmount as payments are posted against it.
type Invoice struct {
	InvoiceID      string          `json:"invoiceID"` // Primary Key (e.g., UUID)
	TenantID       string          `json:"tenantID"`
	InvoiceType    InvoiceType     `json:"invoiceType"`
	PartyType      PartyType       `json:"partyType"`
	PartyID        string          `json:"partyID"`
	CurrencyCode   string          `json:"currencyCode"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"` // Captured at creation, frozen thereafter
	InvoiceDate    time.Time       `json:"invoiceDate"`  // Transaction date used for posting
	Status         DocumentStatus  `json:"status"`
	Lines          []InvoiceLine   `json:"lines,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`        // Document currency
	BaseAmount     decimal.Decimal `json:"baseCurrencyAmount"` // Tenant base currency
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	BalanceAmount  decimal.Decimal `json:"balanceAmount"` // TotalAmount - PaidAmount, never negative
	FiscalPeriodID string          `json:"fiscalPeriodID"`
	JournalID      *string         `json:"journalID,omitempty"` // Set on posting
	AuditFields
}

// InvoiceLine is a row in an invoice. LineNumber is 1-based and contiguous
// within the invoice.
type InvoiceLine struct {
	LineID          string          `json:"lineID"`
	InvoiceID       string          `json:"invoiceID"`
	LineNumber      int             `json:"lineNumber"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`  // > 0
	UnitPrice       decimal.Decimal `json:"unitPrice"` // >= 0
	TaxRate         decimal.Decimal `json:"taxRate"`   // Percent, >= 0
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	AccountID       *string         `json:"accountID,omitempty"` // Optional revenue/expense override
	LineTotal       decimal.Decimal `json:"lineTotal"`           // Computed
}

// ControlAccountCode returns the receivable/payable control account code for
// the invoice's party side.
func (inv Invoice) ControlAccountCode() SystemAccountCode {
	if inv.InvoiceType == SalesInvoice {
		return SystemAccountsReceivable
	}
	return SystemAccountsPayable
}

// OffsetAccountCode returns the default revenue/expense account code for lines
// without an explicit account override.
func (inv Invoice) OffsetAccountCode() SystemAccountCode {
	if inv.InvoiceType == SalesInvoice {
		return SystemSalesRevenue
	}
	return SystemPurchaseExpense
}
