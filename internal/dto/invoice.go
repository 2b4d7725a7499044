package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// CreateInvoiceLineRequest is one line of a draft invoice.
type CreateInvoiceLineRequest struct {
	Description     string          `json:"description" binding:"required,max=255"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unitPrice" binding:"required"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	AccountID       *string         `json:"accountID,omitempty" binding:"omitempty,uuid"`
}

// CreateInvoiceRequest creates a draft invoice.
type CreateInvoiceRequest struct {
	InvoiceType  domain.InvoiceType         `json:"invoiceType" binding:"required,oneof=SALES PURCHASE"`
	PartyType    domain.PartyType           `json:"partyType" binding:"required,oneof=CUSTOMER VENDOR"`
	PartyID      string                     `json:"partyID" binding:"required,max=100"`
	CurrencyCode string                     `json:"currencyCode" binding:"required,len=3"`
	InvoiceDate  time.Time                  `json:"invoiceDate" binding:"required"`
	Lines        []CreateInvoiceLineRequest `json:"lines" binding:"omitempty,dive"`
}

// UpdateInvoiceRequest replaces attributes of a draft invoice. When
// Lines is non-nil the full line set is replaced.
type UpdateInvoiceRequest struct {
	PartyID      *string                    `json:"partyID,omitempty" binding:"omitempty,max=100"`
	CurrencyCode *string                    `json:"currencyCode,omitempty" binding:"omitempty,len=3"`
	InvoiceDate  *time.Time                 `json:"invoiceDate,omitempty"`
	Lines        []CreateInvoiceLineRequest `json:"lines,omitempty" binding:"omitempty,dive"`
}

// ListInvoicesParams pages through the tenant's invoices.
type ListInvoicesParams struct {
	InvoiceType *domain.InvoiceType    `form:"invoiceType" binding:"omitempty,oneof=SALES PURCHASE"`
	Status      *domain.DocumentStatus `form:"status"`
	PartyID     *string                `form:"partyID"`
	Limit       int                    `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken   *string                `form:"nextToken"`
}

// ListInvoicesResponse is one page of invoices.
type ListInvoicesResponse struct {
	Invoices  []domain.Invoice `json:"invoices"`
	NextToken *string          `json:"nextToken,omitempty"`
}
