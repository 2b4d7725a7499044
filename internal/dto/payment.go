package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// AllocationRequest applies part of a payment against an invoice.
type AllocationRequest struct {
	InvoiceID string          `json:"invoiceID" binding:"required,uuid"`
	Amount    decimal.Decimal `json:"amount" binding:"required,gt=0"`
}

// CreatePaymentRequest creates a draft payment. Allocations are
// optional at creation time and may be added while the payment is
// not yet posted.
type CreatePaymentRequest struct {
	PaymentType  domain.PaymentType  `json:"paymentType" binding:"required,oneof=RECEIPT PAYMENT"`
	PartyType    domain.PartyType    `json:"partyType" binding:"required,oneof=CUSTOMER VENDOR"`
	PartyID      string              `json:"partyID" binding:"required,max=100"`
	Amount       decimal.Decimal     `json:"amount" binding:"required,gt=0"`
	CurrencyCode string              `json:"currencyCode" binding:"required,len=3"`
	PaymentDate  time.Time           `json:"paymentDate" binding:"required"`
	Allocations  []AllocationRequest `json:"allocations,omitempty" binding:"omitempty,dive"`
}

// ListPaymentsParams pages through the tenant's payments.
type ListPaymentsParams struct {
	PaymentType *domain.PaymentType    `form:"paymentType" binding:"omitempty,oneof=RECEIPT PAYMENT"`
	Status      *domain.DocumentStatus `form:"status"`
	PartyID     *string                `form:"partyID"`
	Limit       int                    `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken   *string                `form:"nextToken"`
}

// ListPaymentsResponse is one page of payments.
type ListPaymentsResponse struct {
	Payments  []domain.Payment `json:"payments"`
	NextToken *string          `json:"nextToken,omitempty"`
}
