package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment maps to the payments table.
type Payment struct {
	PaymentID    string          `json:"paymentID"`
	TenantID     string          `json:"tenantID"`
	PaymentType  string          `json:"paymentType"`
	PartyType    string          `json:"partyType"`
	PartyID      string          `json:"partyID"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	PaymentDate  time.Time       `json:"paymentDate"`
	Status       string          `json:"status"`
	JournalID    *string         `json:"journalID"`
	AuditFields
}

// PaymentAllocation maps to the payment_allocations table.
type PaymentAllocation struct {
	AllocationID string          `json:"allocationID"`
	PaymentID    string          `json:"paymentID"`
	InvoiceID    string          `json:"invoiceID"`
	Amount       decimal.Decimal `json:"amount"`
	AuditFields
}
