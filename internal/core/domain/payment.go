package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType distinguishes money received from money paid out.
type PaymentType string

const (
	PaymentReceipt  PaymentType = "RECEIPT"
	PaymentOutgoing PaymentType = "PAYMENT"
)

// Payment records money moving against one or more invoices.
// Invariant at post time: Amount == sum of allocation amounts.
type Payment struct {
	PaymentID    string              `json:"paymentID"` // Primary Key (e.g., UUID)
	TenantID     string              `json:"tenantID"`
	PaymentType  PaymentType         `json:"paymentType"`
	PartyType    PartyType           `json:"partyType"`
	PartyID      string              `json:"partyID"`
	Amount       decimal.Decimal     `json:"amount"`
	CurrencyCode string              `json:"currencyCode"`
	ExchangeRate decimal.Decimal     `json:"exchangeRate"` // Captured at creation, frozen thereafter
	PaymentDate  time.Time           `json:"paymentDate"`
	Status       DocumentStatus      `json:"status"`
	Allocations  []PaymentAllocation `json:"allocations,omitempty"`
	JournalID    *string             `json:"journalID,omitempty"` // Set on posting
	AuditFields
}

// PaymentAllocation assigns part of a payment's amount to one invoice's
// outstanding balance.
type PaymentAllocation struct {
	AllocationID string          `json:"allocationID"`
	PaymentID    string          `json:"paymentID"`
	InvoiceID    string          `json:"invoiceID"`
	Amount       decimal.Decimal `json:"amount"` // > 0, <= invoice balance at allocation time
	AuditFields
}

// AllocatedTotal sums the payment's allocation amounts.
func (p Payment) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// ControlAccountCode returns the receivable/payable control account code the
// payment settles against.
func (p Payment) ControlAccountCode() SystemAccountCode {
	if p.PaymentType == PaymentReceipt {
		return SystemAccountsReceivable
	}
	return SystemAccountsPayable
}
