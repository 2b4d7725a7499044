package mapping

import (
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment (header only).
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:    d.PaymentID,
		TenantID:     d.TenantID,
		PaymentType:  string(d.PaymentType),
		PartyType:    string(d.PartyType),
		PartyID:      d.PartyID,
		Amount:       d.Amount,
		CurrencyCode: d.CurrencyCode,
		ExchangeRate: d.ExchangeRate,
		PaymentDate:  d.PaymentDate,
		Status:       string(d.Status),
		JournalID:    d.JournalID,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment to a domain Payment.
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:    m.PaymentID,
		TenantID:     m.TenantID,
		PaymentType:  domain.PaymentType(m.PaymentType),
		PartyType:    domain.PartyType(m.PartyType),
		PartyID:      m.PartyID,
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		ExchangeRate: m.ExchangeRate,
		PaymentDate:  m.PaymentDate,
		Status:       domain.DocumentStatus(m.Status),
		JournalID:    m.JournalID,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelPaymentAllocation converts a domain allocation to its model.
func ToModelPaymentAllocation(d domain.PaymentAllocation) models.PaymentAllocation {
	return models.PaymentAllocation{
		AllocationID: d.AllocationID,
		PaymentID:    d.PaymentID,
		InvoiceID:    d.InvoiceID,
		Amount:       d.Amount,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPaymentAllocation converts a model allocation to its domain form.
func ToDomainPaymentAllocation(m models.PaymentAllocation) domain.PaymentAllocation {
	return domain.PaymentAllocation{
		AllocationID: m.AllocationID,
		PaymentID:    m.PaymentID,
		InvoiceID:    m.InvoiceID,
		Amount:       m.Amount,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentAllocationSlice converts model allocations to domain.
func ToDomainPaymentAllocationSlice(ms []models.PaymentAllocation) []domain.PaymentAllocation {
	ds := make([]domain.PaymentAllocation, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPaymentAllocation(m)
	}
	return ds
}
