package mapping

import (
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/models"
)

// ToModelInvoice converts a domain Invoice to a model Invoice (header only;
// lines are persisted separately).
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:      d.InvoiceID,
		TenantID:       d.TenantID,
		InvoiceType:    string(d.InvoiceType),
		PartyType:      string(d.PartyType),
		PartyID:        d.PartyID,
		CurrencyCode:   d.CurrencyCode,
		ExchangeRate:   d.ExchangeRate,
		InvoiceDate:    d.InvoiceDate,
		Status:         string(d.Status),
		TotalAmount:    d.TotalAmount,
		BaseAmount:     d.BaseAmount,
		PaidAmount:     d.PaidAmount,
		BalanceAmount:  d.BalanceAmount,
		FiscalPeriodID: d.FiscalPeriodID,
		JournalID:      d.JournalID,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainInvoice converts a model Invoice to a domain Invoice.
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		InvoiceID:      m.InvoiceID,
		TenantID:       m.TenantID,
		InvoiceType:    domain.InvoiceType(m.InvoiceType),
		PartyType:      domain.PartyType(m.PartyType),
		PartyID:        m.PartyID,
		CurrencyCode:   m.CurrencyCode,
		ExchangeRate:   m.ExchangeRate,
		InvoiceDate:    m.InvoiceDate,
		Status:         domain.DocumentStatus(m.Status),
		TotalAmount:    m.TotalAmount,
		BaseAmount:     m.BaseAmount,
		PaidAmount:     m.PaidAmount,
		BalanceAmount:  m.BalanceAmount,
		FiscalPeriodID: m.FiscalPeriodID,
		JournalID:      m.JournalID,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelInvoiceLine converts a domain InvoiceLine to a model InvoiceLine.
func ToModelInvoiceLine(d domain.InvoiceLine) models.InvoiceLine {
	return models.InvoiceLine{
		LineID:          d.LineID,
		InvoiceID:       d.InvoiceID,
		LineNumber:      d.LineNumber,
		Description:     d.Description,
		Quantity:        d.Quantity,
		UnitPrice:       d.UnitPrice,
		TaxRate:         d.TaxRate,
		DiscountPercent: d.DiscountPercent,
		AccountID:       d.AccountID,
		LineTotal:       d.LineTotal,
	}
}

// ToDomainInvoiceLine converts a model InvoiceLine to a domain InvoiceLine.
func ToDomainInvoiceLine(m models.InvoiceLine) domain.InvoiceLine {
	return domain.InvoiceLine{
		LineID:          m.LineID,
		InvoiceID:       m.InvoiceID,
		LineNumber:      m.LineNumber,
		Description:     m.Description,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		TaxRate:         m.TaxRate,
		DiscountPercent: m.DiscountPercent,
		AccountID:       m.AccountID,
		LineTotal:       m.LineTotal,
	}
}

// ToDomainInvoiceLineSlice converts a slice of model lines to domain lines.
func ToDomainInvoiceLineSlice(ms []models.InvoiceLine) []domain.InvoiceLine {
	ds := make([]domain.InvoiceLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainInvoiceLine(m)
	}
	return ds
}
