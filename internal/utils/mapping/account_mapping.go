package mapping

import (
	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/finbooks/finbooks_backend/internal/models"
)

// ToModelAccount converts a domain Account to a model Account.
func ToModelAccount(d domain.Account) models.Account {
	var systemCode *string
	if d.SystemCode != nil {
		s := string(*d.SystemCode)
		systemCode = &s
	}
	return models.Account{
		AccountID:        d.AccountID,
		TenantID:         d.TenantID,
		Code:             d.Code,
		Name:             d.Name,
		AccountType:      models.AccountType(d.AccountType),
		BalanceType:      models.BalanceType(d.BalanceType),
		CurrencyCode:     d.CurrencyCode,
		ParentAccountID:  d.ParentAccountID,
		SystemCode:       systemCode,
		Description:      d.Description,
		IsPostingAllowed: d.IsPostingAllowed,
		IsActive:         d.IsActive,
		Balance:          d.Balance,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account.
func ToDomainAccount(m models.Account) domain.Account {
	var systemCode *domain.SystemAccountCode
	if m.SystemCode != nil {
		s := domain.SystemAccountCode(*m.SystemCode)
		systemCode = &s
	}
	return domain.Account{
		AccountID:        m.AccountID,
		TenantID:         m.TenantID,
		Code:             m.Code,
		Name:             m.Name,
		AccountType:      domain.AccountType(m.AccountType),
		BalanceType:      domain.BalanceType(m.BalanceType),
		CurrencyCode:     m.CurrencyCode,
		ParentAccountID:  m.ParentAccountID,
		SystemCode:       systemCode,
		Description:      m.Description,
		IsPostingAllowed: m.IsPostingAllowed,
		IsActive:         m.IsActive,
		Balance:          m.Balance,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
