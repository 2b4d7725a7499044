package services

import (
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/platform/config"
)

// NewServiceContainer creates the service container with properly wired
// dependencies. The audit service is wired first so every lifecycle service
// can record to the trail; the posting engine is shared by the invoice,
// payment and journal services.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Audit = NewAuditService(repos.AuditLogRepo)
	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.Tenant = NewTenantService(repos.TenantRepo)
	container.Auth = NewAuthService(repos.TenantRepo, repos.UserRepo, container.Currency, AuthConfig{
		JWTSecret:   cfg.JWTSecret,
		TokenExpiry: cfg.JWTExpiryDuration,
		Issuer:      cfg.JWTIssuer,
	})
	container.ExchangeRate = NewExchangeRateService(repos.ExchangeRateRepo, container.Currency, container.Audit)
	container.Account = NewAccountService(repos.AccountRepo, container.Currency, container.Audit, cfg.AuditExcludedFields)
	container.FiscalPeriod = NewFiscalPeriodService(repos.FiscalPeriodRepo, container.Audit)

	engine := newPostingEngine(repos.AccountRepo, repos.JournalRepo)
	container.Invoice = NewInvoiceService(
		repos.InvoiceRepo,
		repos.FiscalPeriodRepo,
		container.Tenant,
		container.Currency,
		container.ExchangeRate,
		container.Audit,
		cfg.AuditExcludedFields,
		engine,
	)
	container.Payment = NewPaymentService(
		repos.PaymentRepo,
		repos.InvoiceRepo,
		repos.FiscalPeriodRepo,
		container.Tenant,
		container.Currency,
		container.ExchangeRate,
		container.Audit,
		engine,
	)
	container.Journal = NewJournalService(
		repos.JournalRepo,
		repos.AccountRepo,
		repos.FiscalPeriodRepo,
		container.Tenant,
		container.Currency,
		container.Audit,
		engine,
	)
	container.Reporting = NewReportingService(repos.ReportingRepo, container.Tenant, container.Currency)

	return container
}
