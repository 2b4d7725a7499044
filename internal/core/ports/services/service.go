package services

// ServiceContainer holds every service facade the handlers depend on.
type ServiceContainer struct {
	Auth         AuthSvcFacade
	Tenant       TenantSvcFacade
	Account      AccountSvcFacade
	Invoice      InvoiceSvcFacade
	Payment      PaymentSvcFacade
	Journal      JournalSvcFacade
	FiscalPeriod FiscalPeriodSvcFacade
	Currency     CurrencySvcFacade
	ExchangeRate ExchangeRateSvcFacade
	Audit        AuditSvcFacade
	Reporting    ReportingSvcFacade
}
