package repositories

// RepositoryProvider bundles every repository implementation the service
// layer needs, wired once at startup.
type RepositoryProvider struct {
	AccountRepo      AccountRepositoryWithTx
	InvoiceRepo      InvoiceRepositoryWithTx
	PaymentRepo      PaymentRepositoryWithTx
	JournalRepo      JournalRepositoryWithTx
	FiscalPeriodRepo FiscalPeriodRepository
	AuditLogRepo     AuditLogRepository
	CurrencyRepo     CurrencyRepository
	ExchangeRateRepo ExchangeRateRepository
	ReportingRepo    ReportingRepository
	TenantRepo       TenantRepository
	UserRepo         UserRepository
}
