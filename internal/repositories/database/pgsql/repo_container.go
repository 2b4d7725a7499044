package pgsql

import (
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:      newPgxAccountRepository(dbPool),
		InvoiceRepo:      newPgxInvoiceRepository(dbPool),
		PaymentRepo:      newPgxPaymentRepository(dbPool),
		JournalRepo:      newPgxJournalRepository(dbPool),
		FiscalPeriodRepo: newPgxFiscalPeriodRepository(dbPool),
		AuditLogRepo:     newPgxAuditLogRepository(dbPool),
		CurrencyRepo:     newPgxCurrencyRepository(dbPool),
		ExchangeRateRepo: newPgxExchangeRateRepository(dbPool),
		ReportingRepo:    newPgxReportingRepository(dbPool),
		TenantRepo:       newPgxTenantRepository(dbPool),
		UserRepo:         newPgxUserRepository(dbPool),
	}
}
