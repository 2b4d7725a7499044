package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/middleware"
	"github.com/finbooks/finbooks_backend/internal/utils/accounting"
)

// reportingService produces read-side ledger reports.
type reportingService struct {
	reportingRepo portsrepo.ReportingRepository
	tenantSvc     portssvc.TenantSvcFacade
	currencySvc   portssvc.CurrencySvcFacade
}

// NewReportingService creates a new ReportingService.
func NewReportingService(reportingRepo portsrepo.ReportingRepository, tenantSvc portssvc.TenantSvcFacade, currencySvc portssvc.CurrencySvcFacade) portssvc.ReportingSvcFacade {
	return &reportingService{
		reportingRepo: reportingRepo,
		tenantSvc:     tenantSvc,
		currencySvc:   currencySvc,
	}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// GetTrialBalance sums posted journal lines per account up to asOf. An
// unbalanced result means the posting engine wrote an imbalanced journal; it
// is reported, not hidden, as a system health signal.
func (s *reportingService) GetTrialBalance(ctx context.Context, tenantID string, asOf time.Time) (*domain.TrialBalanceReport, error) {
	tenant, err := s.tenantSvc.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	baseCurrency, err := s.currencySvc.GetCurrencyByCode(ctx, tenant.BaseCurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base currency: %w", err)
	}

	rows, err := s.reportingRepo.GetTrialBalanceData(ctx, tenantID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to compute trial balance: %w", err)
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, row := range rows {
		totalDebit = totalDebit.Add(row.Debit)
		totalCredit = totalCredit.Add(row.Credit)
	}

	report := &domain.TrialBalanceReport{
		AsOf:        asOf,
		Entries:     rows,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		IsBalanced:  accounting.MinorUnits(totalDebit, baseCurrency.Precision) == accounting.MinorUnits(totalCredit, baseCurrency.Precision),
	}
	if !report.IsBalanced {
		middleware.GetLoggerFromCtx(ctx).Error("Trial balance is out of balance",
			slog.String("tenant_id", tenantID),
			slog.String("total_debit", totalDebit.String()),
			slog.String("total_credit", totalCredit.String()),
		)
	}
	return report, nil
}

// GetCashFlowSummary reports the movement of the cash control account between
// two dates.
func (s *reportingService) GetCashFlowSummary(ctx context.Context, tenantID string, from time.Time, to time.Time) (*domain.CashFlowSummary, error) {
	opening, err := s.reportingRepo.GetCashBalance(ctx, tenantID, from.Add(-time.Nanosecond))
	if err != nil {
		return nil, fmt.Errorf("failed to compute opening cash balance: %w", err)
	}
	closing, err := s.reportingRepo.GetCashBalance(ctx, tenantID, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute closing cash balance: %w", err)
	}
	return &domain.CashFlowSummary{
		From:            from,
		To:              to,
		OpeningCash:     opening,
		ClosingCash:     closing,
		NetChangeInCash: closing.Sub(opening),
	}, nil
}
