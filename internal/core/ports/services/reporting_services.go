package services

import (
	"context"
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// ReportingSvcFacade produces ledger reports.
type ReportingSvcFacade interface {
	GetTrialBalance(ctx context.Context, tenantID string, asOf time.Time) (*domain.TrialBalanceReport, error)
	GetCashFlowSummary(ctx context.Context, tenantID string, from time.Time, to time.Time) (*domain.CashFlowSummary, error)
}
