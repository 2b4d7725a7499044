package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReportingRepository defines read-side aggregation over posted journal lines.
type ReportingRepository interface {
	// GetTrialBalanceData sums posted journal lines with a transaction date on
	// or before asOf, grouped by account.
	GetTrialBalanceData(ctx context.Context, tenantID string, asOf time.Time) ([]domain.TrialBalanceRow, error)

	// GetCashBalance returns the net posted balance of the tenant's cash
	// control account as of the given date.
	GetCashBalance(ctx context.Context, tenantID string, asOf time.Time) (decimal.Decimal, error)
}
