package repositories

import (
	"context"
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// FiscalPeriodRepository defines operations for fiscal period data.
type FiscalPeriodRepository interface {
	// SaveFiscalPeriod persists a new fiscal period.
	SaveFiscalPeriod(ctx context.Context, period domain.FiscalPeriod) error

	// FindFiscalPeriodByID retrieves a period within a tenant.
	FindFiscalPeriodByID(ctx context.Context, tenantID, periodID string) (*domain.FiscalPeriod, error)

	// FindFiscalPeriodForDate finds the period whose range contains the date.
	FindFiscalPeriodForDate(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error)

	// ListFiscalPeriods lists a tenant's periods ordered by start date.
	ListFiscalPeriods(ctx context.Context, tenantID string) ([]domain.FiscalPeriod, error)

	// CloseFiscalPeriod marks a period closed. Closing is one-way.
	CloseFiscalPeriod(ctx context.Context, tenantID, periodID string, userID string, now time.Time) error
}
