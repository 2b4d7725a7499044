package domain

import "time"

// FiscalPeriod is a bounded date range postings fall into. A closed period
// rejects any new posting whose transaction date lies inside its range.
type FiscalPeriod struct {
	PeriodID  string    `json:"periodID"` // Primary Key (e.g., UUID)
	TenantID  string    `json:"tenantID"`
	Name      string    `json:"name"` // e.g., "2026-Q1"
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsClosed  bool      `json:"isClosed"`
	AuditFields
}

// Contains reports whether the given date falls inside the period (inclusive).
func (p FiscalPeriod) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}
