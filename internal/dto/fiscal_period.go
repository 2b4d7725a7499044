package dto

import "time"

// CreateFiscalPeriodRequest opens a new fiscal period. Dates are
// inclusive and must not overlap an existing period.
type CreateFiscalPeriodRequest struct {
	Name      string    `json:"name" binding:"required,max=100"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}
