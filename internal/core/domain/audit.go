package domain

import "time"

// AuditAction is the mutating action an audit entry records.
type AuditAction string

const (
	AuditCreate      AuditAction = "CREATE"
	AuditUpdate      AuditAction = "UPDATE"
	AuditSubmit      AuditAction = "SUBMIT"
	AuditApprove     AuditAction = "APPROVE"
	AuditPost        AuditAction = "POST"
	AuditCancel      AuditAction = "CANCEL"
	AuditAllocate    AuditAction = "ALLOCATE"
	AuditReverse     AuditAction = "REVERSE"
	AuditClosePeriod AuditAction = "CLOSE_PERIOD"
	AuditDeactivate  AuditAction = "DEACTIVATE"
)

// FieldChange is one field's before/after pair in an audit diff.
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// AuditLogEntry is one append-only record of a mutating action. Entries are
// never updated or deleted; statistics are computed by read-side aggregation.
type AuditLogEntry struct {
	EntryID         string                 `json:"entryID"` // Primary Key (e.g., UUID)
	TenantID        string                 `json:"tenantID"`
	UserID          string                 `json:"userID"`
	Action          AuditAction            `json:"action"`
	Entity          string                 `json:"entity"` // e.g., "INVOICE"
	EntityID        string                 `json:"entityID"`
	Changes         map[string]FieldChange `json:"changes,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
	Success         bool                   `json:"success"`
	ErrorMessage    string                 `json:"errorMessage,omitempty"` // Non-empty iff !Success
	ExecutionTimeMs int64                  `json:"executionTimeMs"`
}

// AuditBucket is one time bucket in an audit activity timeline.
type AuditBucket struct {
	PeriodStart time.Time `json:"periodStart"`
	Count       int64     `json:"count"`
}

// AuditStats summarises audit activity, computed over the log on demand.
type AuditStats struct {
	Total          int64            `json:"total"`
	Failures       int64            `json:"failures"`
	FailureRate    float64          `json:"failureRate"`
	CountsByAction map[string]int64 `json:"countsByAction"`
	CountsByEntity map[string]int64 `json:"countsByEntity"`
	CountsByUser   map[string]int64 `json:"countsByUser"`
	Timeline       []AuditBucket    `json:"timeline"`
}
