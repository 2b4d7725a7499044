package models

import "time"

// AuditLogEntry maps to the audit_log table. Changes is stored as JSONB and
// marshalled at the repository boundary. Rows are insert-only.
type AuditLogEntry struct {
	EntryID         string    `json:"entryID"`
	TenantID        string    `json:"tenantID"`
	UserID          string    `json:"userID"`
	Action          string    `json:"action"`
	Entity          string    `json:"entity"`
	EntityID        string    `json:"entityID"`
	Changes         []byte    `json:"changes"` // JSONB payload
	Timestamp       time.Time `json:"timestamp"`
	Success         bool      `json:"success"`
	ErrorMessage    string    `json:"errorMessage"`
	ExecutionTimeMs int64     `json:"executionTimeMs"`
}
