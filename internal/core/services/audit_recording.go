package services

import (
	"context"
	"time"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
)

// Audited entity names.
const (
	entityAccount      = "ACCOUNT"
	entityInvoice      = "INVOICE"
	entityPayment      = "PAYMENT"
	entityJournal      = "JOURNAL"
	entityFiscalPeriod = "FISCAL_PERIOD"
	entityExchangeRate = "EXCHANGE_RATE"
)

// recordAudit builds one audit entry for a mutating action and hands it to the
// recorder. The recorder is fire-and-forget, so this never fails the caller.
func recordAudit(ctx context.Context, recorder portssvc.AuditRecorder, tenantID, userID string, action domain.AuditAction, entity, entityID string, changes map[string]domain.FieldChange, start time.Time, opErr error) {
	if recorder == nil {
		return
	}
	entry := domain.AuditLogEntry{
		TenantID:        tenantID,
		UserID:          userID,
		Action:          action,
		Entity:          entity,
		EntityID:        entityID,
		Changes:         changes,
		Timestamp:       time.Now().UTC(),
		Success:         opErr == nil,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
	if opErr != nil {
		entry.ErrorMessage = opErr.Error()
	}
	recorder.Record(ctx, entry)
}

// statusChange is the single-field diff most lifecycle actions record.
func statusChange(from, to domain.DocumentStatus) map[string]domain.FieldChange {
	return map[string]domain.FieldChange{
		"status": {From: string(from), To: string(to)},
	}
}
