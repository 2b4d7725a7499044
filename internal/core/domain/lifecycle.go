package domain

import (
	"fmt"

	"github.com/finbooks/finbooks_backend/internal/apperrors"
)

// DocumentStatus is the lifecycle state of a financial document.
// PAID and PARTIALLY_PAID are derived from an invoice's balance after posting;
// they are never entered through the transition table.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusSubmitted DocumentStatus = "SUBMITTED"
	StatusApproved  DocumentStatus = "APPROVED"
	StatusPosted    DocumentStatus = "POSTED"
	StatusPartial   DocumentStatus = "PARTIALLY_PAID"
	StatusPaid      DocumentStatus = "PAID"
	StatusCancelled DocumentStatus = "CANCELLED"
)

// DocumentAction is a lifecycle action requested by a caller.
type DocumentAction string

const (
	ActionSubmit  DocumentAction = "SUBMIT"
	ActionApprove DocumentAction = "APPROVE"
	ActionPost    DocumentAction = "POST"
	ActionCancel  DocumentAction = "CANCEL"
)

// DocumentKind identifies which kind of document a lifecycle action targets.
type DocumentKind string

const (
	KindInvoice DocumentKind = "INVOICE"
	KindPayment DocumentKind = "PAYMENT"
	KindJournal DocumentKind = "JOURNAL"
)

type transitionKey struct {
	from   DocumentStatus
	action DocumentAction
}

// transitions is the single source of truth for legal lifecycle moves.
// Posting is irreversible: there is deliberately no action out of POSTED.
var transitions = map[transitionKey]DocumentStatus{
	{StatusDraft, ActionSubmit}:      StatusSubmitted,
	{StatusSubmitted, ActionApprove}: StatusApproved,
	{StatusApproved, ActionPost}:     StatusPosted,
	{StatusDraft, ActionCancel}:      StatusCancelled,
	{StatusSubmitted, ActionCancel}:  StatusCancelled,
}

// NextStatus resolves the status reached by applying action to from.
// It returns an error wrapping apperrors.ErrStateTransition for illegal moves.
func NextStatus(from DocumentStatus, action DocumentAction) (DocumentStatus, error) {
	to, ok := transitions[transitionKey{from, action}]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s document", apperrors.ErrStateTransition, action, from)
	}
	return to, nil
}

// IsEditable reports whether a document in the given status may still be mutated.
func IsEditable(s DocumentStatus) bool {
	return s == StatusDraft
}

// IsSettled reports whether the status is one of the balance-derived paid states.
func IsSettled(s DocumentStatus) bool {
	return s == StatusPaid || s == StatusPartial
}
