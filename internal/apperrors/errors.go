package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the document lifecycle and posting engine. Handlers map
// these to stable error codes; services wrap them with fmt.Errorf("%w: ...").
var (
	// ErrNotFound indicates that a requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation indicates that input data failed validation checks.
	ErrValidation = errors.New("validation error")

	// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
	ErrDuplicate = errors.New("resource already exists")

	// ErrForbidden indicates the caller is not allowed to perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrStateTransition indicates an illegal document lifecycle transition,
	// such as posting a draft or approving a posted document.
	ErrStateTransition = errors.New("illegal state transition")

	// ErrConflict indicates a concurrent state change was detected (e.g. the
	// document was posted by another request). Callers may re-fetch and retry.
	ErrConflict = errors.New("conflicting state change")

	// ErrPostingImbalance indicates the posting engine produced journal lines
	// whose debits do not equal credits. This is a code defect, never user input.
	ErrPostingImbalance = errors.New("journal debits do not equal credits")

	// ErrOverAllocation indicates a payment allocation exceeds the invoice's
	// outstanding balance.
	ErrOverAllocation = errors.New("allocation exceeds invoice balance")

	// ErrAllocationMismatch indicates the sum of a payment's allocations does
	// not equal the payment amount at post time.
	ErrAllocationMismatch = errors.New("allocations do not sum to payment amount")

	// ErrPeriodClosed indicates a posting was attempted with a transaction date
	// inside a closed fiscal period.
	ErrPeriodClosed = errors.New("fiscal period is closed")

	// ErrInternal indicates an unexpected infrastructure or programming error.
	ErrInternal = errors.New("internal error")
)

// AppError carries an HTTP-ish status code alongside the wrapped cause.
// The pgsql repositories use it to wrap driver errors with context.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that unwraps to ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
