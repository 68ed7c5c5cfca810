package checkin

import (
	"errors"
	"fmt"
)

// Rejection reasons surfaced to gate devices. Each one maps to a precise
// operator-facing message so a steward knows why the turnstile stayed shut.
const (
	ReasonAlreadyEntered = "ALREADY_ENTERED"
	ReasonNotYetEntered  = "NOT_YET_ENTERED"
	ReasonAlreadyExited  = "ALREADY_EXITED"
	ReasonTicketSold     = "TICKET_SOLD"
	ReasonAlreadySold    = "ALREADY_SOLD"
)

var (
	// ErrTicketNotFound means the scanned number has no ticket record.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrConflict means the optimistic retries were exhausted; the caller
	// may retry the whole request.
	ErrConflict = errors.New("concurrent update conflict, retries exhausted")

	// ErrDuplicateNumber means a provisioning attempt reused an existing
	// ticket number.
	ErrDuplicateNumber = errors.New("ticket number already exists")
)

// AdmissionError is a business-rule rejection from the state machine.
// It is not a fault: the ticket and ledger are left untouched.
type AdmissionError struct {
	Reason string
	Number string
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("ticket %s rejected: %s", e.Number, e.Message())
}

// Message is the human-readable rejection text shown at the gate.
func (e *AdmissionError) Message() string {
	switch e.Reason {
	case ReasonAlreadyEntered:
		return "duplicate scan, ticket already entered"
	case ReasonNotYetEntered:
		return "ticket has not entered yet"
	case ReasonAlreadyExited:
		return "ticket already exited"
	case ReasonTicketSold:
		return "ticket was sold on-site, not valid at the gate"
	case ReasonAlreadySold:
		return "ticket already sold"
	default:
		return "scan rejected"
	}
}

// StorageError wraps a fault from the underlying store or ledger.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
