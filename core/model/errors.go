package model

import "fmt"

// ValidationError reports malformed input rejected before touching the ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown holder, request or dispatch id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvariantViolationError reports an over-release or negative counter. It
// freezes the holder's ledger pending manual audit and must never be
// swallowed: it means the per-holder serialization discipline was broken.
type InvariantViolationError struct {
	HolderID string
	Detail   string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("ledger invariant violated for holder %s: %s", e.HolderID, e.Detail)
}
