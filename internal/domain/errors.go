package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the BFF. Every error is
// returned as a value and is local to a single operation: a failed call
// never mutates controller state.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrPreconditionNotMet indicates an onboarding transition was attempted
// without the documented preconditions. Fields lists what is missing.
type ErrPreconditionNotMet struct {
	Step   OnboardingStep
	Fields []string
}

func (e *ErrPreconditionNotMet) Error() string {
	return fmt.Sprintf("precondition not met for step %s: missing %s", e.Step, strings.Join(e.Fields, ", "))
}

// ErrIllegalTransition indicates an event that is not legal in the current
// state of a state machine.
type ErrIllegalTransition struct {
	Entity string
	From   string
	Event  string
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal transition for %s: cannot %s from state %s", e.Entity, e.Event, e.From)
}

// ErrNameMismatch indicates a signature submission whose signer name does
// not match the legal name on file. The contract state is left unchanged.
type ErrNameMismatch struct {
	Provided string
}

func (e *ErrNameMismatch) Error() string {
	return fmt.Sprintf("signer name %q does not match the legal name on file", e.Provided)
}

// ErrVerificationRequired indicates a withdrawal was attempted while the
// contractor is not verified.
type ErrVerificationRequired struct {
	State VerificationState
}

func (e *ErrVerificationRequired) Error() string {
	return fmt.Sprintf("identity verification required: current state is %s", e.State)
}

// ErrInsufficientBalance indicates a withdrawal exceeding available funds.
type ErrInsufficientBalance struct {
	Available float64
	Requested float64
	Currency  string
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: available=%.2f requested=%.2f %s", e.Available, e.Requested, e.Currency)
}

// ErrConflict indicates a resource already exists or is in a conflicting
// terminal state.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
