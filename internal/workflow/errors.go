package workflow

import (
	"errors"
	"fmt"
)

// Phase identifies which workflow step produced an error. The engine's own
// diagnostics are never reinterpreted; the phase is the only context added.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhasePlan     Phase = "plan"
	PhaseApply    Phase = "apply"
	PhaseReap     Phase = "reap"
	PhaseDestroy  Phase = "destroy"
	PhaseSync     Phase = "sync"
)

// ErrCancelled reports that the operator declined a confirmation prompt.
// It maps to exit code 0: cancellation is not a failure.
var ErrCancelled = errors.New("cancelled by operator")

// PhaseError wraps an underlying error with the workflow phase that failed.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// FailedPhase returns the phase recorded in err, or "" when err carries none.
func FailedPhase(err error) Phase {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase
	}
	return ""
}
