package workflow

// State names a phase of the provisioning or teardown workflow.
type State string

const (
	// StateInit is the starting state of both flows.
	StateInit State = "INIT"
	// StateValidated means the configuration passed terraform validate.
	StateValidated State = "VALIDATED"
	// StatePlanned means a change set was computed.
	StatePlanned State = "PLANNED"
	// StateConfirmed means the operator approved the pending mutation.
	StateConfirmed State = "CONFIRMED"
	// StateApplied means remote state converged to the declared state.
	StateApplied State = "APPLIED"
	// StateSynced means local credentials reference the applied target.
	StateSynced State = "SYNCED"
	// StateReaped means dangling load-balancer cleanup was attempted.
	StateReaped State = "REAPED"
	// StateDestroyed means the engine finished deleting tracked resources.
	StateDestroyed State = "DESTROYED"
	// StateDesynced means local credentials for the target were removed.
	StateDesynced State = "DESYNCED"
	// StateFailed is terminal; the failing phase is reported to the operator.
	StateFailed State = "FAILED"
	// StateCancelled is terminal; the operator declined a confirmation.
	StateCancelled State = "CANCELLED"
)

// transitions lists the legal guarded transitions of both flows.
var transitions = map[State][]State{
	StateInit:      {StateValidated, StateReaped, StateFailed},
	StateValidated: {StatePlanned, StateFailed},
	StatePlanned:   {StateConfirmed, StateCancelled, StateFailed},
	StateReaped:    {StateConfirmed, StateCancelled, StateFailed},
	StateConfirmed: {StateApplied, StateDestroyed, StateFailed},
	StateApplied:   {StateSynced, StateFailed},
	StateDestroyed: {StateDesynced, StateFailed},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
