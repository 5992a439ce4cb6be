package models

// WorkflowState is the position of one create, update or delete request.
type WorkflowState string

const (
	StateValidating WorkflowState = "VALIDATING"
	StatePersisting WorkflowState = "PERSISTING"
	StateBilling    WorkflowState = "BILLING"
	StatePublishing WorkflowState = "PUBLISHING"

	// Terminal states.
	StateDone                   WorkflowState = "DONE"
	StateDoneWithBillingWarning WorkflowState = "DONE_WITH_BILLING_WARNING"
	StateRejected               WorkflowState = "REJECTED"
	StateConflict               WorkflowState = "CONFLICT"
	StateNotFound               WorkflowState = "NOT_FOUND"
	StateFailed                 WorkflowState = "FAILED"
)

// IsTerminal reports whether no further transition can happen.
func (s WorkflowState) IsTerminal() bool {
	switch s {
	case StateDone, StateDoneWithBillingWarning, StateRejected, StateConflict, StateNotFound, StateFailed:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the store mutation was applied.
func (s WorkflowState) Succeeded() bool {
	return s == StateDone || s == StateDoneWithBillingWarning
}
