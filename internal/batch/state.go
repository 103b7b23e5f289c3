package batch

// State represents the run state of a batch job.
type State int

const (
	// StateIdle means no run is in progress. Initial state, and the state
	// reached after a cancelled or aborted run.
	StateIdle State = iota
	// StateRunning means the engine is executing tasks.
	StateRunning
	// StateCancelling means a cancel request is pending; the engine winds
	// down at the next checkpoint.
	StateCancelling
	// StateCompleted means the last run finished with every task terminal.
	StateCompleted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCancelling:
		return "cancelling"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// validTransitions maps each state to the states it may move to.
var validTransitions = map[State][]State{
	StateIdle:       {StateRunning},
	StateRunning:    {StateCancelling, StateCompleted, StateIdle},
	StateCancelling: {StateIdle},
	StateCompleted:  {StateRunning},
}

// canTransition reports whether moving from one state to another is legal.
func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
