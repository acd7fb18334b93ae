package render

// State is the controller lifecycle phase
type State int32

const (
	StateNotLaunched State = iota
	StateLaunching
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNotLaunched:
		return "NotLaunched"
	case StateLaunching:
		return "Launching"
	case StateRunning:
		return "Running"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// validTransitions lists the allowed next states per state
var validTransitions = map[State][]State{
	StateNotLaunched: {StateLaunching, StateTerminated},
	StateLaunching:   {StateRunning, StateTerminated},
	StateRunning:     {StateTerminated},
}

// CanTransition checks if a lifecycle transition is valid
func CanTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
