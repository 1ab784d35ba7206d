package anticaptcha

import "errors"

// WaitState is the state of a WaitForTask loop.
type WaitState int

const (
	WaitStateWaiting WaitState = iota
	WaitStateReady
	WaitStateTimedOut
	WaitStateBadStatus
)

func (s WaitState) String() string {
	switch s {
	case WaitStateWaiting:
		return "waiting"
	case WaitStateReady:
		return "ready"
	case WaitStateTimedOut:
		return "timed_out"
	case WaitStateBadStatus:
		return "bad_status"
	default:
		return "unknown"
	}
}

// IsFinal returns true if the loop stops in this state.
func (s WaitState) IsFinal() bool {
	return s != WaitStateWaiting
}

// ErrInvalidTransition is returned when the wait loop is asked to leave a
// final state.
var ErrInvalidTransition = errors.New("anticaptcha: invalid wait state transition")

// ValidTransitions defines the allowed wait state transitions
var ValidTransitions = map[WaitState][]WaitState{
	WaitStateWaiting:   {WaitStateWaiting, WaitStateReady, WaitStateTimedOut, WaitStateBadStatus},
	WaitStateReady:     {}, // Terminal state
	WaitStateTimedOut:  {}, // Terminal state
	WaitStateBadStatus: {}, // Terminal state
}

// CanTransitionTo checks if a transition from s to target is valid
func (s WaitState) CanTransitionTo(target WaitState) bool {
	for _, v := range ValidTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// StateForStatus maps a task result status to the state it leads to,
// before the timeout is considered.
func StateForStatus(status string) WaitState {
	switch status {
	case StatusReady:
		return WaitStateReady
	case StatusProcessing:
		return WaitStateWaiting
	default:
		return WaitStateBadStatus
	}
}

// StateOf classifies the outcome of a wait. A nil error is ready; errors
// that are not wait failures return WaitStateWaiting and false.
func StateOf(err error) (WaitState, bool) {
	switch {
	case err == nil:
		return WaitStateReady, true
	case errors.Is(err, ErrTimeout):
		return WaitStateTimedOut, true
	case errors.Is(err, ErrBadStatus):
		return WaitStateBadStatus, true
	default:
		return WaitStateWaiting, false
	}
}
