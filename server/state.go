package server

import "fmt"

// State is the lifecycle position of a Listener. A listener moves forward only:
// Unbound, Bound, Listening, Accepted, Serving, then Sent or Failed, then Terminated.
type State int

const (
	StateUnbound State = iota
	StateBound
	StateListening
	StateAccepted
	StateServing
	StateSent
	StateFailed
	StateTerminated
)

var stateNames = map[State]string{
	StateUnbound:    "UNBOUND",
	StateBound:      "BOUND",
	StateListening:  "LISTENING",
	StateAccepted:   "ACCEPTED",
	StateServing:    "SERVING",
	StateSent:       "SENT",
	StateFailed:     "FAILED",
	StateTerminated: "TERMINATED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", int(s))
}

// allowed lists the legal transitions. Terminated is reachable from everywhere.
var allowed = map[State][]State{
	StateUnbound:   {StateBound},
	StateBound:     {StateListening},
	StateListening: {StateAccepted},
	StateAccepted:  {StateServing},
	StateServing:   {StateSent, StateFailed},
}

func canTransition(from, to State) bool {
	if to == StateTerminated {
		return from != StateTerminated
	}
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidStateError is returned when an operation is called out of lifecycle order
type InvalidStateError struct {
	Op      string
	Current State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.Current)
}
