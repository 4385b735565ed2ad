package qtrt

import (
	"sync/atomic"

	"github.com/ygrebnov/errorc"
)

type Phase int32

const (
	Uninitialized Phase = iota
	Constructing
	Initialized
	Destroyed
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Constructing:
		return "constructing"
	case Initialized:
		return "initialized"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Allowed transitions. Destroyed is reachable from Constructing so a
// failed construction can still be torn down.
var transitions = map[Phase][]Phase{
	Uninitialized: {Constructing},
	Constructing:  {Initialized, Destroyed},
	Initialized:   {Destroyed},
}

// Lifecycle tracks the phase of one object instance. The zero value is Uninitialized.
type Lifecycle struct {
	phase atomic.Int32
}

func (l *Lifecycle) Phase() Phase {
	return Phase(l.phase.Load())
}

// Transition moves to the given phase if the move is allowed from the current one.
func (l *Lifecycle) Transition(to Phase) error {
	for {
		from := l.Phase()
		if !allowed(from, to) {
			return errorc.With(ErrInvalidTransition,
				errorc.String(ErrorFieldFrom, from.String()),
				errorc.String(ErrorFieldTo, to.String()),
			)
		}
		if l.phase.CompareAndSwap(int32(from), int32(to)) {
			return nil
		}
	}
}

func allowed(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
