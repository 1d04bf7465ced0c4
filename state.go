package colite

type phase int32

const (
	phaseIncomplete phase = iota
	phaseCancelling
	phaseComplete
)

func (p phase) String() string {
	switch p {
	case phaseIncomplete:
		return "Active"
	case phaseCancelling:
		return "Cancelling"
	case phaseComplete:
		return "Completed"
	default:
		return "Unknown"
	}
}

// A coroutineState is one point in a job's lifecycle. States are immutable;
// a transition builds a fresh candidate from the observed previous state and
// installs it with a single compare-and-swap, so states are compared by
// identity and a losing racer's candidate is discarded without effect.
//
// Legal edges:
//
//	Incomplete → Cancelling
//	Incomplete → Complete
//	Cancelling → Complete
//
// The handler list is carried forward on every transition until the state
// becomes Complete. The terminal state is installed with an empty list; the
// transition winner fans out over the previous state's list, which is the
// snapshot taken atomically with the swap. Handlers registered after that
// fire inline at registration.
type coroutineState struct {
	phase    phase
	handlers *disposableList

	// Terminal payload; meaningful in phaseComplete only. Exactly one of
	// value/err is set, except when the job was cancelled and then resumed,
	// in which case err is a CancellationError and value is nil.
	value any
	err   error
}

var initialState = &coroutineState{phase: phaseIncomplete}

// cancellingFrom builds the Incomplete → Cancelling candidate, inheriting
// the handler list of prev.
func cancellingFrom(prev *coroutineState) *coroutineState {
	return &coroutineState{phase: phaseCancelling, handlers: prev.handlers}
}

// completed builds a terminal candidate. The handler list starts empty.
func completed(value any, err error) *coroutineState {
	return &coroutineState{phase: phaseComplete, value: value, err: err}
}

// with returns a same-phase state with d added to the handler list.
func (s *coroutineState) with(d Disposable) *coroutineState {
	next := *s
	next.handlers = s.handlers.cons(d)
	return &next
}

// without returns a same-phase state with d removed from the handler list.
// Returns the receiver unchanged when d is not registered.
func (s *coroutineState) without(d Disposable) *coroutineState {
	handlers := s.handlers.remove(d)
	if handlers == s.handlers {
		return s
	}
	next := *s
	next.handlers = handlers
	return &next
}

// result reconstructs the Result a late completion subscriber receives from
// the stored terminal payload.
func (s *coroutineState) result() Result[any] {
	switch {
	case s.value != nil:
		return Success[any](s.value)
	case s.err != nil:
		return Failure[any](s.err)
	default:
		return Failure[any](ErrIllegalState)
	}
}
