package colite

// A Dispatcher decides where job bodies run. The job engine itself never
// schedules work; launchers hand the body to the context's dispatcher and
// the engine only records the outcome.
type Dispatcher interface {
	Dispatch(f func())
}

// A DispatcherFunc is a func(func()) that implements the [Dispatcher]
// interface.
type DispatcherFunc func(f func())

// Dispatch implements the [Dispatcher] interface.
func (d DispatcherFunc) Dispatch(f func()) { d(f) }

// goDispatcher runs every body on its own goroutine.
type goDispatcher struct{}

func (goDispatcher) Dispatch(f func()) { go f() }

var defaultDispatcher Dispatcher = goDispatcher{}
