package colite

// Disposable represents a registration that can be revoked.
//
// Disposing is idempotent and safe to call from any goroutine. Disposing a
// handle whose job has already completed is a silent no-op.
type Disposable interface {
	Dispose()
}

// A DisposableFunc is a func() that implements the [Disposable] interface.
type DisposableFunc func()

// Dispose implements the [Disposable] interface.
func (f DisposableFunc) Dispose() { f() }

// OnComplete is a completion handler. A handler registered before the
// terminal transition receives the result the producer passed to ResumeWith,
// not the error stored in the terminal state; one registered afterwards
// receives a result rebuilt from the stored terminal state.
type OnComplete func(result Result[any])

// OnCancel is a cancellation handler.
type OnCancel func()

// completionHandle binds a job to a completion handler. Removal compares
// handles by identity, so every registration allocates a fresh one.
type completionHandle struct {
	job Job
	f   OnComplete
}

func (h *completionHandle) Dispose() {
	h.job.Remove(h)
}

// cancelHandle binds a job to a cancellation handler.
type cancelHandle struct {
	job Job
	f   OnCancel
}

func (h *cancelHandle) Dispose() {
	h.job.Remove(h)
}

// nopDisposable is returned for registrations made after the corresponding
// transition; there is nothing left to unregister.
type nopDisposable struct{}

func (nopDisposable) Dispose() {}

// A disposableList is an immutable singly-linked list of handles. The nil
// list is empty. Immutability is what makes notification safe: a fan-out
// iterates the snapshot captured by the terminal compare-and-swap while
// concurrent removals build new lists elsewhere.
type disposableList struct {
	head Disposable
	tail *disposableList
}

func (l *disposableList) cons(d Disposable) *disposableList {
	return &disposableList{head: d, tail: l}
}

// remove returns a list with the first occurrence of d omitted, comparing by
// identity. If d is absent, the receiver is returned unchanged.
func (l *disposableList) remove(d Disposable) *disposableList {
	if l == nil {
		return nil
	}
	if l.head == d {
		return l.tail
	}
	tail := l.tail.remove(d)
	if tail == l.tail {
		return l
	}
	return &disposableList{head: l.head, tail: tail}
}

func (l *disposableList) forEach(f func(Disposable)) {
	for n := l; n != nil; n = n.tail {
		f(n.head)
	}
}

// notifyCompletion invokes every completion handler in the list with res.
// Handles of other kinds are skipped.
func (l *disposableList) notifyCompletion(res Result[any]) {
	l.forEach(func(d Disposable) {
		if h, ok := d.(*completionHandle); ok {
			h.f(res)
		}
	})
}

// notifyCancellation invokes every cancellation handler in the list.
func (l *disposableList) notifyCancellation() {
	l.forEach(func(d Disposable) {
		if h, ok := d.(*cancelHandle); ok {
			h.f()
		}
	})
}
