package colite

import (
	"context"
	"fmt"
	"sync/atomic"
)

// A Job is a reference to a terminable unit of work with an observable
// lifecycle.
//
// All methods are safe for concurrent use from any goroutine. A Job is also
// a context element: it is stored in the context its body runs under (see
// [WithJob] and [JobOf]), which is how children discover their parent.
type Job interface {
	// Cancel requests cancellation. An active job transitions to the
	// cancelling state and its cancellation handlers fire synchronously
	// before Cancel returns. Cancelling a job twice, or after completion,
	// is a no-op.
	Cancel()

	// Join awaits termination. It returns nil once the job has completed,
	// or a cancellation error when ctx is done first, or when the job had
	// already completed when Join was called and its parent is no longer
	// active. The parent is not checked when Join had to wait.
	Join(ctx context.Context) error

	// InvokeOnCompletion registers f to run exactly once when the job
	// reaches its terminal state. If the job has already completed, f is
	// invoked immediately and synchronously with a result reconstructed
	// from the terminal state, and a no-op handle is returned.
	InvokeOnCompletion(f OnComplete) Disposable

	// InvokeOnCancel registers f to run when the job is cancelled. If the
	// job is already cancelling or has already terminated, f is invoked
	// immediately and synchronously and a no-op handle is returned.
	InvokeOnCancel(f OnCancel) Disposable

	// Remove unregisters a handle previously returned by InvokeOnCompletion
	// or InvokeOnCancel. Removing an absent handle, or any handle after
	// completion, is a no-op. Prefer calling Dispose on the handle.
	Remove(d Disposable)

	// IsActive reports whether the job is neither cancelling nor completed.
	IsActive() bool

	// IsCompleted reports whether the job has reached its terminal state.
	IsCompleted() bool
}

// A Continuation is the resumable side of a job: the producer resumes it
// exactly once with a [Result].
type Continuation[T any] interface {
	// Context returns the context the job runs under, with the job itself
	// installed as an element.
	Context() context.Context

	// ResumeWith delivers the outcome and moves the job to its terminal
	// state. Resuming a completed job panics with [ErrAlreadyCompleted].
	// Resuming a cancelling job is legal: the job terminates with a
	// cancellation error, while completion handlers still observe result.
	ResumeWith(result Result[T])
}

// childExceptionHandler is the hook a failing child uses to offer its error
// to the parent. Only jobs built on the in-package engine implement it.
type childExceptionHandler interface {
	handleChildException(err error) bool
}

var jobSeq atomic.Uint64

// coroutine is the job engine. Its single point of synchronization is the
// atomic state cell: every mutation is a compare-and-swap retry loop, and
// side effects run only after a successful swap. Concrete job kinds embed it
// and may install an onJobException hook.
type coroutine[T any] struct {
	state  atomic.Pointer[coroutineState]
	ctx    context.Context
	parent Job

	// parentHandle unsubscribes this job from the parent's cancel list.
	// Disposed on the first cancel or terminal transition; disposal is
	// idempotent, so racing transitions may both call it.
	parentHandle Disposable

	// onJobException is consulted when a failure reaches the top of the
	// parent chain unhandled. Nil means unhandled.
	onJobException func(err error) bool

	id   uint64
	name string
}

// newCoroutine constructs a job in the incomplete state. self is the value
// installed in the context (the outermost job kind when embedding); the
// parent subscription is registered as the last step, so a cancelled parent
// cancels the job before construction returns.
func newCoroutine[T any](ctx context.Context, self Job) *coroutine[T] {
	c := &coroutine[T]{}
	if self == nil {
		self = c
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c.id = jobSeq.Add(1)
	c.name = NameOf(ctx)
	c.parent = JobOf(ctx)
	c.ctx = WithJob(ctx, self)
	c.state.Store(initialState)
	if c.parent != nil {
		c.parentHandle = c.parent.InvokeOnCancel(c.Cancel)
	}
	return c
}

// Context implements [Continuation].
func (c *coroutine[T]) Context() context.Context {
	return c.ctx
}

// ResumeWith implements [Continuation].
func (c *coroutine[T]) ResumeWith(result Result[T]) {
	var next *coroutineState
	var snapshot *disposableList
	for {
		prev := c.state.Load()
		switch prev.phase {
		case phaseIncomplete:
			if result.Err != nil {
				next = completed(nil, result.Err)
			} else {
				next = completed(result.Value, nil)
			}
		case phaseCancelling:
			// A cancelled job always terminates with a cancellation error,
			// even when its body finished normally afterwards.
			next = completed(nil, Canceled("Result arrived, but cancelled already."))
		case phaseComplete:
			panic(ErrAlreadyCompleted)
		}
		if c.state.CompareAndSwap(prev, next) {
			snapshot = prev.handlers
			break
		}
	}

	if next.err != nil {
		c.tryHandleException(next.err)
	}

	// Handlers observe the producer's result, not the stored terminal
	// error. Cancellation observers were notified on the cancel edge.
	snapshot.notifyCompletion(erase(result))
	c.disposeParentHandle()
}

func (c *coroutine[T]) Cancel() {
	for {
		prev := c.state.Load()
		if prev.phase != phaseIncomplete {
			return
		}
		if c.state.CompareAndSwap(prev, cancellingFrom(prev)) {
			prev.handlers.notifyCancellation()
			c.disposeParentHandle()
			return
		}
	}
}

func (c *coroutine[T]) InvokeOnCompletion(f OnComplete) Disposable {
	h := &completionHandle{job: c, f: f}
	for {
		prev := c.state.Load()
		if prev.phase == phaseComplete {
			f(prev.result())
			return nopDisposable{}
		}
		if c.state.CompareAndSwap(prev, prev.with(h)) {
			return h
		}
	}
}

func (c *coroutine[T]) InvokeOnCancel(f OnCancel) Disposable {
	h := &cancelHandle{job: c, f: f}
	for {
		prev := c.state.Load()
		if prev.phase != phaseIncomplete {
			// Fires for completed jobs too, even ones that completed
			// normally. Preserved observed behavior; see package tests.
			f()
			return nopDisposable{}
		}
		if c.state.CompareAndSwap(prev, prev.with(h)) {
			return h
		}
	}
}

func (c *coroutine[T]) Remove(d Disposable) {
	for {
		prev := c.state.Load()
		if prev.phase == phaseComplete {
			return
		}
		next := prev.without(d)
		if next == prev {
			return
		}
		if c.state.CompareAndSwap(prev, next) {
			return
		}
	}
}

func (c *coroutine[T]) Join(ctx context.Context) error {
	if c.state.Load().phase == phaseComplete {
		if c.parent != nil && !c.parent.IsActive() {
			return Canceled("Parent cancelled.")
		}
		return nil
	}
	return c.joinSuspend(ctx)
}

// joinSuspend blocks the caller on a completion subscription. The wait is
// cancellation-aware: when ctx is done first, the subscription is disposed
// and the awaited job is unaffected. On a goroutine that is driving an event
// loop, the wait keeps the loop turning so the awaited job's work can run.
func (c *coroutine[T]) joinSuspend(ctx context.Context) error {
	done := make(chan struct{})
	handle := c.InvokeOnCompletion(func(Result[any]) { close(done) })
	if loop := currentLoop(); loop != nil {
		if loop.await(done, ctx.Done()) {
			return nil
		}
		handle.Dispose()
		return CanceledCause("Join cancelled.", context.Cause(ctx))
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		handle.Dispose()
		return CanceledCause("Join cancelled.", context.Cause(ctx))
	}
}

func (c *coroutine[T]) IsActive() bool {
	return c.state.Load().phase == phaseIncomplete
}

func (c *coroutine[T]) IsCompleted() bool {
	return c.state.Load().phase == phaseComplete
}

// tryHandleException offers a terminal failure to the parent chain.
// Cancellation is a normal outcome and is never propagated. Ancestors are
// cancelled as the error walks up; the first one that reports the error
// handled stops the walk. An unhandled error falls back to the job's own
// hook.
func (c *coroutine[T]) tryHandleException(err error) bool {
	if IsCancellation(err) {
		return false
	}
	if p, ok := c.parent.(childExceptionHandler); ok && p.handleChildException(err) {
		return true
	}
	return c.handleJobException(err)
}

func (c *coroutine[T]) handleChildException(err error) bool {
	c.Cancel()
	return c.tryHandleException(err)
}

func (c *coroutine[T]) handleJobException(err error) bool {
	if c.onJobException != nil {
		return c.onJobException(err)
	}
	return false
}

func (c *coroutine[T]) disposeParentHandle() {
	if h := c.parentHandle; h != nil {
		h.Dispose()
	}
}

func (c *coroutine[T]) String() string {
	name := c.name
	if name == "" {
		name = "coroutine"
	}
	return fmt.Sprintf("%s#%d{%s}", name, c.id, c.state.Load().phase)
}
