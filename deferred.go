package colite

import "context"

// A Deferred is a [Job] that produces a value.
type Deferred[T any] interface {
	Job

	// Await joins the job and returns its outcome. Unlike completion
	// handlers, Await reads the stored terminal state: a job that was
	// cancelled and later resumed yields the cancellation error here.
	Await(ctx context.Context) (T, error)
}

// Async starts a job computing a value and returns it as a [Deferred].
//
// The body runs exactly like a [Launch] body, but a failure is not delivered
// to the exception handler by the deferred itself; it still propagates to
// the parent, and otherwise surfaces through Await.
func Async[T any](ctx context.Context, block func(ctx context.Context) (T, error)) Deferred[T] {
	d := &deferredCoroutine[T]{}
	d.coroutine = newCoroutine[T](ctx, d)
	startBody(d.coroutine, block)
	return d
}

type deferredCoroutine[T any] struct {
	*coroutine[T]
}

func (d *deferredCoroutine[T]) Await(ctx context.Context) (T, error) {
	return d.await(ctx)
}

// A CompletableDeferred is a [Deferred] with no body: outside code completes
// it by hand. It is the plainest producer surface over [Continuation].
type CompletableDeferred[T any] struct {
	*coroutine[T]
}

// NewCompletableDeferred creates an externally completable job as a child of
// the job in ctx, if any.
func NewCompletableDeferred[T any](ctx context.Context) *CompletableDeferred[T] {
	d := &CompletableDeferred[T]{}
	d.coroutine = newCoroutine[T](ctx, d)
	return d
}

// Complete resumes the job with value. Panics with [ErrAlreadyCompleted] if
// the job has already completed.
func (d *CompletableDeferred[T]) Complete(value T) {
	d.ResumeWith(Success(value))
}

// CompleteExceptionally resumes the job with err. Panics with
// [ErrAlreadyCompleted] if the job has already completed.
func (d *CompletableDeferred[T]) CompleteExceptionally(err error) {
	d.ResumeWith(Failure[T](err))
}

// Await implements [Deferred].
func (d *CompletableDeferred[T]) Await(ctx context.Context) (T, error) {
	return d.await(ctx)
}

// await reads the stored terminal state after joining.
func (c *coroutine[T]) await(ctx context.Context) (T, error) {
	var zero T
	if err := c.Join(ctx); err != nil {
		return zero, err
	}
	st := c.state.Load()
	if st.err != nil {
		return zero, st.err
	}
	v, ok := st.value.(T)
	if !ok {
		return zero, ErrIllegalState
	}
	return v, nil
}
