package colite

import (
	"context"
	"log"
	"runtime/debug"
)

// Launch starts a result-less job running block and returns it.
//
// The body runs through the context's [Dispatcher] (a fresh goroutine by
// default) under a context that carries the new job and is cancelled when
// the job is cancelled. A nil error return completes the job normally; a
// non-nil error or a panic completes it with a failure, which then walks the
// parent chain and, if unhandled, is delivered to the context's
// [ExceptionHandler] or logged.
func Launch(ctx context.Context, block func(ctx context.Context) error) Job {
	s := &standaloneCoroutine{}
	s.coroutine = newCoroutine[struct{}](ctx, s)
	s.onJobException = s.deliverException
	startBody(s.coroutine, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, block(ctx)
	})
	return s
}

// standaloneCoroutine is the job kind behind [Launch]. It is a top of a
// parent chain for exception purposes: failures that reach it are consumed.
type standaloneCoroutine struct {
	*coroutine[struct{}]
}

// deliverException consumes a failure that reached the top of the parent
// chain: it goes to the context's [ExceptionHandler] when one is installed,
// or to the log.
func (c *coroutine[T]) deliverException(err error) bool {
	if h := ExceptionHandlerOf(c.ctx); h != nil {
		h(c.ctx, err)
		return true
	}
	log.Printf("colite: unhandled exception in %v: %v", c, err)
	return true
}

// startBody dispatches block and resumes c with its outcome. The body
// context is cancelled on job cancellation and released on completion.
func startBody[T any](c *coroutine[T], block func(ctx context.Context) (T, error)) {
	ctx, cancel := context.WithCancel(c.ctx)
	c.InvokeOnCancel(OnCancel(cancel))
	c.InvokeOnCompletion(func(Result[any]) { cancel() })
	DispatcherOf(c.ctx).Dispatch(func() {
		runBody(c, ctx, block)
	})
}

// runBody calls block and resumes c exactly once. A panic becomes a
// [PanicError] failure. A body that never returns because its goroutine is
// exiting via runtime.Goexit resumes c with [ErrGoexit] from the deferred
// path, so observers of the job do not hang; the exit then continues.
func runBody[T any](c *coroutine[T], ctx context.Context, block func(ctx context.Context) (T, error)) {
	ok := false
	defer func() {
		if ok {
			return
		}
		if v := recover(); v != nil {
			c.ResumeWith(Failure[T](&PanicError{value: v, stack: debug.Stack()}))
			return
		}
		// recover returned nil without a normal return: runtime.Goexit.
		c.ResumeWith(Failure[T](ErrGoexit))
	}()
	v, err := block(ctx)
	ok = true
	if err != nil {
		c.ResumeWith(Failure[T](err))
		return
	}
	c.ResumeWith(Success(v))
}
