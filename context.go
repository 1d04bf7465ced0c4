package colite

import "context"

// Context elements. The package stores its per-job metadata (the job
// itself, an optional name, an optional exception handler, an optional
// dispatcher) in a plain [context.Context] under unexported keys. A job
// re-inserts itself into the context its body runs under, which is the only
// coupling between a parent and the children constructed from that context.

type contextKey int

const (
	jobKey contextKey = iota
	nameKey
	exceptionHandlerKey
	dispatcherKey
)

// WithJob returns a copy of ctx with job installed as the current job.
// Jobs constructed from the returned context become children of job.
func WithJob(ctx context.Context, job Job) context.Context {
	return context.WithValue(ctx, jobKey, job)
}

// JobOf returns the current job of ctx, or nil if there is none.
func JobOf(ctx context.Context) Job {
	if ctx == nil {
		return nil
	}
	job, _ := ctx.Value(jobKey).(Job)
	return job
}

// WithName returns a copy of ctx carrying a coroutine name. The name is
// purely diagnostic: it only affects the String form of jobs constructed
// from the returned context.
func WithName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, nameKey, name)
}

// NameOf returns the coroutine name of ctx, or "" if none was set.
func NameOf(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(nameKey).(string)
	return name
}

// An ExceptionHandler receives failures that reached the top of a parent
// chain unhandled. It is installed with [WithExceptionHandler] and consulted
// by top-level jobs started with [Launch] or [RunBlocking].
type ExceptionHandler func(ctx context.Context, err error)

// WithExceptionHandler returns a copy of ctx carrying h.
func WithExceptionHandler(ctx context.Context, h ExceptionHandler) context.Context {
	return context.WithValue(ctx, exceptionHandlerKey, h)
}

// ExceptionHandlerOf returns the exception handler of ctx, or nil.
func ExceptionHandlerOf(ctx context.Context) ExceptionHandler {
	if ctx == nil {
		return nil
	}
	h, _ := ctx.Value(exceptionHandlerKey).(ExceptionHandler)
	return h
}

// WithDispatcher returns a copy of ctx carrying d. Launchers run job bodies
// through the context dispatcher; the default spawns a goroutine per body.
func WithDispatcher(ctx context.Context, d Dispatcher) context.Context {
	return context.WithValue(ctx, dispatcherKey, d)
}

// DispatcherOf returns the dispatcher of ctx, or the default goroutine
// dispatcher if none was set.
func DispatcherOf(ctx context.Context) Dispatcher {
	if ctx != nil {
		if d, ok := ctx.Value(dispatcherKey).(Dispatcher); ok {
			return d
		}
	}
	return defaultDispatcher
}
