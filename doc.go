// Package colite is a miniature structured-concurrency runtime.
//
// The heart of the package is the [Job]: a reference to a terminable unit of
// work with an observable lifecycle. A Job is born active, may be asked to
// cancel, and eventually completes with a value or an error. Everything else
// in the package (launchers, deferred values, the blocking entry point)
// composes this one primitive.
//
// # Lifecycle
//
// A Job's state travels along a small DAG and never backwards:
//
//	Incomplete ──────────────► Complete
//	     │                        ▲
//	     └──────► Cancelling ─────┘
//
// The state lives in a single atomic cell. Every public operation is a
// compare-and-swap retry loop over that cell, which makes a Job safe to drive
// from any number of goroutines without locks. Effects that are visible to
// the outside, such as callback dispatch and parent notification, happen only
// after a successful swap, so each transition runs its side effects exactly
// once.
//
// # Observing a Job
//
// Callbacks are registered with [Job.InvokeOnCompletion] and
// [Job.InvokeOnCancel]. Both return a [Disposable] that unregisters the
// callback. A callback registered after the corresponding transition has
// already happened is invoked immediately and synchronously; this closes the
// lost-wakeup race between a completing writer and a registering reader.
//
// Completion handlers registered before the terminal transition receive the
// result the producer supplied, even when cancellation raced with completion
// and the stored terminal state carries a cancellation error. A handler
// registered after the transition receives a result rebuilt from the stored
// terminal state instead. Cancellation observers are notified through their
// own channel. The two channels are independent.
//
// # Structured Concurrency
//
// A Job discovers its parent from the context it is constructed with and
// subscribes to the parent's cancellation: cancelling a parent cancels every
// live child. A child that fails with a non-cancellation error propagates the
// failure up the parent chain, cancelling ancestors on the way; a top-level
// job started with [Launch] or [RunBlocking] delivers the error to the
// context's [ExceptionHandler], or logs it when there is none. A top-level
// [Deferred] does not deliver it; the failure surfaces through Await.
//
// # Launching Work
//
// [Launch] starts a result-less job, [Async] a result-returning [Deferred],
// and [NewCompletableDeferred] creates a job that outside code completes by
// hand. [RunBlocking] is the top-level entry point: it drives an event queue
// on the calling goroutine until the job it spawned terminates.
//
// Bodies run under a [context.Context] that is cancelled when their job is
// cancelled, so ordinary context-aware Go code observes cancellation with no
// extra plumbing.
package colite
