package colite

import (
	"context"
	"sync"

	"github.com/petermattis/goid"
)

// An eventLoop is a [Dispatcher] whose work runs on the goroutine that
// drives it. [RunBlocking] creates one per call and drains it on the calling
// goroutine until the top-level job terminates, so everything dispatched to
// the loop runs single-threaded in dispatch order.
type eventLoop struct {
	mu    sync.Mutex
	queue dispatchQueue
	wake  chan struct{}
}

func newEventLoop() *eventLoop {
	return &eventLoop{wake: make(chan struct{}, 1)}
}

// Dispatch implements [Dispatcher]. Safe for concurrent use.
func (l *eventLoop) Dispatch(f func()) {
	l.mu.Lock()
	l.queue.Push(f)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *eventLoop) pop() (f func(), ok bool) {
	l.mu.Lock()
	f, ok = l.queue.Pop()
	l.mu.Unlock()
	return f, ok
}

// run drains the queue on the calling goroutine until done is closed and no
// queued work remains.
func (l *eventLoop) run(done <-chan struct{}) {
	for {
		if f, ok := l.pop(); ok {
			f()
			continue
		}
		select {
		case <-done:
			if f, ok := l.pop(); ok {
				f()
				continue
			}
			return
		case <-l.wake:
		}
	}
}

// await keeps draining the queue while waiting for done, so a join on the
// loop goroutine does not starve work the awaited jobs depend on. Reports
// whether done won the wait; false means giveUp fired first.
func (l *eventLoop) await(done, giveUp <-chan struct{}) bool {
	for {
		if f, ok := l.pop(); ok {
			f()
			continue
		}
		select {
		case <-done:
			return true
		case <-giveUp:
			return false
		case <-l.wake:
		}
	}
}

// blockingLoops tracks, per goroutine, the event loop that goroutine is
// currently driving. Joins consult it to keep the loop turning while they
// wait, and RunBlocking uses it to reject nested runs.
var blockingLoops sync.Map // int64 → *eventLoop

func currentLoop() *eventLoop {
	if v, ok := blockingLoops.Load(goid.Get()); ok {
		return v.(*eventLoop)
	}
	return nil
}

// RunBlocking runs block as a top-level job and blocks until it terminates,
// returning the stored outcome.
//
// An event loop is installed as the context dispatcher, so the body and any
// jobs it launches run on the calling goroutine, one at a time, in dispatch
// order. Join and Await calls made on this goroutine keep the loop turning
// while they wait. Blocking the goroutine any other way starves the loop:
// the best practice is not to block.
//
// RunBlocking must not be nested on one goroutine; doing so panics.
func RunBlocking[T any](ctx context.Context, block func(ctx context.Context) (T, error)) (T, error) {
	gid := goid.Get()
	if _, nested := blockingLoops.Load(gid); nested {
		panic("colite: nested RunBlocking on the same goroutine")
	}
	loop := newEventLoop()
	blockingLoops.Store(gid, loop)
	defer blockingLoops.Delete(gid)

	if ctx == nil {
		ctx = context.Background()
	}
	b := &blockingCoroutine[T]{}
	b.coroutine = newCoroutine[T](WithDispatcher(ctx, loop), b)
	b.onJobException = b.deliverException

	done := make(chan struct{})
	b.InvokeOnCompletion(func(Result[any]) { close(done) })
	startBody(b.coroutine, block)
	loop.run(done)

	var zero T
	st := b.state.Load()
	if st.err != nil {
		return zero, st.err
	}
	v, ok := st.value.(T)
	if !ok {
		return zero, ErrIllegalState
	}
	return v, nil
}

// blockingCoroutine is the job kind behind [RunBlocking]. Like the [Launch]
// kind, it is a top of a parent chain: an unhandled descendant failure is
// delivered to the context's [ExceptionHandler] or logged, never dropped.
type blockingCoroutine[T any] struct {
	*coroutine[T]
}
