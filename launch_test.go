package colite_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	colite "github.com/XDwanj/CoroutineLite"
)

func TestLaunch(t *testing.T) {
	t.Run("CompletesNormally", func(t *testing.T) {
		ran := make(chan struct{})
		job := colite.Launch(context.Background(), func(ctx context.Context) error {
			close(ran)
			return nil
		})

		if err := job.Join(context.Background()); err != nil {
			t.Fatalf("Join returned %v, want nil", err)
		}
		<-ran
		if !job.IsCompleted() {
			t.Error("job is not completed after Join")
		}
	})

	t.Run("DeliversToExceptionHandler", func(t *testing.T) {
		boom := errors.New("boom")
		errc := make(chan error, 1)
		ctx := colite.WithExceptionHandler(context.Background(), func(ctx context.Context, err error) {
			errc <- err
		})

		job := colite.Launch(ctx, func(ctx context.Context) error { return boom })
		_ = job.Join(context.Background())

		select {
		case err := <-errc:
			if !errors.Is(err, boom) {
				t.Errorf("handler received %v, want boom", err)
			}
		default:
			t.Error("exception handler was not consulted")
		}
	})

	t.Run("BodyObservesCancellation", func(t *testing.T) {
		started := make(chan struct{})
		job := colite.Launch(context.Background(), func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})

		<-started
		job.Cancel()
		_ = job.Join(context.Background())

		if !job.IsCompleted() {
			t.Error("cancelled job did not terminate")
		}
	})
}

func TestAsync(t *testing.T) {
	t.Run("AwaitValue", func(t *testing.T) {
		d := colite.Async(context.Background(), func(ctx context.Context) (int, error) {
			return 6 * 7, nil
		})

		v, err := d.Await(context.Background())
		if err != nil {
			t.Fatalf("Await returned error %v", err)
		}
		if v != 42 {
			t.Errorf("Await returned %d, want 42", v)
		}
	})

	t.Run("AwaitError", func(t *testing.T) {
		boom := errors.New("boom")
		d := colite.Async(context.Background(), func(ctx context.Context) (int, error) {
			return 0, boom
		})

		if _, err := d.Await(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Await returned %v, want boom", err)
		}
	})

	t.Run("GoexitBecomesFailure", func(t *testing.T) {
		// A body that never returns because its goroutine exits (the way
		// testing.T.FailNow does) must still terminate the job instead of
		// leaving every observer hanging.
		d := colite.Async(context.Background(), func(ctx context.Context) (int, error) {
			runtime.Goexit()
			return 1, nil
		})

		if _, err := d.Await(context.Background()); !errors.Is(err, colite.ErrGoexit) {
			t.Errorf("Await returned %v, want ErrGoexit", err)
		}
	})

	t.Run("PanicBecomesFailure", func(t *testing.T) {
		d := colite.Async(context.Background(), func(ctx context.Context) (int, error) {
			panic("kaboom")
		})

		_, err := d.Await(context.Background())
		var pe *colite.PanicError
		if !errors.As(err, &pe) {
			t.Fatalf("Await returned %v, want a PanicError", err)
		}
		if pe.Value() != "kaboom" {
			t.Errorf("PanicError value = %v, want kaboom", pe.Value())
		}
	})

	t.Run("CancelledAwaitSeesCancellation", func(t *testing.T) {
		started := make(chan struct{})
		d := colite.Async(context.Background(), func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 99, nil // a late normal result must not mask cancellation
		})

		<-started
		d.Cancel()

		if _, err := d.Await(context.Background()); !colite.IsCancellation(err) {
			t.Errorf("Await returned %v, want a cancellation error", err)
		}
	})
}

func TestExceptionPropagation(t *testing.T) {
	t.Run("ChildFailureCancelsParent", func(t *testing.T) {
		boom := errors.New("boom")
		errc := make(chan error, 1)
		ctx := colite.WithExceptionHandler(context.Background(), func(ctx context.Context, err error) {
			errc <- err
		})

		parent := colite.Launch(ctx, func(ctx context.Context) error {
			colite.Async(ctx, func(ctx context.Context) (int, error) {
				return 0, boom
			})
			<-ctx.Done()
			return ctx.Err()
		})

		_ = parent.Join(context.Background())

		if !parent.IsCompleted() {
			t.Fatal("parent did not terminate after child failure")
		}
		select {
		case err := <-errc:
			if !errors.Is(err, boom) {
				t.Errorf("handler received %v, want the child's boom", err)
			}
		case <-time.After(time.Second):
			t.Error("child failure never reached the exception handler")
		}
	})

	t.Run("CancellationIsNotPropagated", func(t *testing.T) {
		errc := make(chan error, 1)
		ctx := colite.WithExceptionHandler(context.Background(), func(ctx context.Context, err error) {
			errc <- err
		})

		parent := colite.Launch(ctx, func(ctx context.Context) error {
			d := colite.Async(ctx, func(ctx context.Context) (int, error) {
				<-ctx.Done()
				return 0, ctx.Err()
			})
			d.Cancel()
			_, _ = d.Await(ctx)
			return nil
		})

		if err := parent.Join(context.Background()); err != nil {
			t.Fatalf("Join returned %v, want nil", err)
		}
		select {
		case err := <-errc:
			t.Errorf("cancellation leaked to the exception handler: %v", err)
		default:
		}
	})
}
