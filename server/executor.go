package server

import (
	"context"
	"time"
)

// Executor runs the server loop in a separate execution context.
// An Executor is used for one Launch.
type Executor interface {
	// Launch runs fn in the background. The context passed to fn is
	// cancelled by Terminate.
	Launch(fn func(ctx context.Context) error)
	// Done is closed once fn has returned.
	Done() <-chan struct{}
	// Join waits up to timeout for fn to return and reports whether it did,
	// together with its error. A non-positive timeout does not wait.
	Join(timeout time.Duration) (exited bool, err error)
	// Terminate asks fn to stop at once by cancelling its context.
	Terminate()
}

// NewExecutor returns the default Executor, which runs fn on a goroutine.
func NewExecutor() Executor {
	return &goroutineExecutor{done: make(chan struct{})}
}

type goroutineExecutor struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (e *goroutineExecutor) Launch(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	go func() {
		defer close(e.done)
		defer cancel()
		e.err = fn(ctx)
	}()
}

func (e *goroutineExecutor) Done() <-chan struct{} { return e.done }

func (e *goroutineExecutor) Join(timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		select {
		case <-e.done:
			return true, e.err
		default:
			return false, nil
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-e.done:
		return true, e.err
	case <-timer.C:
		return false, nil
	}
}

func (e *goroutineExecutor) Terminate() {
	if e.cancel != nil {
		e.cancel()
	}
}
