package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// BackgroundDispatcher runs best-effort jobs on their own goroutine with an
// isolated error boundary: panics and errors are logged and never reach the
// caller. Jobs get a fresh context so request cancellation cannot abort work
// that belongs to an already-committed transaction.
type BackgroundDispatcher struct {
	logger  Logger
	timeout time.Duration
	wg      sync.WaitGroup

	// synchronous makes Dispatch block until the job returns, used in tests.
	synchronous bool
}

// DispatcherOption customises dispatcher behaviour.
type DispatcherOption func(*BackgroundDispatcher)

// WithSynchronousDispatch makes Dispatch run jobs inline.
func WithSynchronousDispatch() DispatcherOption {
	return func(d *BackgroundDispatcher) {
		d.synchronous = true
	}
}

// WithJobTimeout bounds each job's execution time.
func WithJobTimeout(timeout time.Duration) DispatcherOption {
	return func(d *BackgroundDispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewBackgroundDispatcher constructs a dispatcher, defaulting to asynchronous
// execution with a 30 second per-job timeout.
func NewBackgroundDispatcher(logger Logger, opts ...DispatcherOption) *BackgroundDispatcher {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	d := &BackgroundDispatcher{
		logger:  logger,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Dispatch implements JobDispatcher.
func (d *BackgroundDispatcher) Dispatch(_ context.Context, name string, job func(ctx context.Context) error) {
	if job == nil {
		return
	}
	run := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.runGuarded(jobCtx, job); err != nil {
			d.logger(jobCtx, "dispatcher.job.failed", map[string]any{
				"job":   name,
				"error": err.Error(),
			})
		}
	}

	if d.synchronous {
		run()
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		run()
	}()
}

// Wait blocks until all dispatched jobs have finished.
func (d *BackgroundDispatcher) Wait() {
	d.wg.Wait()
}

func (d *BackgroundDispatcher) runGuarded(ctx context.Context, job func(ctx context.Context) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.Join(err, fmt.Errorf("job panicked: %v", recovered))
		}
	}()
	return job(ctx)
}
