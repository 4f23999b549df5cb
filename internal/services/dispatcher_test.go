package services

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestDispatcherRunsJobs(t *testing.T) {
	dispatcher := NewBackgroundDispatcher(nil)

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		dispatcher.Dispatch(context.Background(), "count", func(context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
	}
	dispatcher.Wait()

	if ran != 5 {
		t.Errorf("ran = %d, want 5", ran)
	}
}

func TestDispatcherLogsFailures(t *testing.T) {
	var mu sync.Mutex
	var events []string
	logger := func(_ context.Context, event string, _ map[string]any) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	}

	dispatcher := NewBackgroundDispatcher(logger, WithSynchronousDispatch())
	dispatcher.Dispatch(context.Background(), "boom", func(context.Context) error {
		return errors.New("boom")
	})

	if len(events) != 1 || events[0] != "dispatcher.job.failed" {
		t.Errorf("events = %v, want one dispatcher.job.failed", events)
	}
}

func TestDispatcherRecoversPanics(t *testing.T) {
	var mu sync.Mutex
	failures := 0
	logger := func(_ context.Context, event string, _ map[string]any) {
		mu.Lock()
		if event == "dispatcher.job.failed" {
			failures++
		}
		mu.Unlock()
	}

	dispatcher := NewBackgroundDispatcher(logger, WithSynchronousDispatch())
	dispatcher.Dispatch(context.Background(), "panic", func(context.Context) error {
		panic("kaboom")
	})

	if failures != 1 {
		t.Errorf("panicking job should be logged as failed, got %d events", failures)
	}
}

func TestDispatcherJobGetsFreshContext(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	dispatcher := NewBackgroundDispatcher(nil, WithSynchronousDispatch())

	var jobErr error
	dispatcher.Dispatch(cancelled, "detached", func(ctx context.Context) error {
		jobErr = ctx.Err()
		return nil
	})

	// The caller's cancellation must not leak into the job.
	if jobErr != nil {
		t.Errorf("job context error = %v, want nil", jobErr)
	}
}

func TestDispatcherIgnoresNilJob(t *testing.T) {
	dispatcher := NewBackgroundDispatcher(nil, WithSynchronousDispatch())
	dispatcher.Dispatch(context.Background(), "noop", nil)
	dispatcher.Wait()
}
