package activity

import (
	"context"
	"sync"
)

// Status is the outcome recorded in a Result.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Result is the terminal outcome of an activity instance.
// Exactly one of Value, Reason or Err is meaningful, selected by Status.
type Result struct {
	Status Status
	Value  any
	Reason string
	Err    error
}

// IsSuccess returns true if the activity completed.
func (r Result) IsSuccess() bool {
	return r.Status == StatusCompleted
}

// Future is a single-settlement asynchronous Result.
type Future struct {
	once   sync.Once
	done   chan struct{}
	result Result
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// settle records r and wakes all waiters. Later calls are ignored.
func (f *Future) settle(r Result) {
	f.once.Do(func() {
		f.result = r
		close(f.done)
	})
}

// Done returns a channel that is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the settled result, or false if the future is still pending.
func (f *Future) Result() (Result, bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return Result{}, false
	}
}

// Await blocks until the future settles or ctx is done.
//
// A failed activity rejects: the Result is returned together with its Err.
// Completed and cancelled activities resolve with a nil error. If ctx ends
// first, the context error is returned with a zero Result.
func (f *Future) Await(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		if f.result.Status == StatusFailed {
			return f.result, f.result.Err
		}
		return f.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
