package intercept

import (
	"context"
	"fmt"
	"sync"
)

// CancelledError is the outcome of an interception that ended without a
// message.
type CancelledError struct {
	Reason string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("chat interception cancelled: %s", e.Reason)
}

// Cancellation reasons used by this package and its callers.
const (
	ReasonSuperseded     = "superseded by new interception"
	ReasonDisconnected   = "player disconnected"
	ReasonSessionRevoked = "UI session has been revoked"
	ReasonInputCancelled = "input cancelled"
)

// Future is the single-assignment result of one interception request.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	text      string
	err       error
	callbacks []func(string, error)
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// complete settles the future. Only the first call has any effect.
func (f *Future) complete(text string, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.text, f.err = text, err
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(text, err)
	}
	return true
}

// Done is closed once the future is settled.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result returns the outcome. It is only meaningful after Done is closed;
// before that it returns ("", nil).
func (f *Future) Result() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.err
}

// Wait blocks until the future settles or ctx ends.
func (f *Future) Wait(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// OnComplete registers fn to run when the future settles. If it already
// has, fn runs immediately on the calling goroutine; otherwise it runs on
// the goroutine that settles it.
func (f *Future) OnComplete(fn func(text string, err error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	text, err := f.text, f.err
	f.mu.Unlock()
	fn(text, err)
}
