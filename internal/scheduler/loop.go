// Package scheduler runs work either on a single owner goroutine (the
// foreground) or on a bounded background pool.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/remeh/sizedwaitgroup"
)

// ErrStopped is returned by Call once the loop has stopped.
var ErrStopped = errors.New("scheduler: loop stopped")

// Config configures a Loop.
type Config struct {
	Workers int // background pool size; <= 0 means runtime.NumCPU()
	Logger  *slog.Logger
}

// Loop owns the foreground goroutine. Everything posted with RunForeground
// or Call runs on it, one item at a time, in submission order.
type Loop struct {
	logger *slog.Logger
	pool   sizedwaitgroup.SizedWaitGroup

	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}

	inflight sync.WaitGroup
	done     chan struct{}
}

// New creates a loop. Nothing runs in the foreground until Run is called.
func New(cfg Config) *Loop {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger.With("component", "scheduler"),
		pool:   sizedwaitgroup.New(workers),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Run drains foreground work until ctx is cancelled, then waits for
// background work to finish. Work still queued at shutdown is dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.safeRun("foreground", fn)
		}

		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			dropped := len(l.queue)
			l.queue = nil
			l.mu.Unlock()
			if dropped > 0 {
				l.logger.Warn("dropping queued foreground work", "count", dropped)
			}
			l.Wait()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// RunForeground queues fn for the owner goroutine. It never blocks, so it is
// safe to call from foreground work itself.
func (l *Loop) RunForeground(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.logger.Debug("foreground work submitted after stop")
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RunBackground runs fn on the pool. The caller never waits for a free worker.
// Work submitted after the loop stopped is dropped.
func (l *Loop) RunBackground(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.logger.Debug("background work submitted after stop")
		return
	}
	l.inflight.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.inflight.Done()
		l.pool.Add()
		defer l.pool.Done()
		l.safeRun("background", fn)
	}()
}

// Call runs fn on the owner goroutine and waits for it to return. It must
// not be called from foreground work.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped {
		return ErrStopped
	}

	finished := make(chan struct{})
	l.RunForeground(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until all background work submitted so far has finished.
func (l *Loop) Wait() {
	l.inflight.Wait()
	l.pool.Wait()
}

// safeRun keeps a panicking callback from taking the host down with it.
func (l *Loop) safeRun(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("scheduled work panicked",
				"kind", kind,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Inline runs all work immediately on the calling goroutine. It is meant
// for tests and for hosts that already serialize events.
type Inline struct{}

func (Inline) RunForeground(fn func()) { fn() }
func (Inline) RunBackground(fn func()) { fn() }
