// Package intercept redirects a player's next chat line away from normal
// chat handling and into a waiting Future.
package intercept

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hako/durafmt"
	"github.com/rvald/chatgui/internal/chat"
)

// Config configures an Interceptor.
type Config struct {
	// Timeout cancels a request nobody answered. Zero leaves requests
	// pending until a message, a cancellation or a disconnect.
	Timeout time.Duration
	Logger  *slog.Logger
}

type request struct {
	future *Future
	timer  *time.Timer
}

// Interceptor tracks at most one pending request per player.
type Interceptor struct {
	timeout time.Duration
	logger  *slog.Logger

	pending map[chat.PlayerID]*request
	mu      sync.Mutex
}

// New creates an Interceptor.
func New(cfg Config) *Interceptor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		timeout: cfg.Timeout,
		logger:  logger.With("component", "interceptor"),
		pending: make(map[chat.PlayerID]*request),
	}
}

// Request intercepts the next chat line from player. A request already
// pending for the player is cancelled first.
func (ic *Interceptor) Request(player chat.PlayerID) *Future {
	ic.Cancel(player, ReasonSuperseded)

	req := &request{future: newFuture()}

	ic.mu.Lock()
	// Another Request may have slipped in between Cancel and here.
	prev := ic.pending[player]
	ic.pending[player] = req
	if ic.timeout > 0 {
		req.timer = time.AfterFunc(ic.timeout, func() { ic.expire(player, req) })
	}
	ic.mu.Unlock()

	if prev != nil {
		ic.settle(player, prev, "", &CancelledError{Reason: ReasonSuperseded})
	}
	return req.future
}

// Deliver offers a chat line from player. It returns true when the line
// resolved a pending request, in which case the host must not show the
// line to anyone else.
func (ic *Interceptor) Deliver(player chat.PlayerID, text string) bool {
	req := ic.take(player)
	if req == nil {
		return false
	}
	ic.settle(player, req, text, nil)
	return true
}

// Cancel fails the pending request of player with reason. It returns false
// if nothing was pending.
func (ic *Interceptor) Cancel(player chat.PlayerID, reason string) bool {
	req := ic.take(player)
	if req == nil {
		return false
	}
	ic.settle(player, req, "", &CancelledError{Reason: reason})
	return true
}

// Disconnect cancels any pending request of a departing player.
func (ic *Interceptor) Disconnect(player chat.PlayerID) {
	ic.Cancel(player, ReasonDisconnected)
}

// Pending reports whether player has a request outstanding.
func (ic *Interceptor) Pending(player chat.PlayerID) bool {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	_, ok := ic.pending[player]
	return ok
}

func (ic *Interceptor) take(player chat.PlayerID) *request {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	req, ok := ic.pending[player]
	if !ok {
		return nil
	}
	delete(ic.pending, player)
	return req
}

// expire cancels req only if it is still the player's current request.
func (ic *Interceptor) expire(player chat.PlayerID, req *request) {
	ic.mu.Lock()
	if ic.pending[player] != req {
		ic.mu.Unlock()
		return
	}
	delete(ic.pending, player)
	ic.mu.Unlock()

	reason := "no response within " + durafmt.Parse(ic.timeout).LimitFirstN(2).String()
	ic.settle(player, req, "", &CancelledError{Reason: reason})
}

// settle completes req outside the lock so continuations may issue new
// requests.
func (ic *Interceptor) settle(player chat.PlayerID, req *request, text string, err error) {
	if req.timer != nil {
		req.timer.Stop()
	}
	if !req.future.complete(text, err) {
		return
	}
	if err != nil {
		IncInterception("cancelled")
		ic.logger.Debug("interception cancelled", "player", player, "error", err)
		return
	}
	IncInterception("resolved")
}
