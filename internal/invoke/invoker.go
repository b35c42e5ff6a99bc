// Package invoke hands out single-use tokens for callbacks and fires a
// callback when its token comes back as a command.
package invoke

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Token identifies one pending callback.
type Token int64

// Mode selects where a fired callback runs.
type Mode int

const (
	Foreground Mode = iota
	Background
)

func (m Mode) String() string {
	if m == Background {
		return "background"
	}
	return "foreground"
}

// Scheduler runs fired callbacks.
type Scheduler interface {
	RunForeground(fn func())
	RunBackground(fn func())
}

// Descriptor is what a caller gets back from Register: the command that
// fires the callback when a player submits it.
type Descriptor struct {
	Command string
	Token   Token
	Mode    Mode
}

// Config configures an Invoker.
type Config struct {
	FallbackPrefix string // default "runnableinvoker"
	Namespace      string // usually the plugin name; default "chatgui"
	Root           string // default "run"

	// TokenSource overrides the random token generator.
	TokenSource func() Token

	Logger *slog.Logger
}

const (
	DefaultFallbackPrefix = "runnableinvoker"
	DefaultNamespace      = "chatgui"
	DefaultRoot           = "run"
)

// pendingInvocation is a registered callback waiting to be fired.
type pendingInvocation struct {
	fn   func()
	mode Mode
}

// Invoker owns the table of pending callbacks.
type Invoker struct {
	name        string
	prefix      string
	rootCommand string
	sched       Scheduler
	nextToken   func() Token
	logger      *slog.Logger

	pending map[Token]*pendingInvocation
	mu      sync.Mutex
}

// New creates an invoker that fires callbacks through sched.
func New(cfg Config, sched Scheduler) *Invoker {
	prefix := strings.ToLower(valueOr(cfg.FallbackPrefix, DefaultFallbackPrefix))
	name := strings.ToLower(valueOr(cfg.Namespace, DefaultNamespace) + ":" + valueOr(cfg.Root, DefaultRoot))

	next := cfg.TokenSource
	if next == nil {
		next = randomToken
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Invoker{
		name:        name,
		prefix:      prefix,
		rootCommand: "/" + prefix + ":" + name,
		sched:       sched,
		nextToken:   next,
		logger:      logger.With("component", "invoker"),
		pending:     make(map[Token]*pendingInvocation),
	}
}

// Name is the command label the host registers, e.g. "chatgui:run".
func (inv *Invoker) Name() string { return inv.name }

// FallbackPrefix is the namespace the host registers Name under.
func (inv *Invoker) FallbackPrefix() string { return inv.prefix }

// RootCommand is the fully qualified command every descriptor starts with,
// e.g. "/runnableinvoker:chatgui:run".
func (inv *Invoker) RootCommand() string { return inv.rootCommand }

// Register stores fn and returns the command that fires it.
func (inv *Invoker) Register(fn func(), mode Mode) Descriptor {
	inv.mu.Lock()
	var tok Token
	for {
		tok = inv.nextToken()
		if _, taken := inv.pending[tok]; !taken {
			break
		}
	}
	inv.pending[tok] = &pendingInvocation{fn: fn, mode: mode}
	n := len(inv.pending)
	inv.mu.Unlock()

	PendingInvocations.Set(float64(n))

	return Descriptor{
		Command: inv.commandString(tok, mode),
		Token:   tok,
		Mode:    mode,
	}
}

// Cancel drops the callback bound to tok. Cancelling an unknown, fired or
// already cancelled token is a no-op that returns false.
func (inv *Invoker) Cancel(tok Token) bool {
	inv.mu.Lock()
	_, ok := inv.pending[tok]
	delete(inv.pending, tok)
	n := len(inv.pending)
	inv.mu.Unlock()

	if ok {
		PendingInvocations.Set(float64(n))
		IncInvocation("cancelled")
	}
	return ok
}

// Invoke fires the callback bound to tok at most once. The callback runs on
// the background pool when mode is Background and on the foreground
// otherwise, regardless of the mode it was registered with. Invoke returns
// false if tok is not pending.
func (inv *Invoker) Invoke(tok Token, mode Mode) bool {
	inv.mu.Lock()
	pi, ok := inv.pending[tok]
	if ok {
		delete(inv.pending, tok)
	}
	n := len(inv.pending)
	inv.mu.Unlock()

	if !ok {
		IncInvocation("stale")
		inv.logger.Debug("ignoring stale token", "token", int64(tok))
		return false
	}

	PendingInvocations.Set(float64(n))
	IncInvocation("fired")

	if mode == Background {
		inv.sched.RunBackground(pi.fn)
	} else {
		inv.sched.RunForeground(pi.fn)
	}
	return true
}

// Pending reports whether tok is waiting to be fired.
func (inv *Invoker) Pending(tok Token) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	_, ok := inv.pending[tok]
	return ok
}

// Len returns the number of pending callbacks.
func (inv *Invoker) Len() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.pending)
}

func (inv *Invoker) commandString(tok Token, mode Mode) string {
	s := fmt.Sprintf("%s %d", inv.rootCommand, int64(tok))
	if mode == Background {
		s += " " + AsyncModifier
	}
	return s
}

func randomToken() Token {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("invoke: crypto/rand failed: " + err.Error())
	}
	return Token(binary.LittleEndian.Uint64(b[:]))
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
