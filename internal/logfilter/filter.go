// Package logfilter hides console noise produced when players click chat
// buttons: every click makes the host log "<name> issued server command:
// <command>", which floods the console for commands no human typed.
package logfilter

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
)

// Manager owns the set of suppressed command prefixes for the process. One
// Manager is shared by every handler built from it.
type Manager struct {
	mu       sync.RWMutex
	seen     map[string]struct{}
	patterns []*regexp.Regexp
}

// NewManager creates a Manager with no filters.
func NewManager() *Manager {
	return &Manager{seen: make(map[string]struct{})}
}

// AddFilterFor starts dropping log lines that echo commands beginning with
// command. It reports false if a filter for command was already installed.
func (m *Manager) AddFilterFor(command string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[command]; ok {
		return false
	}
	m.seen[command] = struct{}{}
	m.patterns = append(m.patterns, compile(command))
	return true
}

// Matches reports whether text echoes a suppressed command.
func (m *Manager) Matches(text string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Len returns the number of installed filters.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.patterns)
}

func compile(command string) *regexp.Regexp {
	return regexp.MustCompile(`^\S+ issued server command: ` + regexp.QuoteMeta(command) + `.*`)
}

// Handler wraps another slog.Handler and drops records whose message
// matches a filter of its Manager.
type Handler struct {
	next    slog.Handler
	manager *Manager
}

// NewHandler wraps next.
func NewHandler(next slog.Handler, m *Manager) *Handler {
	return &Handler{next: next, manager: m}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if h.manager.Matches(r.Message) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs), manager: h.manager}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), manager: h.manager}
}
