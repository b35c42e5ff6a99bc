// Package session keeps at most one live interface per player.
package session

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rvald/chatgui/internal/chat"
)

// ActiveSessions tracks the number of players holding a live session.
var ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "chatgui_active_sessions",
	Help: "Players with a registered interface session",
})

// Session is an interface instance bound to one player.
type Session interface {
	Player() chat.PlayerID
	RevokeSession()
}

// Manager maps each player to their current session.
type Manager struct {
	byPlayer map[chat.PlayerID]Session
	mu       sync.Mutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{byPlayer: make(map[chat.PlayerID]Session)}
}

// Register makes s the current session of its player. The previous session,
// if any, is revoked before s is recorded, so two sessions of one player are
// never valid at the same time.
//
// RevokeSession runs without the manager locked, so revocation callbacks may
// open new interfaces. Register is called from the owner loop.
func (m *Manager) Register(s Session) {
	player := s.Player()
	m.mu.Lock()
	old, ok := m.byPlayer[player]
	m.mu.Unlock()
	if ok && old != s {
		old.RevokeSession()
	}

	m.mu.Lock()
	m.byPlayer[player] = s
	ActiveSessions.Set(float64(len(m.byPlayer)))
	m.mu.Unlock()
}

// Current returns the session registered for player.
func (m *Manager) Current(player chat.PlayerID) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byPlayer[player]
	return s, ok
}

// Forget revokes and drops the session of a departing player.
func (m *Manager) Forget(player chat.PlayerID) bool {
	m.mu.Lock()
	s, ok := m.byPlayer[player]
	if ok {
		delete(m.byPlayer, player)
		ActiveSessions.Set(float64(len(m.byPlayer)))
	}
	m.mu.Unlock()

	if ok {
		s.RevokeSession()
	}
	return ok
}

// Len returns the number of players with a session.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byPlayer)
}
