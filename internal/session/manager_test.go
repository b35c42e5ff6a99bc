package session

import (
	"testing"

	"github.com/rvald/chatgui/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	player   chat.PlayerID
	revoked  int
	onRevoke func()
}

func (f *fakeSession) Player() chat.PlayerID { return f.player }

func (f *fakeSession) RevokeSession() {
	f.revoked++
	if f.onRevoke != nil {
		f.onRevoke()
	}
}

func TestManager_RegisterReplacesAndRevokes(t *testing.T) {
	m := NewManager()
	first := &fakeSession{player: "alice"}
	second := &fakeSession{player: "alice"}

	m.Register(first)
	assert.Equal(t, 0, first.revoked)

	var currentDuringRevoke Session
	first.onRevoke = func() {
		currentDuringRevoke = m.byPlayer["alice"]
	}
	m.Register(second)

	assert.Equal(t, 1, first.revoked)
	assert.Equal(t, 0, second.revoked)
	assert.Same(t, first, currentDuringRevoke, "previous session is revoked before the new one is recorded")

	cur, ok := m.Current("alice")
	require.True(t, ok)
	assert.Same(t, second, cur)
	assert.Equal(t, 1, m.Len())
}

func TestManager_RegisterSameSessionTwice(t *testing.T) {
	m := NewManager()
	s := &fakeSession{player: "alice"}
	m.Register(s)
	m.Register(s)
	assert.Equal(t, 0, s.revoked)
}

func TestManager_PlayersIndependent(t *testing.T) {
	m := NewManager()
	a := &fakeSession{player: "alice"}
	b := &fakeSession{player: "bob"}
	m.Register(a)
	m.Register(b)

	assert.Equal(t, 0, a.revoked)
	assert.Equal(t, 2, m.Len())
}

func TestManager_Forget(t *testing.T) {
	m := NewManager()
	s := &fakeSession{player: "alice"}
	m.Register(s)

	assert.True(t, m.Forget("alice"))
	assert.Equal(t, 1, s.revoked)
	assert.False(t, m.Forget("alice"))

	_, ok := m.Current("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestManager_RevokeMayReenter(t *testing.T) {
	m := NewManager()
	first := &fakeSession{player: "alice"}
	m.Register(first)

	fallback := &fakeSession{player: "bob"}
	first.onRevoke = func() {
		m.Register(fallback)
		_, ok := m.Current("alice")
		assert.True(t, ok)
	}
	m.Register(&fakeSession{player: "alice"})
	assert.Equal(t, 2, m.Len())

	first.onRevoke = nil
	gone := &fakeSession{player: "carol"}
	gone.onRevoke = func() { m.Forget("bob") }
	m.Register(gone)
	assert.True(t, m.Forget("carol"))
	assert.Equal(t, 1, gone.revoked)
	assert.Equal(t, 1, fallback.revoked)
	assert.Equal(t, 1, m.Len())
}
