package chatui

import (
	"fmt"
	"testing"

	"github.com/rvald/chatgui/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageBounds(t *testing.T) {
	tests := []struct {
		name                string
		total, per, req     int
		wantIndex, wantLast int
	}{
		{"empty list", 0, 5, 0, 0, 0},
		{"exact multiple has no empty page", 10, 5, 1, 1, 1},
		{"past the end clamps", 11, 5, 9, 2, 2},
		{"negative clamps", 3, 2, -4, 0, 1},
		{"zero per page treated as one", 3, 0, 1, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, last := pageBounds(tt.total, tt.per, tt.req)
			assert.Equal(t, tt.wantIndex, idx)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func entries(n int) func() []chat.Message {
	return func() []chat.Message {
		out := make([]chat.Message, n)
		for i := range out {
			out[i] = chat.Text(fmt.Sprintf("entry %d", i+1))
		}
		return out
	}
}

func TestPage_ClampsAndNavigates(t *testing.T) {
	f := newFixture()
	theme := DefaultTheme()
	src := PageSource{Heading: chat.Text("Players\n"), Entries: entries(5), PerPage: 2}

	first := f.tk.NewPage(alice, src, 99)
	first.Open()

	last := f.out.last(t)
	plain := last.Plain()
	assert.Contains(t, plain, "entry 5")
	assert.NotContains(t, plain, "entry 4")
	assert.Contains(t, plain, "page 3 of 3")
	assert.Contains(t, plain, "(5 entries)")
	assert.Contains(t, plain, theme.NextInactive)

	prev := commandFor(t, last, theme.PrevButton)
	require.True(t, f.inv.HandleLine(prev))

	assert.False(t, first.Valid(), "moving pages replaces the session")
	cur, ok := f.sessions.Current(alice)
	require.True(t, ok)
	assert.NotSame(t, first, cur)

	plain = f.out.last(t).Plain()
	assert.Contains(t, plain, "entry 3")
	assert.Contains(t, plain, "entry 4")
	assert.Contains(t, plain, "page 2 of 3")
	commandFor(t, f.out.last(t), theme.NextButton)
}

func TestPage_EmptyList(t *testing.T) {
	f := newFixture()
	theme := DefaultTheme()
	f.tk.NewPage(alice, PageSource{PerPage: 3}, 0).Send()

	msg := f.out.last(t)
	assert.Contains(t, msg.Plain(), "page 1 of 1")
	assert.Contains(t, msg.Plain(), theme.PrevInactive)
	assert.Empty(t, msg.Commands())
}
