// Package chatui builds per-player chat interfaces out of clickable buttons,
// input forms and browseable pages.
//
// Every button is a one-shot callback registered with an invocation
// registry. An Interface remembers which tokens it handed out so that
// revoking it makes every button it ever rendered inert.
package chatui

import (
	"log/slog"
	"sync"

	"github.com/rvald/chatgui/internal/bimap"
	"github.com/rvald/chatgui/internal/chat"
	"github.com/rvald/chatgui/internal/intercept"
	"github.com/rvald/chatgui/internal/invoke"
	"github.com/rvald/chatgui/internal/session"
)

// Registry issues and cancels one-shot callbacks.
type Registry interface {
	Register(fn func(), mode invoke.Mode) invoke.Descriptor
	Cancel(tok invoke.Token) bool
}

// Interceptor hands out the next chat line of a player.
type Interceptor interface {
	Request(player chat.PlayerID) *intercept.Future
	Cancel(player chat.PlayerID, reason string) bool
}

// Sessions tracks the current interface of each player.
type Sessions interface {
	Register(s session.Session)
}

// Button is a clickable label. Buttons are compared by pointer; two buttons
// with the same label are different buttons.
type Button struct {
	Label   string
	Tooltip string
	Command string // empty for an inert button
}

// Segment renders the button as a chat segment.
func (b *Button) Segment() chat.Segment {
	return chat.Segment{Text: b.Label, Command: b.Command, Hover: b.Tooltip}
}

// RenderFunc builds the body of an interface. It runs on every Send and
// usually issues fresh buttons through ui.
type RenderFunc func(ui *Interface) chat.Message

// Toolkit bundles the collaborators every Interface needs.
type Toolkit struct {
	Registry    Registry
	Interceptor Interceptor
	Sessions    Sessions
	Transport   chat.Transport
	Theme       Theme
	Logger      *slog.Logger
}

// Interface is one clickable chat interface shown to one player.
type Interface struct {
	tk     *Toolkit
	theme  Theme
	player chat.PlayerID
	render RenderFunc
	logger *slog.Logger

	mu          sync.Mutex
	valid       bool
	buttons     *bimap.Map[*Button, invoke.Token]
	cancelInput *Button
}

// New creates a valid interface for player. It is not shown or registered
// until Open.
func (tk *Toolkit) New(player chat.PlayerID, render RenderFunc) *Interface {
	theme := tk.Theme
	if theme.isZero() {
		theme = DefaultTheme()
	}
	logger := tk.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interface{
		tk:      tk,
		theme:   theme,
		player:  player,
		render:  render,
		logger:  logger.With("component", "chatui", "player", player),
		valid:   true,
		buttons: bimap.New[*Button, invoke.Token](),
	}
}

// Player returns the player the interface belongs to.
func (ui *Interface) Player() chat.PlayerID { return ui.player }

// Theme returns the theme the interface renders with.
func (ui *Interface) Theme() Theme { return ui.theme }

// Toolkit returns the toolkit the interface was created from.
func (ui *Interface) Toolkit() *Toolkit { return ui.tk }

// Valid reports whether the session has not been revoked.
func (ui *Interface) Valid() bool {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.valid
}

// IssueButton returns a button that runs fn on the owner loop when clicked.
func (ui *Interface) IssueButton(fn func(), label, tooltip string) *Button {
	return ui.issue(fn, invoke.Foreground, label, tooltip)
}

// IssueBackgroundButton returns a button that runs fn on the background
// pool when clicked.
func (ui *Interface) IssueBackgroundButton(fn func(), label, tooltip string) *Button {
	return ui.issue(fn, invoke.Background, label, tooltip)
}

func (ui *Interface) issue(fn func(), mode invoke.Mode, label, tooltip string) *Button {
	b := &Button{Label: label, Tooltip: tooltip}

	ui.mu.Lock()
	defer ui.mu.Unlock()
	if !ui.valid {
		return b
	}
	d := ui.tk.Registry.Register(fn, mode)
	b.Command = d.Command
	ui.buttons.MustPut(b, d.Token)
	return b
}

// RevokeButton makes b inert. Unknown buttons are ignored.
func (ui *Interface) RevokeButton(b *Button) {
	if b == nil {
		return
	}
	ui.mu.Lock()
	defer ui.mu.Unlock()
	tok, ok := ui.buttons.Get(b)
	if !ok {
		return
	}
	ui.tk.Registry.Cancel(tok)
	ui.buttons.RemoveKey(b)
}

// RevokeAllButtons makes every button issued so far inert.
func (ui *Interface) RevokeAllButtons() {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.revokeAllLocked()
}

func (ui *Interface) revokeAllLocked() {
	for _, tok := range ui.buttons.Values() {
		ui.tk.Registry.Cancel(tok)
	}
	ui.buttons.Clear()
}

// RevokeSession invalidates the interface: its buttons stop working, no new
// ones can be issued and any input prompt it started is cancelled.
func (ui *Interface) RevokeSession() {
	ui.mu.Lock()
	ui.valid = false
	ui.revokeAllLocked()
	ui.cancelInput = nil
	ui.mu.Unlock()

	ui.tk.Interceptor.Cancel(ui.player, intercept.ReasonSessionRevoked)
}

// CancelAction revokes a valid interface and tells the player why.
func (ui *Interface) CancelAction(message string) {
	if !ui.Valid() {
		return
	}
	ui.RevokeSession()
	ui.tk.Transport.Send(ui.player, chat.Text(message))
}

// Send renders the interface and sends it to the player.
func (ui *Interface) Send() {
	var msg chat.Message
	if ui.theme.Header != "" {
		msg.AddLineText(ui.theme.Header)
	}
	msg.Concat(ui.render(ui))
	if ui.theme.Footer != "" {
		msg.AddText(ui.theme.Footer)
	}
	ui.tk.Transport.Send(ui.player, msg)
}

// Open makes the interface the player's current session and sends it.
func (ui *Interface) Open() {
	ui.tk.Sessions.Register(ui)
	ui.Send()
}

// Buttons returns the number of live buttons.
func (ui *Interface) Buttons() int {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.buttons.Len()
}
