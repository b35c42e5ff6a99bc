// Package app runs chat interfaces for connected players. Player events
// from any host bridge are posted onto one owner loop, so interface code
// never needs to think about concurrent clicks and chat lines.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rvald/chatgui/internal/chat"
	"github.com/rvald/chatgui/internal/chatui"
	"github.com/rvald/chatgui/internal/intercept"
	"github.com/rvald/chatgui/internal/invoke"
	"github.com/rvald/chatgui/internal/logfilter"
	"github.com/rvald/chatgui/internal/scheduler"
	"github.com/rvald/chatgui/internal/session"
)

// Config configures a Runtime.
type Config struct {
	Invoker      invoke.Config
	InputTimeout time.Duration
	Workers      int
	Theme        chatui.Theme
	// Filters, when set, hides log echoes of button clicks.
	Filters *logfilter.Manager
	Logger  *slog.Logger
}

type profile struct {
	name     string
	nickname string
	joined   time.Time
}

// Runtime owns the loop, the invoker, the interceptor and the session
// manager, and implements the Host interface of every bridge.
type Runtime struct {
	loop        *scheduler.Loop
	invoker     *invoke.Invoker
	interceptor *intercept.Interceptor
	sessions    *session.Manager
	commands    *Commands
	toolkit     *chatui.Toolkit
	logger      *slog.Logger

	mu      sync.Mutex
	players map[chat.PlayerID]*profile
}

// New creates a runtime that renders through transport.
func New(cfg Config, transport chat.Transport) (*Runtime, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	loop := scheduler.New(scheduler.Config{Workers: cfg.Workers, Logger: logger})
	commands := NewCommands()

	var suppressor invoke.Suppressor
	if cfg.Filters != nil {
		suppressor = cfg.Filters
	}
	invCfg := cfg.Invoker
	if invCfg.Logger == nil {
		invCfg.Logger = logger
	}
	inv, err := invoke.NewRegistered(invCfg, loop, commands, suppressor)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		loop:        loop,
		invoker:     inv,
		interceptor: intercept.New(intercept.Config{Timeout: cfg.InputTimeout, Logger: logger}),
		sessions:    session.NewManager(),
		commands:    commands,
		logger:      logger.With("component", "runtime"),
		players:     make(map[chat.PlayerID]*profile),
	}
	r.toolkit = &chatui.Toolkit{
		Registry:    inv,
		Interceptor: r.interceptor,
		Sessions:    r.sessions,
		Transport:   transport,
		Theme:       cfg.Theme,
		Logger:      logger,
	}
	return r, nil
}

// Run drives the owner loop until ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("runtime started", "command", r.invoker.RootCommand())
	return r.loop.Run(ctx)
}

// RootCommand is the command prefix every button submits.
func (r *Runtime) RootCommand() string { return r.invoker.RootCommand() }

// Toolkit returns the toolkit interfaces are built from.
func (r *Runtime) Toolkit() *chatui.Toolkit { return r.toolkit }

// Sessions returns the session manager.
func (r *Runtime) Sessions() *session.Manager { return r.sessions }

// OnJoin records the player and opens the main menu.
func (r *Runtime) OnJoin(player chat.PlayerID, name string) {
	r.loop.RunForeground(func() {
		r.mu.Lock()
		if p, ok := r.players[player]; ok {
			p.name = name
		} else {
			r.players[player] = &profile{name: name, joined: time.Now()}
		}
		r.mu.Unlock()
		r.OpenMenu(player)
	})
}

// OnChat hands the line to a waiting input prompt. It reports whether the
// line was consumed.
func (r *Runtime) OnChat(player chat.PlayerID, text string) bool {
	var consumed bool
	if err := r.loop.Call(context.Background(), func() {
		consumed = r.interceptor.Deliver(player, text)
	}); err != nil {
		return false
	}
	return consumed
}

// OnCommand runs a submitted command line. Button clicks fire their
// callback on the loop after OnCommand returns.
func (r *Runtime) OnCommand(player chat.PlayerID, line string) bool {
	// Hosts echo every command; button clicks are dropped by the log filter.
	r.logger.Info(fmt.Sprintf("%s issued server command: %s", echoName(r.DisplayName(player)), line))

	var handled bool
	if err := r.loop.Call(context.Background(), func() {
		if strings.EqualFold(strings.TrimSpace(line), MenuCommand) {
			r.OpenMenu(player)
			handled = true
			return
		}
		handled = r.commands.Handle(line)
	}); err != nil {
		return false
	}
	return handled
}

// OnQuit drops the player's prompt and session.
func (r *Runtime) OnQuit(player chat.PlayerID) {
	r.loop.RunForeground(func() {
		r.interceptor.Disconnect(player)
		r.sessions.Forget(player)
		r.mu.Lock()
		delete(r.players, player)
		r.mu.Unlock()
	})
}

// DisplayName returns the nickname of player, then the name it joined
// with, then its ID.
func (r *Runtime) DisplayName(player chat.PlayerID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[player]
	switch {
	case !ok:
		return string(player)
	case p.nickname != "":
		return p.nickname
	case p.name != "":
		return p.name
	default:
		return string(player)
	}
}

// echoName turns a display name into the single word command echoes start
// with.
func echoName(name string) string {
	if name = strings.Join(strings.Fields(name), "_"); name == "" {
		return "unknown"
	}
	return name
}

func (r *Runtime) nickname(player chat.PlayerID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[player]; ok {
		return p.nickname
	}
	return ""
}

func (r *Runtime) setNickname(player chat.PlayerID, nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[player]; ok {
		p.nickname = nick
	}
}

type onlinePlayer struct {
	name   string
	joined time.Time
}

// online returns a snapshot of joined players sorted by display name.
func (r *Runtime) online() []onlinePlayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]onlinePlayer, 0, len(r.players))
	for id, p := range r.players {
		name := p.nickname
		if name == "" {
			name = p.name
		}
		if name == "" {
			name = string(id)
		}
		out = append(out, onlinePlayer{name: name, joined: p.joined})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Online returns the display names of joined players, sorted.
func (r *Runtime) Online() []string {
	players := r.online()
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.name
	}
	return names
}
