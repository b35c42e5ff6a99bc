package app

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/rvald/chatgui/internal/chat"
	"github.com/rvald/chatgui/internal/chatui"
)

// MenuCommand reopens the main menu.
const MenuCommand = "/menu"

const playersPerPage = 8

var nicknamePattern = regexp.MustCompile(`^\w{3,16}$`)

// ValidNickname accepts 3 to 16 letters, digits or underscores.
func ValidNickname(s string) bool { return nicknamePattern.MatchString(s) }

// OpenMenu shows the main menu to player, replacing whatever interface the
// player had open.
func (r *Runtime) OpenMenu(player chat.PlayerID) {
	r.toolkit.New(player, r.renderMenu).Open()
}

func (r *Runtime) renderMenu(ui *chatui.Interface) chat.Message {
	player := ui.Player()

	var m chat.Message
	m.AddLineText(fmt.Sprintf("Welcome, %s!", r.DisplayName(player)))
	m.Concat(ui.Form("Nickname", r.nickname(player), ValidNickname, func(nick string) {
		r.setNickname(player, nick)
	}))

	players := ui.IssueButton(func() { r.openPlayers(player) }, "[players]", "Browse online players")
	m.Add(players.Segment())
	m.AddText(" ")

	opened := time.Now()
	ping := ui.IssueBackgroundButton(func() { r.pong(ui, opened) }, "[ping]", "Answer from the background pool")
	m.Add(ping.Segment())
	m.AddText(" ")

	closeMenu := ui.IssueButton(func() {
		ui.CancelAction("Menu closed. Type " + MenuCommand + " to open it again.")
	}, "[close]", "Close this menu")
	m.AddLine(closeMenu.Segment())
	return m
}

// pong runs on the background pool and hands the reply back to the loop.
func (r *Runtime) pong(ui *chatui.Interface, opened time.Time) {
	elapsed := durafmt.ParseShort(time.Since(opened)).String()
	r.loop.RunForeground(func() {
		if !ui.Valid() {
			return
		}
		ui.Toolkit().Transport.Send(ui.Player(), chat.Text(fmt.Sprintf("Pong! This menu was opened %s ago.", elapsed)))
		ui.RevokeAllButtons()
		ui.Send()
	})
}

func (r *Runtime) openPlayers(player chat.PlayerID) {
	var heading chat.Message
	heading.AddLineText("Online players")
	r.toolkit.NewPage(player, chatui.PageSource{
		Heading: heading,
		Entries: r.playerEntries,
		PerPage: playersPerPage,
	}, 0).Open()
}

func (r *Runtime) playerEntries() []chat.Message {
	players := r.online()
	out := make([]chat.Message, len(players))
	for i, p := range players {
		out[i] = chat.Text(fmt.Sprintf(" - %s (joined %s)", p.name, humanize.Time(p.joined)))
	}
	return out
}
