package discord

import (
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/rvald/chatgui/internal/chat"
)

// Discord API limits.
const (
	maxContent     = 2000
	maxLabel       = 80
	maxCustomID    = 100
	buttonsPerRow  = 5
	maxActionsRows = 5
)

// Render turns a chat message into a Discord message. Text segments become
// the message content and every clickable segment also becomes a button
// whose custom ID is the segment's command, so pressing it submits the same
// line a chat click would.
//
// Buttons beyond what Discord allows on one message are dropped and
// reported as the second return value.
func Render(msg chat.Message) (*discordgo.MessageSend, int) {
	content := msg.Plain()
	if utf8.RuneCountInString(content) > maxContent {
		content = truncate(content, maxContent-1) + "…"
	}
	out := &discordgo.MessageSend{Content: content}

	var (
		rows    []discordgo.MessageComponent
		row     []discordgo.MessageComponent
		dropped int
	)
	flush := func() {
		if len(row) > 0 {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	for _, seg := range msg {
		if !seg.Clickable() {
			continue
		}
		if len(seg.Command) > maxCustomID || len(rows) == maxActionsRows {
			dropped++
			continue
		}
		row = append(row, discordgo.Button{
			Label:    buttonLabel(seg.Text),
			Style:    buttonStyle(seg),
			CustomID: seg.Command,
		})
		if len(row) == buttonsPerRow {
			flush()
		}
	}
	flush()
	out.Components = rows
	return out, dropped
}

func buttonLabel(text string) string {
	label := strings.TrimSpace(text)
	label = strings.TrimSuffix(strings.TrimPrefix(label, "["), "]")
	if label == "" {
		label = "?"
	}
	return truncate(label, maxLabel)
}

// truncate cuts s to at most n runes. Discord counts limits in characters.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Background buttons render grey so players can tell them apart.
func buttonStyle(seg chat.Segment) discordgo.ButtonStyle {
	if strings.HasSuffix(seg.Command, " async") {
		return discordgo.SecondaryButton
	}
	return discordgo.PrimaryButton
}
