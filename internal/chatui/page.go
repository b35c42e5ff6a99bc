package chatui

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rvald/chatgui/internal/chat"
)

// PageSource describes a browseable list.
type PageSource struct {
	Heading chat.Message
	// Entries is called on every render; entries must not end with a line
	// break.
	Entries func() []chat.Message
	PerPage int
}

// NewPage creates an interface showing page index (zero based) of src.
// Out of range indices are clamped. The previous and next buttons open the
// neighbouring page as a new session.
func (tk *Toolkit) NewPage(player chat.PlayerID, src PageSource, index int) *Interface {
	return tk.New(player, func(ui *Interface) chat.Message {
		return ui.renderPage(src, index)
	})
}

// pageBounds returns the clamped page index and the last valid index.
func pageBounds(total, perPage, requested int) (index, last int) {
	if perPage < 1 {
		perPage = 1
	}
	if total > 0 {
		last = (total - 1) / perPage
	}
	index = min(max(requested, 0), last)
	return index, last
}

func (ui *Interface) renderPage(src PageSource, requested int) chat.Message {
	var entries []chat.Message
	if src.Entries != nil {
		entries = src.Entries()
	}
	perPage := max(src.PerPage, 1)
	index, last := pageBounds(len(entries), perPage, requested)

	var m chat.Message
	m.Concat(src.Heading)

	begin := index * perPage
	end := min(len(entries), begin+perPage)
	for _, e := range entries[begin:end] {
		m.Append(e)
	}

	t := ui.theme
	if index > 0 {
		m.Add(ui.pageButton(src, index-1, t.PrevButton).Segment())
	} else {
		m.AddText(t.PrevInactive)
	}
	m.AddText(fmt.Sprintf(t.PageDisplay, humanize.Comma(int64(index+1)), humanize.Comma(int64(last+1))))
	if index < last {
		m.Add(ui.pageButton(src, index+1, t.NextButton).Segment())
	} else {
		m.AddText(t.NextInactive)
	}
	m.AddLineText(" " + fmt.Sprintf(t.EntryCount, humanize.Comma(int64(len(entries)))))
	return m
}

func (ui *Interface) pageButton(src PageSource, target int, label string) *Button {
	return ui.IssueButton(func() {
		ui.tk.NewPage(ui.player, src, target).Open()
	}, label, "")
}
