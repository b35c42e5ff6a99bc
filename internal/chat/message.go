package chat

import "strings"

// PlayerID identifies a player on the host. It is whatever the host uses as a
// stable key (a username, a UUID, a Discord user ID).
type PlayerID string

// Segment is one styled piece of a chat message. A segment with a Command is
// clickable; the host submits Command on the player's behalf when clicked.
type Segment struct {
	Text    string `json:"text"`
	Command string `json:"command,omitempty"`
	Hover   string `json:"hover,omitempty"`
}

// Clickable reports whether the segment carries a click command.
func (s Segment) Clickable() bool { return s.Command != "" }

// Message is an ordered list of segments sent as a single chat payload.
type Message []Segment

// Text builds a message holding a single plain segment.
func Text(s string) Message {
	return Message{{Text: s}}
}

// Add appends segments.
func (m *Message) Add(segs ...Segment) {
	*m = append(*m, segs...)
}

// AddText appends a plain text segment.
func (m *Message) AddText(s string) {
	m.Add(Segment{Text: s})
}

// AddLine appends a segment followed by a line break.
func (m *Message) AddLine(seg Segment) {
	m.Add(seg, Segment{Text: "\n"})
}

// AddLineText appends plain text followed by a line break.
func (m *Message) AddLineText(s string) {
	m.AddLine(Segment{Text: s})
}

// Append appends every segment of other and terminates the line.
func (m *Message) Append(other Message) {
	m.Add(other...)
	m.AddLineText("")
}

// Concat appends other without a trailing line break.
func (m *Message) Concat(other Message) {
	m.Add(other...)
}

// Plain flattens the message into its visible text.
func (m Message) Plain() string {
	var b strings.Builder
	for _, s := range m {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Commands returns the click commands of every clickable segment in order.
func (m Message) Commands() []string {
	var out []string
	for _, s := range m {
		if s.Clickable() {
			out = append(out, s.Command)
		}
	}
	return out
}

// Transport delivers messages to players. Delivery is fire-and-forget:
// implementations log failures and never report them to the caller.
type Transport interface {
	Send(to PlayerID, msg Message)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(to PlayerID, msg Message)

// Send calls f.
func (f TransportFunc) Send(to PlayerID, msg Message) { f(to, msg) }
