package protocol

import "github.com/rvald/chatgui/internal/chat"

// Client methods.
const (
	MethodConnect    = "connect"
	MethodChatSend   = "chat.send"
	MethodCommandRun = "command.run"
)

// Server events.
const (
	EventChallenge   = "connect.challenge"
	EventChatRender  = "chat.render"
	EventChatMessage = "chat.message"
	EventTick        = "tick"
	EventShutdown    = "shutdown"
)

// Methods lists every method a connected client may call.
var Methods = []string{MethodConnect, MethodChatSend, MethodCommandRun}

// Events lists every event the server emits.
var Events = []string{EventChallenge, EventChatRender, EventChatMessage, EventTick, EventShutdown}

// ChatParams is a line typed by the player.
type ChatParams struct {
	Text string `json:"text"`
}

// CommandParams is a command submitted by the player, usually the command
// of a clicked segment.
type CommandParams struct {
	Line string `json:"line"`
}

// CommandResult reports whether anything handled the command.
type CommandResult struct {
	Handled bool `json:"handled"`
}

// RenderPayload is a styled message for one player.
type RenderPayload struct {
	Segments []chat.Segment `json:"segments"`
}

// ChatMessage is a public chat line relayed to every player.
type ChatMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type ChallengePayload struct {
	Nonce string `json:"nonce"`
	Ts    int64  `json:"ts"`
}

type TickPayload struct {
	Ts int64 `json:"ts"`
}

type ShutdownPayload struct {
	Reason string `json:"reason"`
}
