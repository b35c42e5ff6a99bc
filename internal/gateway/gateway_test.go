package gateway

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rvald/chatgui/internal/chat"
	. "github.com/rvald/chatgui/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mu       sync.Mutex
	joined   []chat.PlayerID
	chats    []string
	commands []string
	quit     []chat.PlayerID
	consume  func(text string) bool
}

func (h *fakeHost) OnJoin(player chat.PlayerID, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joined = append(h.joined, player)
}

func (h *fakeHost) OnChat(player chat.PlayerID, text string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chats = append(h.chats, text)
	return h.consume != nil && h.consume(text)
}

func (h *fakeHost) OnCommand(player chat.PlayerID, line string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, line)
	return strings.HasPrefix(line, "/runnableinvoker:")
}

func (h *fakeHost) OnQuit(player chat.PlayerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quit = append(h.quit, player)
}

func (h *fakeHost) snapshot() (joined, quit []chat.PlayerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]chat.PlayerID(nil), h.joined...), append([]chat.PlayerID(nil), h.quit...)
}

func startGateway(t *testing.T, cfg GatewayConfig, host Host) *Gateway {
	t.Helper()
	gw := New(cfg, host)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gw.Run(ctx)
	require.Eventually(t, func() bool { return gw.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	return gw
}

// client is a websocket player that has completed the handshake.
type client struct {
	t  *testing.T
	ws *websocket.Conn
	n  int
}

func join(t *testing.T, gw *Gateway, id, token string) *client {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws://"+gw.Addr()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	c := &client{t: t, ws: ws}
	evt := c.next().(*EventFrame)
	require.Equal(t, EventChallenge, evt.Event)

	params := connectParams(id, token)
	res := c.request(MethodConnect, params)
	require.True(t, res.OK, "handshake failed: %+v", res.Error)
	return c
}

func (c *client) next() any {
	c.t.Helper()
	c.ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := c.ws.ReadMessage()
	require.NoError(c.t, err)
	frame, err := ParseFrame(msg)
	require.NoError(c.t, err)
	return frame
}

// request sends a request and returns its response, skipping events.
func (c *client) request(method string, params any) *ResponseFrame {
	c.t.Helper()
	c.n++
	id := "req-" + strconv.Itoa(c.n)
	data, err := MarshalRequest(id, method, params)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, data))
	for {
		if res, ok := c.next().(*ResponseFrame); ok && res.ID == id {
			return res
		}
	}
}

// event waits for the named event, skipping everything else.
func (c *client) event(name string) *EventFrame {
	c.t.Helper()
	for {
		if evt, ok := c.next().(*EventFrame); ok && evt.Event == name {
			return evt
		}
	}
}

func TestGateway_JoinAndSend(t *testing.T) {
	host := &fakeHost{}
	gw := startGateway(t, GatewayConfig{AuthToken: "secret"}, host)
	c := join(t, gw, "steve", "secret")

	require.Eventually(t, func() bool { return gw.Online() == 1 }, time.Second, 10*time.Millisecond)
	joined, _ := host.snapshot()
	assert.Equal(t, []chat.PlayerID{"steve"}, joined)

	var msg chat.Message
	msg.AddLineText("Menu")
	msg.Add(chat.Segment{Text: "[close]", Command: "/runnableinvoker:chatgui:run 7", Hover: "Close"})
	gw.Send("steve", msg)
	gw.Send("nobody", msg)

	evt := c.event(EventChatRender)
	var payload RenderPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, []chat.Segment(msg), payload.Segments)
}

func TestGateway_ChatRelayUnlessConsumed(t *testing.T) {
	host := &fakeHost{consume: func(text string) bool { return text == "secret answer" }}
	gw := startGateway(t, GatewayConfig{}, host)
	steve := join(t, gw, "steve", "")
	alex := join(t, gw, "alex", "")
	require.Eventually(t, func() bool { return gw.Online() == 2 }, time.Second, 10*time.Millisecond)

	require.True(t, steve.request(MethodChatSend, ChatParams{Text: "secret answer"}).OK)
	require.True(t, steve.request(MethodChatSend, ChatParams{Text: "hello all"}).OK)

	evt := alex.event(EventChatMessage)
	var relayed ChatMessage
	require.NoError(t, json.Unmarshal(evt.Payload, &relayed))
	assert.Equal(t, "Player steve", relayed.From)
	assert.Equal(t, "hello all", relayed.Text, "consumed lines are never relayed")

	res := steve.request(MethodChatSend, ChatParams{})
	assert.False(t, res.OK)
	assert.Equal(t, CodeMissingField, res.Error.Code)
}

func TestGateway_CommandRun(t *testing.T) {
	host := &fakeHost{}
	gw := startGateway(t, GatewayConfig{}, host)
	c := join(t, gw, "steve", "")

	res := c.request(MethodCommandRun, CommandParams{Line: "/runnableinvoker:chatgui:run 42"})
	require.True(t, res.OK)
	assert.JSONEq(t, `{"handled":true}`, string(res.Payload))

	res = c.request(MethodCommandRun, CommandParams{Line: "/weather"})
	require.True(t, res.OK)
	assert.JSONEq(t, `{"handled":false}`, string(res.Payload))

	res = c.request("teleport", nil)
	assert.False(t, res.OK)
	assert.Equal(t, CodeUnknownMethod, res.Error.Code)
}

func TestGateway_ClickRateLimit(t *testing.T) {
	gw := startGateway(t, GatewayConfig{ClickRate: 1, ClickBurst: 2}, &fakeHost{})
	c := join(t, gw, "steve", "")

	limited := 0
	for i := 0; i < 5; i++ {
		res := c.request(MethodCommandRun, CommandParams{Line: "/runnableinvoker:chatgui:run 1"})
		if !res.OK && res.Error.Code == CodeRateLimited {
			limited++
		}
	}
	assert.GreaterOrEqual(t, limited, 2)
}

func TestGateway_QuitOnDisconnect(t *testing.T) {
	host := &fakeHost{}
	gw := startGateway(t, GatewayConfig{}, host)
	c := join(t, gw, "steve", "")

	c.ws.Close()
	require.Eventually(t, func() bool {
		_, quit := host.snapshot()
		return len(quit) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, gw.Online())
}

func TestGateway_ReconnectReplacesConnection(t *testing.T) {
	host := &fakeHost{}
	gw := startGateway(t, GatewayConfig{}, host)
	first := join(t, gw, "steve", "")
	second := join(t, gw, "steve", "")

	// The first socket is dropped by the server.
	first.ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := first.ws.ReadMessage(); err != nil {
			break
		}
	}

	assert.Equal(t, 1, gw.Online())
	_, quit := host.snapshot()
	assert.Empty(t, quit, "the replaced connection does not make the player quit")

	gw.Send("steve", chat.Text("still here"))
	second.event(EventChatRender)
}

func TestGateway_TickKeepAlive(t *testing.T) {
	gw := startGateway(t, GatewayConfig{TickInterval: 100 * time.Millisecond}, &fakeHost{})
	c := join(t, gw, "steve", "")

	ticks := 0
	c.ws.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			break
		}
		if frame, _ := ParseFrame(msg); frame != nil {
			if evt, ok := frame.(*EventFrame); ok && evt.Event == EventTick {
				ticks++
			}
		}
	}
	assert.GreaterOrEqual(t, ticks, 2)
}

func TestGateway_GracefulShutdown(t *testing.T) {
	gw := startGateway(t, GatewayConfig{}, &fakeHost{})
	c := join(t, gw, "steve", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gw.Shutdown(ctx)

	sawShutdown := false
	c.ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			break
		}
		if frame, _ := ParseFrame(msg); frame != nil {
			if evt, ok := frame.(*EventFrame); ok && evt.Event == EventShutdown {
				sawShutdown = true
			}
		}
	}
	assert.True(t, sawShutdown)
}
