// Package gateway lets players join over websocket. Each authenticated
// connection is one player; chat lines and clicked commands are routed to a
// Host and rendered interfaces come back as chat.render events.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rvald/chatgui/internal/chat"
	"github.com/rvald/chatgui/internal/protocol"
	"golang.org/x/time/rate"
)

// Host receives player events. OnChat and OnCommand report whether the
// line was consumed; unconsumed chat is relayed to every player.
type Host interface {
	OnJoin(player chat.PlayerID, name string)
	OnChat(player chat.PlayerID, text string) bool
	OnCommand(player chat.PlayerID, line string) bool
	OnQuit(player chat.PlayerID)
}

// GatewayConfig configures the gateway.
type GatewayConfig struct {
	Port         int
	Bind         string // "loopback" or "lan"
	AuthToken    string
	TickInterval time.Duration

	// Upgrade limit across all clients.
	RateLimit float64
	RateBurst int
	// Command submissions per player per second. Zero disables the limit.
	ClickRate  float64
	ClickBurst int

	Version string
	Command string // advertised button command prefix
	Logger  *slog.Logger
}

type player struct {
	conn    *Conn
	name    string
	limiter *rate.Limiter
}

// Gateway ties the websocket server to a Host and implements
// chat.Transport for it.
type Gateway struct {
	config GatewayConfig
	server *Server
	host   Host
	logger *slog.Logger

	mu      sync.Mutex
	players map[chat.PlayerID]*player
}

// New creates a gateway routing player events to host.
func New(config GatewayConfig, host Host) *Gateway {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gw := &Gateway{
		config:  config,
		host:    host,
		logger:  logger.With("component", "gateway"),
		players: make(map[chat.PlayerID]*player),
	}
	gw.server = NewServer(ServerConfig{
		Port:         config.Port,
		Bind:         config.Bind,
		Auth:         TokenAuth(config.AuthToken),
		RateLimit:    config.RateLimit,
		RateBurst:    config.RateBurst,
		Version:      config.Version,
		Command:      config.Command,
		TickInterval: config.TickInterval,
		Logger:       logger,
	}, gw)
	return gw
}

// Run starts the server and tick loop. Blocks until ctx is cancelled.
func (gw *Gateway) Run(ctx context.Context) error {
	if gw.config.TickInterval > 0 {
		go gw.tickLoop(ctx)
	}
	return gw.server.ListenAndServe(ctx)
}

// Addr returns the listening address once Run has bound it.
func (gw *Gateway) Addr() string { return gw.server.Addr() }

// Shutdown notifies every player and stops the server.
func (gw *Gateway) Shutdown(ctx context.Context) error {
	gw.broadcast(protocol.EventShutdown, protocol.ShutdownPayload{Reason: "server stopping"})
	return gw.server.Shutdown(ctx)
}

// Send renders msg to player. Unknown players are ignored.
func (gw *Gateway) Send(to chat.PlayerID, msg chat.Message) {
	gw.mu.Lock()
	p, ok := gw.players[to]
	gw.mu.Unlock()
	if !ok {
		gw.logger.Debug("dropping message for offline player", "player", to)
		return
	}
	if err := p.conn.SendEvent(protocol.EventChatRender, protocol.RenderPayload{Segments: msg}); err != nil {
		gw.logger.Debug("render failed", "player", to, "error", err)
	}
}

// Online returns the number of connected players.
func (gw *Gateway) Online() int {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return len(gw.players)
}

// --- ConnHandler implementation ---

func (gw *Gateway) OnAuthenticated(conn *Conn) error {
	id := chat.PlayerID(conn.Player.ID)
	p := &player{conn: conn, name: conn.Player.Name()}
	if gw.config.ClickRate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(gw.config.ClickRate), max(gw.config.ClickBurst, 1))
	}

	gw.mu.Lock()
	old := gw.players[id]
	gw.players[id] = p
	gw.mu.Unlock()

	if old != nil {
		// The old connection's disconnect no longer owns the player.
		gw.logger.Info("player reconnected, dropping previous connection", "player", id)
		old.conn.Close()
	} else {
		ConnectedPlayers.Inc()
	}

	gw.logger.Info("player joined", "player", id, "name", p.name)
	gw.host.OnJoin(id, p.name)
	return nil
}

func (gw *Gateway) OnRequest(conn *Conn, req *protocol.RequestFrame) (any, error) {
	id := chat.PlayerID(conn.Player.ID)
	p, ok := gw.current(id, conn)
	if !ok {
		return nil, &protocol.FrameError{Code: protocol.CodeUnauthorized, Message: "connection replaced"}
	}

	switch req.Method {
	case protocol.MethodChatSend:
		var params protocol.ChatParams
		if err := protocol.DecodeParams(req, &params); err != nil {
			return nil, err
		}
		if params.Text == "" {
			return nil, &protocol.FrameError{Code: protocol.CodeMissingField, Field: "text", Message: "empty chat line"}
		}
		if !gw.host.OnChat(id, params.Text) {
			gw.broadcast(protocol.EventChatMessage, protocol.ChatMessage{From: p.name, Text: params.Text})
		}
		return nil, nil

	case protocol.MethodCommandRun:
		var params protocol.CommandParams
		if err := protocol.DecodeParams(req, &params); err != nil {
			return nil, err
		}
		if p.limiter != nil && !p.limiter.Allow() {
			IncError("rate_limit")
			return nil, &protocol.FrameError{Code: protocol.CodeRateLimited, Message: "slow down"}
		}
		return protocol.CommandResult{Handled: gw.host.OnCommand(id, params.Line)}, nil

	default:
		return nil, &protocol.FrameError{Code: protocol.CodeUnknownMethod, Message: fmt.Sprintf("unknown method %q", req.Method)}
	}
}

func (gw *Gateway) OnDisconnected(conn *Conn) {
	id := chat.PlayerID(conn.Player.ID)

	gw.mu.Lock()
	p, ok := gw.players[id]
	owned := ok && p.conn == conn
	if owned {
		delete(gw.players, id)
	}
	gw.mu.Unlock()

	if !owned {
		return
	}
	ConnectedPlayers.Dec()
	gw.logger.Info("player left", "player", id)
	gw.host.OnQuit(id)
}

func (gw *Gateway) current(id chat.PlayerID, conn *Conn) (*player, bool) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	p, ok := gw.players[id]
	if !ok || p.conn != conn {
		return nil, false
	}
	return p, true
}

// --- tick & broadcast ---

func (gw *Gateway) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(gw.config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gw.broadcast(protocol.EventTick, protocol.TickPayload{Ts: time.Now().Unix()})
		}
	}
}

func (gw *Gateway) broadcast(event string, payload any) {
	gw.mu.Lock()
	conns := make([]*Conn, 0, len(gw.players))
	for _, p := range gw.players {
		conns = append(conns, p.conn)
	}
	gw.mu.Unlock()

	for _, c := range conns {
		c.SendEvent(event, payload)
	}
}
