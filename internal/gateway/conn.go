package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rvald/chatgui/internal/protocol"
)

// ConnState represents the lifecycle state of a connection.
type ConnState string

const (
	StateConnecting    ConnState = "connecting"
	StateAuthenticated ConnState = "authenticated"
	StateClosed        ConnState = "closed"
)

// WebSocket is the subset of *websocket.Conn a Conn uses.
type WebSocket interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// ConnHandler receives lifecycle events from a Conn. The payload returned
// by OnRequest is sent back as the response; an error becomes a failed
// response.
type ConnHandler interface {
	OnAuthenticated(conn *Conn) error
	OnRequest(conn *Conn, req *protocol.RequestFrame) (any, error)
	OnDisconnected(conn *Conn)
}

// Conn manages a single player connection through the handshake and the
// authenticated request loop.
type Conn struct {
	ws      WebSocket
	cfg     ServerConfig
	handler ConnHandler
	logger  *slog.Logger

	ConnID        string
	ConnectParams *protocol.ConnectParams
	Player        protocol.PlayerInfo

	state   ConnState
	mu      sync.Mutex
	writeMu sync.Mutex
	nonce   string
}

// NewConn creates a new connection in the connecting state.
func NewConn(ws WebSocket, cfg ServerConfig, handler ConnHandler) *Conn {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Conn{
		ws:      ws,
		cfg:     cfg,
		handler: handler,
		logger:  logger.With("component", "conn", "conn_id", id),
		ConnID:  id,
		state:   StateConnecting,
	}
}

// State returns the current lifecycle state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SendEvent sends an event frame to this connection (thread-safe).
func (c *Conn) SendEvent(event string, payload any) error {
	data, err := protocol.MarshalEvent(event, payload)
	if err != nil {
		return err
	}
	return c.writeMessage(websocket.TextMessage, data)
}

// Close drops the underlying socket; Run then returns.
func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(messageType, data); err != nil {
		return err
	}
	if messageType == websocket.TextMessage {
		IncMessageOut()
	}
	return nil
}

// Run drives the connection lifecycle: challenge, connect, read loop.
// It blocks until the connection is closed or the context is cancelled.
func (c *Conn) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.shutdown()

	// Close the socket on cancellation to unblock reads.
	go func() {
		<-ctx.Done()
		c.ws.Close()
	}()

	if c.cfg.MaxMessageSize > 0 {
		c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	}
	if c.cfg.PongWait > 0 {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		})
	}
	if c.cfg.PingPeriod > 0 {
		go c.pingLoop(ctx)
	}

	if err := c.sendChallenge(); err != nil {
		return
	}

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return
	}
	IncMessageIn()
	if err := c.processConnect(data); err != nil {
		c.logger.Debug("handshake failed", "error", err)
		return
	}

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("read failed", "error", err)
			}
			return
		}
		IncMessageIn()
		c.processRequest(data)
	}
}

func (c *Conn) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) sendChallenge() error {
	c.nonce = uuid.NewString()
	return c.SendEvent(protocol.EventChallenge, protocol.ChallengePayload{
		Nonce: c.nonce,
		Ts:    time.Now().Unix(),
	})
}

func (c *Conn) processConnect(data []byte) error {
	frame, err := protocol.ParseFrame(data)
	if err != nil {
		IncError("protocol")
		return err
	}
	req, ok := frame.(*protocol.RequestFrame)
	if !ok {
		IncError("protocol")
		return errors.New("expected request frame")
	}
	if req.Method != protocol.MethodConnect {
		IncError("protocol")
		c.sendError(req.ID, &protocol.ErrorShape{Code: protocol.CodeUnknownMethod, Message: "first request must be connect"})
		return fmt.Errorf("first request must be connect, got %q", req.Method)
	}

	var params protocol.ConnectParams
	if err := protocol.DecodeParams(req, &params); err != nil {
		IncError("protocol")
		c.sendError(req.ID, shapeOf(err))
		return err
	}
	if err := protocol.ValidateConnect(params); err != nil {
		IncError("protocol")
		c.sendError(req.ID, shapeOf(err))
		return err
	}

	if result := Authenticate(c.cfg.Auth, params.Auth); !result.OK {
		IncError("auth")
		c.sendError(req.ID, &protocol.ErrorShape{Code: protocol.CodeUnauthorized, Message: result.Reason})
		return fmt.Errorf("auth failed: %s", result.Reason)
	}

	c.ConnectParams = &params
	c.Player = params.Player

	hello := protocol.HelloOk{
		Type:     "hello-ok",
		Protocol: protocol.ServerProtocol,
		Server:   protocol.ServerInfo{Version: c.cfg.Version, ConnID: c.ConnID, Command: c.cfg.Command},
		Features: protocol.Features{Methods: protocol.Methods, Events: protocol.Events},
		Policy: protocol.Policy{
			MaxPayload:     int(c.cfg.MaxMessageSize),
			TickIntervalMs: int(c.cfg.TickInterval / time.Millisecond),
		},
	}
	resData, err := protocol.MarshalResponse(req.ID, true, hello, nil)
	if err != nil {
		return err
	}
	if err := c.writeMessage(websocket.TextMessage, resData); err != nil {
		return err
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.mu.Unlock()

	if err := c.handler.OnAuthenticated(c); err != nil {
		c.logger.Warn("connection rejected after handshake", "player", c.Player.ID, "error", err)
		return err
	}
	return nil
}

func (c *Conn) processRequest(data []byte) {
	frame, err := protocol.ParseFrame(data)
	if err != nil {
		IncError("protocol")
		c.logger.Debug("dropping bad frame", "error", err)
		return
	}
	req, ok := frame.(*protocol.RequestFrame)
	if !ok {
		return
	}

	payload, err := c.handler.OnRequest(c, req)
	if err != nil {
		c.sendError(req.ID, shapeOf(err))
		return
	}
	resData, err := protocol.MarshalResponse(req.ID, true, payload, nil)
	if err != nil {
		IncError("internal")
		c.logger.Error("marshal response", "method", req.Method, "error", err)
		return
	}
	c.writeMessage(websocket.TextMessage, resData)
}

func shapeOf(err error) *protocol.ErrorShape {
	var fe *protocol.FrameError
	if errors.As(err, &fe) {
		return fe.Shape()
	}
	return &protocol.ErrorShape{Code: "INTERNAL", Message: err.Error()}
}

func (c *Conn) sendError(id string, shape *protocol.ErrorShape) {
	data, err := protocol.MarshalResponse(id, false, nil, shape)
	if err != nil {
		return
	}
	c.writeMessage(websocket.TextMessage, data)
}

func (c *Conn) shutdown() {
	c.mu.Lock()
	wasAuthenticated := c.state == StateAuthenticated
	c.state = StateClosed
	c.mu.Unlock()

	c.ws.Close()

	if wasAuthenticated {
		c.handler.OnDisconnected(c)
	}
}
