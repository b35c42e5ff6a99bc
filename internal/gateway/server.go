package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Defaults applied by NewServer to unset ServerConfig fields.
const (
	DefaultMaxMessageSize = 512 * 1024
	DefaultPongWait       = 60 * time.Second
)

// ServerConfig holds configuration for the websocket server and the
// connections it accepts.
type ServerConfig struct {
	Port int
	Bind string // "loopback" (127.0.0.1) or "lan" (0.0.0.0)
	Auth AuthConfig

	// RateLimit bounds websocket upgrades per second across all clients.
	// Zero disables the limit.
	RateLimit float64
	RateBurst int

	MaxMessageSize int64
	PongWait       time.Duration
	PingPeriod     time.Duration // defaults to 9/10 of PongWait

	// Reported to clients in hello-ok.
	Version      string
	Command      string
	TickInterval time.Duration

	Logger *slog.Logger
}

// Server is an HTTP server that upgrades connections to WebSocket
// and manages Conn lifecycles.
type Server struct {
	config   ServerConfig
	handler  ConnHandler
	upgrader websocket.Upgrader
	limiter  *rate.Limiter
	logger   *slog.Logger

	mu      sync.Mutex
	httpSrv *http.Server
	addr    string

	connsMu sync.Mutex
	conns   map[*Conn]struct{}
}

// NewServer creates a new websocket server.
func NewServer(config ServerConfig, handler ConnHandler) *Server {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.PongWait == 0 {
		config.PongWait = DefaultPongWait
	}
	if config.PingPeriod == 0 {
		config.PingPeriod = config.PongWait * 9 / 10
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{
		config:  config,
		handler: handler,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: config.Logger.With("component", "ws-server"),
		conns:  make(map[*Conn]struct{}),
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return s
}

// Addr returns the address the server is listening on, or "" if not yet ready.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe starts the HTTP server and blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", MetricsHandler())

	bindAddr := "127.0.0.1"
	if s.config.Bind == "lan" {
		bindAddr = "0.0.0.0"
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", bindAddr, s.config.Port))
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Info("listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		s.closeAllConns()
		srv.Close()
	}()

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown closes every connection and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeAllConns()
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		IncError("rate_limit")
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		IncError("protocol")
		return
	}

	conn := NewConn(wsConn, s.config, s.handler)

	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()

	conn.Run(r.Context())

	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) closeAllConns() {
	s.connsMu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
