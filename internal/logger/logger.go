package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rvald/chatgui/internal/logfilter"
	"gopkg.in/natefinch/lumberjack.v2"
)

// MultiHandler fans out records to multiple handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup configures the default slog logger to write:
// 1. JSON logs to a rotating file in <stateDir>/logs/chatgui.log
// 2. Text logs to os.Stdout
//
// Both outputs pass through filters, so button-click command echoes never
// reach the console or the file.
func Setup(stateDir string, level slog.Level, filters *logfilter.Manager) *slog.Logger {
	logDir := filepath.Join(stateDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Fallback to stderr if we can't create log dir
		slog.Error("failed to create log directory", "error", err)
	}

	fileLogger := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "chatgui.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	jsonHandler := slog.NewJSONHandler(fileLogger, &slog.HandlerOptions{
		Level: level,
	})
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	var handler slog.Handler = NewMultiHandler(jsonHandler, consoleHandler)
	if filters != nil {
		handler = logfilter.NewHandler(handler, filters)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
