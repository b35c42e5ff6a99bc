package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/rvald/chatgui/internal/logfilter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("player", "alice")

	logger.Debug("debug only")
	logger.Warn("both")

	assert.Contains(t, a.String(), "debug only")
	assert.Contains(t, a.String(), "both")
	assert.NotContains(t, b.String(), "debug only")
	assert.Contains(t, b.String(), `"player":"alice"`)
}

func TestMultiHandler_Enabled(t *testing.T) {
	var a bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelError}))
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestSetup_CreatesLogDirAndFilters(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	filters := logfilter.NewManager()
	filters.AddFilterFor("/runnableinvoker:chatgui:run")

	l := Setup(dir, slog.LevelInfo, filters)
	require.NotNil(t, l)

	l.Info("alice issued server command: /runnableinvoker:chatgui:run 1")
	l.Info("kept line")

	_, err := os.Stat(filepath.Join(dir, "logs"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "chatgui.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept line")
	assert.NotContains(t, string(data), "issued server command")
}
