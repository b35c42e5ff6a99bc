package discovery

import (
	"testing"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvertiser_StartStop(t *testing.T) {
	adv, err := NewAdvertiser(Config{
		InstanceName: "TestChat",
		Port:         18790,
		Meta:         Metadata{DisplayName: "Test Chat"},
	})
	require.NoError(t, err)

	if err := adv.Start(); err != nil {
		t.Skipf("no multicast interface available: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, adv.Stop())
}

func TestAdvertiser_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{InstanceName: "Valid", Port: 8080}, false},
		{"missing port", Config{InstanceName: "NoPort"}, true},
		{"missing name", Config{Port: 8080}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdvertiser(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_TXT(t *testing.T) {
	cfg := Config{
		Port: 18790,
		Meta: Metadata{DisplayName: "Lobby", Command: "/runnableinvoker:chatgui:run"},
	}
	fields := ParseTXT(cfg.TXT())
	assert.Equal(t, "chatgui", fields["role"])
	assert.Equal(t, "18790", fields["port"])
	assert.Equal(t, "Lobby", fields["displayName"])
	assert.Equal(t, "/runnableinvoker:chatgui:run", fields["command"])
	_, hasVersion := fields["version"]
	assert.False(t, hasVersion)
}

func TestParseEntry(t *testing.T) {
	entry, ok := parseEntry(&mdns.ServiceEntry{
		Name:       "Lobby._chatgui._tcp.local.",
		Port:       18790,
		InfoFields: []string{"role=chatgui", "displayName=Lobby", "flag"},
	})
	require.True(t, ok)
	assert.Equal(t, "Lobby", entry.DisplayName)
	assert.Equal(t, "", entry.Fields["flag"])

	_, ok = parseEntry(&mdns.ServiceEntry{InfoFields: []string{"role=gateway"}})
	assert.False(t, ok)
}
