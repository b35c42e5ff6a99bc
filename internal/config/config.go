// Package config loads the chatgui runtime configuration from a YAML file,
// environment variables and defaults, in increasing order of precedence
// below command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration.
type Config struct {
	StateDir  string          `yaml:"state_dir"`
	Server    ServerConfig    `yaml:"server"`
	Discord   DiscordConfig   `yaml:"discord"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Invoker   InvokerConfig   `yaml:"invoker"`
	Input     InputConfig     `yaml:"input"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig configures the websocket bridge.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Bind         string        `yaml:"bind"` // "loopback" or "lan"
	AuthToken    string        `yaml:"auth_token"`
	TickInterval time.Duration `yaml:"tick_interval"`
	// ClickRate limits button submissions per player per second.
	ClickRate  float64 `yaml:"click_rate"`
	ClickBurst int     `yaml:"click_burst"`
}

type DiscordConfig struct {
	Token   string `yaml:"token"`
	GuildID string `yaml:"guild_id"`
}

type DiscoveryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DisplayName string `yaml:"display_name"`
	Iface       string `yaml:"iface"` // empty advertises on every interface
}

// InvokerConfig names the command every button submits.
type InvokerConfig struct {
	FallbackPrefix string `yaml:"fallback_prefix"`
	Namespace      string `yaml:"namespace"`
	Root           string `yaml:"root"`
}

type InputConfig struct {
	// Timeout cancels unanswered input prompts. Zero waits forever.
	Timeout time.Duration `yaml:"timeout"`
}

type SchedulerConfig struct {
	Workers int `yaml:"workers"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StateDir: DefaultStateDir(),
		Server: ServerConfig{
			Port:         18790,
			Bind:         "loopback",
			TickInterval: 15 * time.Second,
			ClickRate:    5,
			ClickBurst:   10,
		},
		Discovery: DiscoveryConfig{
			Enabled:     true,
			DisplayName: "chatgui",
		},
		Invoker: InvokerConfig{
			FallbackPrefix: "runnableinvoker",
			Namespace:      "chatgui",
			Root:           "run",
		},
		Scheduler: SchedulerConfig{Workers: 4},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from CHATGUI_* and DISCORD_* variables.
func (c *Config) ApplyEnv() {
	c.StateDir = envStr("CHATGUI_STATE_DIR", c.StateDir)
	c.Server.Port = envInt("CHATGUI_PORT", c.Server.Port)
	c.Server.Bind = envStr("CHATGUI_BIND", c.Server.Bind)
	c.Server.AuthToken = envStr("CHATGUI_TOKEN", c.Server.AuthToken)
	c.Discord.Token = envStr("DISCORD_BOT_TOKEN", c.Discord.Token)
	c.Discord.GuildID = envStr("DISCORD_GUILD_ID", c.Discord.GuildID)
	c.Discovery.Iface = envStr("CHATGUI_MDNS_IFACE", c.Discovery.Iface)
	c.Input.Timeout = envDuration("CHATGUI_INPUT_TIMEOUT", c.Input.Timeout)
	c.Scheduler.Workers = envInt("CHATGUI_WORKERS", c.Scheduler.Workers)
	c.Log.Level = envStr("CHATGUI_LOG_LEVEL", c.Log.Level)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.Bind != "loopback" && c.Server.Bind != "lan" {
		return fmt.Errorf("invalid bind mode: %q (must be \"loopback\" or \"lan\")", c.Server.Bind)
	}
	if c.Server.Bind == "lan" && c.Server.AuthToken == "" {
		return errors.New("refusing to start: bind lan requires an auth token to prevent unauthenticated access")
	}
	if c.Server.ClickRate < 0 || c.Server.ClickBurst < 0 {
		return fmt.Errorf("invalid click limit: rate %v burst %d", c.Server.ClickRate, c.Server.ClickBurst)
	}
	if c.Scheduler.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d", c.Scheduler.Workers)
	}
	if c.Input.Timeout < 0 {
		return fmt.Errorf("invalid input timeout: %s", c.Input.Timeout)
	}
	for name, v := range map[string]string{
		"fallback_prefix": c.Invoker.FallbackPrefix,
		"namespace":       c.Invoker.Namespace,
		"root":            c.Invoker.Root,
	} {
		if v == "" || strings.ContainsAny(v, ": \t/") {
			return fmt.Errorf("invalid invoker %s: %q", name, v)
		}
	}
	return nil
}

// DefaultStateDir returns XDG_STATE_HOME/chatgui or ~/.local/state/chatgui.
func DefaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "chatgui")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".chatgui", "state")
	}
	return filepath.Join(home, ".local", "state", "chatgui")
}

// --- env helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
