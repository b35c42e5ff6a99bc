package app

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rvald/chatgui/internal/invoke"
)

// Commands is the host command table. Every command is reachable as
// "/<prefix>:<name>" and, when no other command claimed it, as "/<name>".
type Commands struct {
	mu       sync.RWMutex
	handlers map[string]invoke.Handler
}

// NewCommands creates an empty command table.
func NewCommands() *Commands {
	return &Commands{handlers: make(map[string]invoke.Handler)}
}

// Register implements invoke.CommandRegistrar.
func (c *Commands) Register(name, fallbackPrefix string, h invoke.Handler) error {
	if name == "" || h == nil {
		return fmt.Errorf("command name and handler are required")
	}
	full := "/" + name
	if fallbackPrefix != "" {
		full = "/" + fallbackPrefix + ":" + name
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.handlers[full]; ok {
		return fmt.Errorf("command %s already registered", full)
	}
	c.handlers[full] = h
	if _, ok := c.handlers["/"+name]; !ok {
		c.handlers["/"+name] = h
	}
	return nil
}

// Handle dispatches a submitted command line and reports whether a
// registered command took it.
func (c *Commands) Handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	c.mu.RLock()
	h, ok := c.handlers[strings.ToLower(fields[0])]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	h(fields[1:])
	return true
}

// Len returns the number of reachable labels.
func (c *Commands) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}
