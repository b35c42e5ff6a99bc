package invoke

import (
	"fmt"
	"strconv"
	"strings"
)

// AsyncModifier is the optional second argument that asks for background
// execution.
const AsyncModifier = "async"

// Handler receives the arguments of a dispatched command (everything after
// the command label).
type Handler func(args []string)

// CommandRegistrar is the host's command table. Register makes name
// reachable as "/<fallbackPrefix>:<name>".
type CommandRegistrar interface {
	Register(name, fallbackPrefix string, h Handler) error
}

// Suppressor hides console echoes of a command. AddFilterFor must be
// idempotent per command.
type Suppressor interface {
	AddFilterFor(command string) bool
}

// NewRegistered creates an invoker and registers its command with the host.
// When suppressor is non-nil, echoes of the root command are filtered from
// the logs.
func NewRegistered(cfg Config, sched Scheduler, registrar CommandRegistrar, suppressor Suppressor) (*Invoker, error) {
	inv := New(cfg, sched)
	if registrar != nil {
		if err := registrar.Register(inv.Name(), inv.FallbackPrefix(), inv.Dispatch); err != nil {
			return nil, fmt.Errorf("register command %q: %w", inv.Name(), err)
		}
	}
	if suppressor != nil {
		suppressor.AddFilterFor(inv.RootCommand())
	}
	return inv, nil
}

// Dispatch is the host-facing command handler. args[0] is the token and an
// optional args[1] of "async" requests background execution. Malformed and
// unknown tokens are ignored.
func (inv *Invoker) Dispatch(args []string) {
	tok, mode, ok := parseArgs(args)
	if !ok {
		IncInvocation("malformed")
		inv.logger.Debug("ignoring malformed invocation", "args", args)
		return
	}
	inv.Invoke(tok, mode)
}

// HandleLine takes a complete submitted line such as
// "/runnableinvoker:chatgui:run 123 async". It returns false if the line is
// not addressed to this invoker, so hosts can fall through to their own
// commands. Lines addressed here are always consumed, even when the token
// is malformed or stale.
func (inv *Invoker) HandleLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	label := fields[0]
	if !strings.EqualFold(label, inv.rootCommand) && !strings.EqualFold(label, "/"+inv.name) {
		return false
	}
	inv.Dispatch(fields[1:])
	return true
}

// ParseCommand extracts the token and mode from a descriptor command string.
func ParseCommand(command string) (Token, Mode, bool) {
	fields := strings.Fields(command)
	if len(fields) < 2 {
		return 0, Foreground, false
	}
	return parseArgs(fields[1:])
}

func parseArgs(args []string) (Token, Mode, bool) {
	if len(args) == 0 {
		return 0, Foreground, false
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, Foreground, false
	}
	mode := Foreground
	if len(args) > 1 && strings.EqualFold(args[1], AsyncModifier) {
		mode = Background
	}
	return Token(n), mode, true
}
