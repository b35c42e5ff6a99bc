package protocol

import "fmt"

// ServerProtocol is the protocol version this server speaks.
const ServerProtocol = 1

// ---------- connect request params ----------

type ConnectParams struct {
	MinProtocol int          `json:"minProtocol"`
	MaxProtocol int          `json:"maxProtocol"`
	Player      PlayerInfo   `json:"player"`
	Client      ClientInfo   `json:"client"`
	Auth        *ConnectAuth `json:"auth,omitempty"`
}

// PlayerInfo identifies the player behind a connection. ID must be stable
// across reconnects; a second connection with the same ID replaces the
// first.
type PlayerInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name returns the display name, falling back to the ID.
func (p PlayerInfo) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}

type ClientInfo struct {
	Version  string `json:"version,omitempty"`
	Platform string `json:"platform,omitempty"`
}

type ConnectAuth struct {
	Token string `json:"token"`
}

// ValidateConnect checks the protocol range and the player identity.
func ValidateConnect(params ConnectParams) error {
	if ServerProtocol < params.MinProtocol || ServerProtocol > params.MaxProtocol {
		return &FrameError{
			Code:    CodeProtocolMismatch,
			Message: fmt.Sprintf("server protocol %d not in client range [%d, %d]", ServerProtocol, params.MinProtocol, params.MaxProtocol),
		}
	}
	if params.Player.ID == "" {
		return missing("connect", "player.id")
	}
	return nil
}

// ---------- hello-ok response ----------

type HelloOk struct {
	Type     string     `json:"type"`
	Protocol int        `json:"protocol"`
	Server   ServerInfo `json:"server"`
	Features Features   `json:"features"`
	Policy   Policy     `json:"policy"`
}

type ServerInfo struct {
	Version string `json:"version"`
	ConnID  string `json:"connId"`
	// Command is the prefix every button command starts with.
	Command string `json:"command"`
}

type Features struct {
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

type Policy struct {
	MaxPayload       int `json:"maxPayload"`
	MaxBufferedBytes int `json:"maxBufferedBytes"`
	TickIntervalMs   int `json:"tickIntervalMs"`
}
