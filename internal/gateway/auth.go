package gateway

import (
	"crypto/subtle"

	"github.com/rvald/chatgui/internal/protocol"
)

const (
	AuthModeNone  = "none"
	AuthModeToken = "token"
)

// AuthConfig holds the server-side authentication settings.
type AuthConfig struct {
	Mode  string `json:"mode"`  // "none" or "token"
	Token string `json:"token"` // required when Mode == "token"
}

// TokenAuth returns token auth for a non-empty token and no auth otherwise.
func TokenAuth(token string) AuthConfig {
	if token == "" {
		return AuthConfig{Mode: AuthModeNone}
	}
	return AuthConfig{Mode: AuthModeToken, Token: token}
}

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool
	Method string
	Reason string // empty on success
}

// Authenticate checks the credentials a player sent with connect.
func Authenticate(cfg AuthConfig, provided *protocol.ConnectAuth) AuthResult {
	switch cfg.Mode {
	case AuthModeNone, "":
		return AuthResult{OK: true, Method: AuthModeNone}

	case AuthModeToken:
		if provided == nil || provided.Token == "" {
			return AuthResult{Method: AuthModeToken, Reason: "token_missing"}
		}
		if subtle.ConstantTimeCompare([]byte(cfg.Token), []byte(provided.Token)) != 1 {
			return AuthResult{Method: AuthModeToken, Reason: "token_mismatch"}
		}
		return AuthResult{OK: true, Method: AuthModeToken}

	default:
		return AuthResult{Reason: "unknown_auth_mode"}
	}
}
