package gateway

import (
	"testing"

	"github.com/rvald/chatgui/internal/protocol"
	"github.com/stretchr/testify/assert"
)

func TestAuthenticate(t *testing.T) {
	tokenCfg := AuthConfig{Mode: AuthModeToken, Token: "secret-123"}
	tests := []struct {
		name       string
		cfg        AuthConfig
		provided   *protocol.ConnectAuth
		wantOK     bool
		wantMethod string
		wantReason string
	}{
		{"token match", tokenCfg, &protocol.ConnectAuth{Token: "secret-123"}, true, AuthModeToken, ""},
		{"token mismatch", tokenCfg, &protocol.ConnectAuth{Token: "wrong-token"}, false, AuthModeToken, "token_mismatch"},
		{"same length mismatch", tokenCfg, &protocol.ConnectAuth{Token: "secret-124"}, false, AuthModeToken, "token_mismatch"},
		{"token missing", tokenCfg, nil, false, AuthModeToken, "token_missing"},
		{"token empty", tokenCfg, &protocol.ConnectAuth{}, false, AuthModeToken, "token_missing"},
		{"mode none", AuthConfig{Mode: AuthModeNone}, nil, true, AuthModeNone, ""},
		{"mode none ignores token", AuthConfig{Mode: AuthModeNone}, &protocol.ConnectAuth{Token: "anything"}, true, AuthModeNone, ""},
		{"unknown mode", AuthConfig{Mode: "oauth"}, nil, false, "", "unknown_auth_mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Authenticate(tt.cfg, tt.provided)
			assert.Equal(t, tt.wantOK, r.OK)
			assert.Equal(t, tt.wantMethod, r.Method)
			assert.Equal(t, tt.wantReason, r.Reason)
		})
	}
}

func TestTokenAuth(t *testing.T) {
	assert.Equal(t, AuthConfig{Mode: AuthModeNone}, TokenAuth(""))
	assert.Equal(t, AuthConfig{Mode: AuthModeToken, Token: "x"}, TokenAuth("x"))
}
