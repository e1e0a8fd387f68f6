package relay

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Protocol texts sent to the client in in-band mode.
const (
	MsgConnected     = "已连接"
	MsgAuthFailed    = "认证失败"
	MsgMalformedAuth = "认证消息格式错误"
	MsgDialFailed    = "连接失败"
)

// AuthRequest is the first client message in in-band mode.
type AuthRequest struct {
	Token  string `json:"token"`
	Target string `json:"target"`
}

// ParseAuthRequest decodes an authentication message. Both fields must be
// present strings; extra fields are ignored. The target is not checked here:
// it is dialed exactly as given and a bad URL surfaces as a dial failure.
// Errors wrap ErrMalformedAuth.
func ParseAuthRequest(data []byte) (AuthRequest, error) {
	var raw struct {
		Token  *string `json:"token"`
		Target *string `json:"target"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return AuthRequest{}, fmt.Errorf("%w: %v", ErrMalformedAuth, err)
	}
	if raw.Token == nil {
		return AuthRequest{}, fmt.Errorf("%w: missing token", ErrMalformedAuth)
	}
	if raw.Target == nil {
		return AuthRequest{}, fmt.Errorf("%w: missing target", ErrMalformedAuth)
	}
	return AuthRequest{Token: *raw.Token, Target: *raw.Target}, nil
}

// ValidateTarget checks that target is an absolute ws:// or wss:// URL
// with a host. Header mode uses it to reject bad targets before the
// upgrade.
func ValidateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid target URL %q: scheme must be ws or wss", target)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid target URL %q: missing host", target)
	}
	return nil
}

type statusFrame struct {
	Status string `json:"status"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// StatusFrame returns {"status": status}.
func StatusFrame(status string) []byte {
	data, _ := json.Marshal(statusFrame{Status: status})
	return data
}

// ErrorFrame returns {"error": msg}.
func ErrorFrame(msg string) []byte {
	data, _ := json.Marshal(errorFrame{Error: msg})
	return data
}

// DialErrorFrame returns {"error":"连接失败: <cause>"}.
func DialErrorFrame(cause error) []byte {
	return ErrorFrame(MsgDialFailed + ": " + cause.Error())
}
