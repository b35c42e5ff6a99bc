// Package protocol defines the JSON frames exchanged with websocket chat
// clients.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Error codes carried by FrameError and ErrorShape.
const (
	CodeInvalidJSON      = "INVALID_JSON"
	CodeMissingField     = "MISSING_FIELD"
	CodeUnknownType      = "UNKNOWN_TYPE"
	CodeUnknownMethod    = "UNKNOWN_METHOD"
	CodeProtocolMismatch = "PROTOCOL_MISMATCH"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeRateLimited      = "RATE_LIMITED"
)

// FrameError carries structured context for observability.
type FrameError struct {
	Code    string
	Field   string // which field was the problem, if applicable
	Message string
}

func (e *FrameError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("frame error [%s]: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("frame error [%s]: %s", e.Code, e.Message)
}

// Shape converts the error into the wire error object.
func (e *FrameError) Shape() *ErrorShape {
	return &ErrorShape{Code: e.Code, Message: e.Message}
}

func missing(kind, field string) *FrameError {
	return &FrameError{
		Code:    CodeMissingField,
		Field:   field,
		Message: fmt.Sprintf("%s frame missing required %q field", kind, field),
	}
}

type FrameType string

const (
	FrameTypeReq   FrameType = "req"
	FrameTypeRes   FrameType = "res"
	FrameTypeEvent FrameType = "event"
)

type RawFrame struct {
	Type FrameType `json:"type"`
}

type RequestFrame struct {
	Type   FrameType       `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type ResponseFrame struct {
	Type    FrameType       `json:"type"`
	ID      string          `json:"id"`
	OK      bool            `json:"ok"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorShape     `json:"error,omitempty"`
}

type EventFrame struct {
	Type    FrameType       `json:"type"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Seq     *int            `json:"seq,omitempty"`
}

type ErrorShape struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable *bool  `json:"retryable,omitempty"`
}

// ParseFrame decodes one frame and returns *RequestFrame, *ResponseFrame or
// *EventFrame.
func ParseFrame(data []byte) (any, error) {
	var raw RawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FrameError{Code: CodeInvalidJSON, Message: fmt.Sprintf("invalid frame JSON: %v", err)}
	}

	switch raw.Type {
	case "":
		return nil, &FrameError{Code: CodeMissingField, Field: "type", Message: "frame missing required \"type\" field"}

	case FrameTypeReq:
		var req RequestFrame
		if err := decode(data, &req, "request"); err != nil {
			return nil, err
		}
		if req.ID == "" {
			return nil, missing("request", "id")
		}
		if req.Method == "" {
			return nil, missing("request", "method")
		}
		if bytes.Equal(req.Params, []byte("null")) {
			req.Params = nil
		}
		return &req, nil

	case FrameTypeRes:
		var res ResponseFrame
		if err := decode(data, &res, "response"); err != nil {
			return nil, err
		}
		if res.ID == "" {
			return nil, missing("response", "id")
		}
		return &res, nil

	case FrameTypeEvent:
		var evt EventFrame
		if err := decode(data, &evt, "event"); err != nil {
			return nil, err
		}
		if evt.Event == "" {
			return nil, missing("event", "event")
		}
		return &evt, nil

	default:
		return nil, &FrameError{Code: CodeUnknownType, Message: fmt.Sprintf("unknown frame type: %q", raw.Type)}
	}
}

func decode(data []byte, v any, kind string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &FrameError{Code: CodeInvalidJSON, Message: fmt.Sprintf("invalid %s frame JSON: %v", kind, err)}
	}
	return nil
}

// DecodeParams unmarshals request params into v. Missing params are an
// error.
func DecodeParams(req *RequestFrame, v any) error {
	if len(req.Params) == 0 {
		return missing("request", "params")
	}
	if err := json.Unmarshal(req.Params, v); err != nil {
		return &FrameError{Code: CodeInvalidJSON, Field: "params", Message: fmt.Sprintf("invalid %s params: %v", req.Method, err)}
	}
	return nil
}
