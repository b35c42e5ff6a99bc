package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRequest(t *testing.T) {
	t.Run("parses back", func(t *testing.T) {
		data, err := MarshalRequest("req-1", MethodCommandRun, CommandParams{Line: "/menu"})
		require.NoError(t, err)

		frame, err := ParseFrame(data)
		require.NoError(t, err)
		req := frame.(*RequestFrame)
		var params CommandParams
		require.NoError(t, DecodeParams(req, &params))
		assert.Equal(t, "/menu", params.Line)
	})

	t.Run("nil params are omitted", func(t *testing.T) {
		data, err := MarshalRequest("req-2", MethodConnect, nil)
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.NotContains(t, raw, "params")
	})

	t.Run("missing id or method", func(t *testing.T) {
		_, err := MarshalRequest("", MethodConnect, nil)
		assert.ErrorContains(t, err, "field=id")
		_, err = MarshalRequest("req-1", "", nil)
		assert.ErrorContains(t, err, "field=method")
	})

	t.Run("unmarshalable params", func(t *testing.T) {
		_, err := MarshalRequest("req-1", MethodConnect, make(chan int))
		assert.ErrorContains(t, err, CodeInvalidJSON)
	})
}

func TestMarshalResponse(t *testing.T) {
	t.Run("error shape with retryable flag", func(t *testing.T) {
		retryable := true
		data, err := MarshalResponse("req-1", false, nil, &ErrorShape{Code: CodeRateLimited, Message: "slow down", Retryable: &retryable})
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Equal(t, false, raw["ok"])
		assert.NotContains(t, raw, "payload")
		errObj := raw["error"].(map[string]any)
		assert.Equal(t, CodeRateLimited, errObj["code"])
		assert.Equal(t, true, errObj["retryable"])
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := MarshalResponse("", true, nil, nil)
		assert.ErrorContains(t, err, "field=id")
	})
}

func TestMarshalEvent(t *testing.T) {
	data, err := MarshalEvent(EventChatMessage, ChatMessage{From: "Steve", Text: "hello"})
	require.NoError(t, err)
	frame, err := ParseFrame(data)
	require.NoError(t, err)
	evt := frame.(*EventFrame)
	assert.Equal(t, EventChatMessage, evt.Event)

	var msg ChatMessage
	require.NoError(t, json.Unmarshal(evt.Payload, &msg))
	assert.Equal(t, "Steve", msg.From)

	_, err = MarshalEvent("", nil)
	assert.ErrorContains(t, err, "field=event")
}
