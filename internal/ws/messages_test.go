package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeFlattensPayload(t *testing.T) {
	data, err := Envelope(EventMatchLinked, map[string]any{"matchId": 7, "winner": 1})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, EventMatchLinked, decoded["type"])
	assert.Equal(t, float64(7), decoded["matchId"])
	assert.Equal(t, float64(1), decoded["winner"])
}

func TestEnvelopeNilPayload(t *testing.T) {
	data, err := Envelope(EventPong, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))
}

func TestEnvelopeRejectsNonObjectPayload(t *testing.T) {
	_, err := Envelope(EventError, []int{1, 2, 3})
	assert.Error(t, err)
}

func TestEnvelopeStructPayload(t *testing.T) {
	data, err := Envelope(EventError, errorPayload{Code: "NOPE", Message: "no"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","code":"NOPE","message":"no"}`, string(data))
}
