// Package ws implements the real-time push channel: a session registry that
// fans out flat JSON envelopes ({"type": ..., ...payload}) to every connected
// client, plus the inbound identify / ping / LCU proxy messages.
package ws

import (
	"encoding/json"
	"fmt"
)

// Outbound event types.
const (
	EventDraftUpdated            = "draft_updated"
	EventDraftConfirmationUpdate = "draft_confirmation_update"
	EventGameStarted             = "game_started"
	EventMatchVoteUpdate         = "match_vote_update"
	EventMatchLinked             = "match_linked"
	EventSpecialUserVote         = "special_user_vote"
	EventDiscordUsers            = "discord_users"
	EventDiscordStatus           = "discord_status"
	EventMatchFound              = "match_found"
	EventQueueUpdate             = "queue_update"
	EventLCURequest              = "lcu_request"
	EventPong                    = "pong"
	EventError                   = "error"
)

// Inbound message types.
const (
	MessageIdentify    = "identify"
	MessagePing        = "ping"
	MessageLCUStatus   = "lcu_status"
	MessageLCUResponse = "lcu_response"
)

// inbound is the first-pass decode of a client message; the concrete payload
// fields are re-read from Raw once the type is known.
type inbound struct {
	Type string `json:"type"`
	Raw  json.RawMessage
}

type identifyPayload struct {
	PlayerID     string `json:"playerId"`
	SummonerName string `json:"summonerName"`
}

type lcuStatusPayload struct {
	Connected bool `json:"connected"`
}

type lcuResponsePayload struct {
	RequestID string          `json:"requestId"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
}

// Envelope flattens payload into a single JSON object and injects the type
// tag. The payload must marshal to a JSON object (or be nil).
func Envelope(eventType string, payload any) ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%s payload is not an object: %w", eventType, err)
		}
	}
	typeTag, err := json.Marshal(eventType)
	if err != nil {
		return nil, err
	}
	fields["type"] = typeTag
	return json.Marshal(fields)
}

// MustEnvelope is Envelope for payloads built by the server itself, where a
// marshal failure is a programming error.
func MustEnvelope(eventType string, payload any) []byte {
	data, err := Envelope(eventType, payload)
	if err != nil {
		panic(err)
	}
	return data
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
