// Package lcu routes server-originated queries for real-game data through a
// connected client session whose machine hosts the local game client. The
// server never talks to that client directly; it issues correlated
// request/response RPCs over the push channel.
package lcu

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GameID tolerates the external payload carrying ids as numbers or strings;
// it always normalizes to the string form.
type GameID string

func (g *GameID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*g = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*g = GameID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("gameId is neither string nor number: %w", err)
	}
	*g = GameID(n.String())
	return nil
}

func (g GameID) String() string { return string(g) }

// WinFlag tolerates the win field arriving as a bool or as the strings
// "Win"/"Fail".
type WinFlag bool

func (w *WinFlag) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch s {
	case "true":
		*w = true
		return nil
	case "false", "null":
		*w = false
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("win flag is neither bool nor string: %w", err)
	}
	*w = WinFlag(strings.EqualFold(str, "Win"))
	return nil
}

// RealGameTeam is the slice of a real-game payload the server needs for
// winner detection. teamId 100 is blue (team 1), 200 is red (team 2).
type RealGameTeam struct {
	TeamID int     `json:"teamId"`
	Win    WinFlag `json:"win"`
}

// RealGame is the parsed shell of a full external game payload. The raw
// payload is persisted verbatim; only these fields are interpreted.
type RealGame struct {
	GameID       GameID         `json:"gameId"`
	GameType     string         `json:"gameType"`
	GameMode     string         `json:"gameMode"`
	GameDuration int            `json:"gameDuration"`
	GameCreation int64          `json:"gameCreation"`
	Teams        []RealGameTeam `json:"teams"`
}

// Winner maps the winning teamId to the match-local team number (1 = blue,
// 2 = red). Nil when no team carries a win flag.
func (g *RealGame) Winner() *int {
	for _, team := range g.Teams {
		if !bool(team.Win) {
			continue
		}
		switch team.TeamID {
		case 100:
			w := 1
			return &w
		case 200:
			w := 2
			return &w
		}
	}
	return nil
}

// DurationSeconds returns the game duration, nil when absent.
func (g *RealGame) DurationSeconds() *int {
	if g.GameDuration <= 0 {
		return nil
	}
	d := g.GameDuration
	return &d
}

// IsCustom reports whether the payload describes a custom (in-house) game.
func (g *RealGame) IsCustom() bool {
	return strings.EqualFold(g.GameType, "CUSTOM_GAME")
}

// GameSummary is one entry of a recent match-history listing.
type GameSummary struct {
	GameID       GameID `json:"gameId"`
	GameType     string `json:"gameType"`
	GameMode     string `json:"gameMode"`
	GameCreation int64  `json:"gameCreation"`
	GameDuration int    `json:"gameDuration"`
}

func (s *GameSummary) IsCustom() bool {
	return strings.EqualFold(s.GameType, "CUSTOM_GAME")
}

// CustomGame pairs a summary with its fetched full payload.
type CustomGame struct {
	Summary GameSummary
	Detail  *RealGame
	Raw     json.RawMessage
}

// ParseRealGame decodes the shell of a full game payload.
func ParseRealGame(raw json.RawMessage) (*RealGame, error) {
	var game RealGame
	if err := json.Unmarshal(raw, &game); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLCUBadPayload, err)
	}
	return &game, nil
}

// parseSummaries accepts the shapes the local client is known to produce: a
// bare array, {games:[...]}, or the nested {games:{games:[...]}}.
func parseSummaries(raw json.RawMessage) ([]GameSummary, error) {
	var flat []GameSummary
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var wrapped struct {
		Games json.RawMessage `json:"games"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped.Games) == 0 {
		return nil, fmt.Errorf("%w: unrecognized match history shape", ErrLCUBadPayload)
	}
	if err := json.Unmarshal(wrapped.Games, &flat); err == nil {
		return flat, nil
	}
	var nested struct {
		Games []GameSummary `json:"games"`
	}
	if err := json.Unmarshal(wrapped.Games, &nested); err != nil {
		return nil, fmt.Errorf("%w: unrecognized match history shape", ErrLCUBadPayload)
	}
	return nested.Games, nil
}
