package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Identity is the canonical "gameName#tagLine" form of a player reference.
// Both components compare case-insensitively.
type Identity struct {
	GameName string
	TagLine  string
}

func ParseIdentity(s string) Identity {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "#"); i >= 0 {
		return Identity{GameName: s[:i], TagLine: s[i+1:]}
	}
	return Identity{GameName: s}
}

func (id Identity) String() string {
	if id.TagLine == "" {
		return id.GameName
	}
	return id.GameName + "#" + id.TagLine
}

// SameIdentity reports whether two player references name the same player.
func SameIdentity(a, b string) bool {
	pa, pb := ParseIdentity(a), ParseIdentity(b)
	return strings.EqualFold(pa.GameName, pb.GameName) && strings.EqualFold(pa.TagLine, pb.TagLine)
}

// NormalizeIdentity lowercases a trimmed reference for use as a map key.
func NormalizeIdentity(s string) string {
	return strings.ToLower(ParseIdentity(s).String())
}

var botPattern = regexp.MustCompile(`(?i)^bot\d+$`)

// IsBot reports whether an identity belongs to a synthetic player.
// Bots match "bot<N>" (case-insensitive) or carry a negative numeric id.
func IsBot(identity string) bool {
	name := ParseIdentity(identity).GameName
	if botPattern.MatchString(strings.TrimSpace(name)) {
		return true
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(identity), 10, 64); err == nil && n < 0 {
		return true
	}
	return false
}

type Lane string

const (
	LaneTop     Lane = "top"
	LaneJungle  Lane = "jungle"
	LaneMid     Lane = "mid"
	LaneBot     Lane = "bot"
	LaneSupport Lane = "support"
)

// AllLanes is ordered to match team arrays: index 0..4 = top..support.
var AllLanes = []Lane{LaneTop, LaneJungle, LaneMid, LaneBot, LaneSupport}

func (l Lane) Valid() bool {
	for _, lane := range AllLanes {
		if l == lane {
			return true
		}
	}
	return false
}

// LaneIndex returns the slot index for a lane, or -1.
func LaneIndex(l Lane) int {
	for i, lane := range AllLanes {
		if l == lane {
			return i
		}
	}
	return -1
}

// RosterPlayer is one seat on a match roster.
type RosterPlayer struct {
	Identity   string `json:"identity"`
	Lane       Lane   `json:"lane"`
	MMR        int    `json:"mmr"`
	IsAutofill bool   `json:"isAutofill,omitempty"`
}
