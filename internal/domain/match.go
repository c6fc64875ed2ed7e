package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type MatchStatus string

const (
	MatchStatusQueued     MatchStatus = "queued"
	MatchStatusDraft      MatchStatus = "draft"
	MatchStatusGameReady  MatchStatus = "game_ready"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

// statusRank orders the forward path; cancelled/completed are terminal.
var statusRank = map[MatchStatus]int{
	MatchStatusQueued:     0,
	MatchStatusDraft:      1,
	MatchStatusGameReady:  2,
	MatchStatusInProgress: 3,
	MatchStatusCompleted:  4,
	MatchStatusCancelled:  4,
}

// CanTransition reports whether a status change is legal. Status only
// advances; only draft and in_progress may divert to cancelled.
func CanTransition(from, to MatchStatus) bool {
	if from == MatchStatusCompleted || from == MatchStatusCancelled {
		return false
	}
	if to == MatchStatusCancelled {
		return from == MatchStatusDraft || from == MatchStatusInProgress || from == MatchStatusGameReady
	}
	return statusRank[to] == statusRank[from]+1
}

func (s MatchStatus) Terminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCancelled
}

// Match is the authoritative persisted record for one custom game.
type Match struct {
	ID                uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Status            MatchStatus    `json:"status" gorm:"type:varchar(20);not null;default:'queued';index"`
	Team1Players      datatypes.JSON `json:"team1Players" gorm:"type:jsonb;not null"`
	Team2Players      datatypes.JSON `json:"team2Players" gorm:"type:jsonb;not null"`
	AverageSkillTeam1 float64        `json:"averageSkillTeam1"`
	AverageSkillTeam2 float64        `json:"averageSkillTeam2"`
	DraftJSON         datatypes.JSON `json:"draftJson" gorm:"column:draft_json;type:jsonb"`
	GameJSON          datatypes.JSON `json:"gameJson" gorm:"column:game_json;type:jsonb"`
	RealGameJSON      datatypes.JSON `json:"realGameJson" gorm:"column:lcu_match_data;type:jsonb"`
	LinkedRealGameID  *string        `json:"linkedRealGameId" gorm:"type:varchar(64)"`
	ActualWinner      *int           `json:"actualWinner"`
	ActualDuration    *int           `json:"actualDuration"`
	OwnerBackendID    string         `json:"ownerBackendId" gorm:"type:varchar(64)"`
	OwnerHeartbeat    int64          `json:"ownerHeartbeat"` // epoch ms
	CreatedAt         time.Time      `json:"createdAt"`
	CompletedAt       *time.Time     `json:"completedAt"`
}

func (Match) TableName() string {
	return "matches"
}

// Team1 decodes the ordered team-1 roster (index = lane, top..support).
func (m *Match) Team1() []RosterPlayer {
	return decodeRoster(m.Team1Players)
}

func (m *Match) Team2() []RosterPlayer {
	return decodeRoster(m.Team2Players)
}

// Roster returns all 10 seats, team 1 first.
func (m *Match) Roster() []RosterPlayer {
	return append(m.Team1(), m.Team2()...)
}

// OnRoster reports whether identity is one of the 10 players.
func (m *Match) OnRoster(identity string) bool {
	for _, p := range m.Roster() {
		if SameIdentity(p.Identity, identity) {
			return true
		}
	}
	return false
}

func decodeRoster(raw datatypes.JSON) []RosterPlayer {
	if len(raw) == 0 {
		return nil
	}
	var players []RosterPlayer
	if err := json.Unmarshal(raw, &players); err != nil {
		return nil
	}
	return players
}

// EncodeRoster serializes a team list for the jsonb columns.
func EncodeRoster(players []RosterPlayer) datatypes.JSON {
	data, _ := json.Marshal(players)
	return datatypes.JSON(data)
}
