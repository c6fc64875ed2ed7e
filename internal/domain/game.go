package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// GamePlayer is one seat of a game in progress, frozen from the draft.
type GamePlayer struct {
	Identity     string  `json:"identity"`
	Team         int     `json:"team"`
	AssignedLane Lane    `json:"assignedLane"`
	ChampionID   *string `json:"championId"`
	ChampionName *string `json:"championName"`
}

// Game is the snapshot written to matches.game_json when a confirmed draft
// moves to in_progress.
type Game struct {
	MatchID   uint         `json:"matchId"`
	Players   []GamePlayer `json:"players"`
	StartedAt time.Time    `json:"startedAt"`
}

// GameFromDraft freezes a completed draft into a game record.
func GameFromDraft(d *Draft, startedAt time.Time) *Game {
	game := &Game{MatchID: d.MatchID, StartedAt: startedAt}
	for team := 1; team <= 2; team++ {
		roster := d.Team(team)
		for slot, p := range roster {
			gp := GamePlayer{Identity: p.Identity, Team: team, AssignedLane: p.Lane}
			for i := range d.Actions {
				a := &d.Actions[i]
				if a.Type == ActionTypePick && a.Team == team && a.PlayerSlot == slot {
					gp.ChampionID = a.ChampionID
					gp.ChampionName = a.ChampionName
				}
			}
			game.Players = append(game.Players, gp)
		}
	}
	return game
}

func (g *Game) Marshal() (datatypes.JSON, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func GameFromJSON(raw []byte) (*Game, error) {
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
