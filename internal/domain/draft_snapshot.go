package domain

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// DraftSnapshot is the serialized draft shape persisted into
// matches.draft_json and carried on every draft_updated broadcast. The flat
// actions list is the source of truth; the hierarchical teams view is
// regenerated from it on every serialize.
type DraftSnapshot struct {
	CurrentIndex      int           `json:"currentIndex"`
	CurrentPhase      string        `json:"currentPhase"`
	CurrentTeam       int           `json:"currentTeam"`
	CurrentActionType string        `json:"currentActionType"`
	Teams             SnapshotTeams `json:"teams"`
	Team1             []TeamPlayer  `json:"team1"`
	Team2             []TeamPlayer  `json:"team2"`
	Actions           []DraftAction `json:"actions"`
	Confirmations     []string      `json:"confirmations,omitempty"`
	LastActionStartMs int64         `json:"lastActionStartMs"`
}

type SnapshotTeams struct {
	Blue SnapshotTeam `json:"blue"`
	Red  SnapshotTeam `json:"red"`
}

type SnapshotTeam struct {
	Name       string       `json:"name"`
	TeamNumber int          `json:"teamNumber"`
	AverageMmr float64      `json:"averageMmr"`
	AllBans    []string     `json:"allBans"`
	AllPicks   []string     `json:"allPicks"`
	Players    []TeamPlayer `json:"players"`
}

type TeamPlayer struct {
	SummonerName string         `json:"summonerName"`
	AssignedLane Lane           `json:"assignedLane"`
	TeamIndex    int            `json:"teamIndex"`
	Mmr          int            `json:"mmr"`
	Actions      []PlayerAction `json:"actions"`
	Bans         []PlayerAction `json:"bans"`
	Picks        []PlayerAction `json:"picks"`
}

type PlayerAction struct {
	Index        int        `json:"index"`
	Type         ActionType `json:"type"`
	ChampionID   *string    `json:"championId"`
	ChampionName *string    `json:"championName"`
	Phase        string     `json:"phase"`
	Status       string     `json:"status"`
}

// Snapshot builds the full serialized view from the flat action list.
func (d *Draft) Snapshot() *DraftSnapshot {
	snap := &DraftSnapshot{
		CurrentIndex:      d.CurrentIndex,
		CurrentPhase:      "completed",
		Actions:           append([]DraftAction(nil), d.Actions...),
		Confirmations:     d.ConfirmationList(),
		LastActionStartMs: d.LastActionStartMs,
	}
	if !d.Complete() {
		step := DraftSequence[d.CurrentIndex]
		snap.CurrentPhase = step.Phase
		snap.CurrentTeam = step.Team
		snap.CurrentActionType = string(step.Type)
	}

	blue := d.buildTeamView("Blue", 1, d.Team1)
	red := d.buildTeamView("Red", 2, d.Team2)
	snap.Teams = SnapshotTeams{Blue: blue, Red: red}
	snap.Team1 = blue.Players
	snap.Team2 = red.Players
	return snap
}

func (d *Draft) buildTeamView(name string, team int, roster []RosterPlayer) SnapshotTeam {
	view := SnapshotTeam{
		Name:       name,
		TeamNumber: team,
		AverageMmr: averageMMR(roster),
		AllBans:    []string{},
		AllPicks:   []string{},
		Players:    make([]TeamPlayer, len(roster)),
	}

	for i, p := range roster {
		view.Players[i] = TeamPlayer{
			SummonerName: p.Identity,
			AssignedLane: p.Lane,
			TeamIndex:    i,
			Mmr:          p.MMR,
			Actions:      []PlayerAction{},
			Bans:         []PlayerAction{},
			Picks:        []PlayerAction{},
		}
	}

	for i := range d.Actions {
		a := &d.Actions[i]
		if a.Team != team {
			continue
		}
		if a.Completed() {
			if a.Type == ActionTypeBan {
				view.AllBans = append(view.AllBans, *a.ChampionID)
			} else {
				view.AllPicks = append(view.AllPicks, *a.ChampionID)
			}
		}
		if a.PlayerSlot < 0 || a.PlayerSlot >= len(view.Players) {
			continue
		}
		pa := PlayerAction{
			Index:        a.Index,
			Type:         a.Type,
			ChampionID:   a.ChampionID,
			ChampionName: a.ChampionName,
			Phase:        a.Phase,
			Status:       a.Status(),
		}
		player := &view.Players[a.PlayerSlot]
		player.Actions = append(player.Actions, pa)
		if a.Type == ActionTypeBan {
			player.Bans = append(player.Bans, pa)
		} else {
			player.Picks = append(player.Picks, pa)
		}
	}

	return view
}

// MarshalSnapshot serializes the draft for the draft_json column.
func (d *Draft) MarshalSnapshot() (datatypes.JSON, error) {
	data, err := json.Marshal(d.Snapshot())
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// DraftFromSnapshot rebuilds an in-memory draft from persisted draft_json.
// The flat actions list is authoritative; the teams view is only read for
// roster recovery.
func DraftFromSnapshot(matchID uint, raw []byte, nowMs int64) (*Draft, error) {
	var snap DraftSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}

	d := &Draft{
		MatchID:           matchID,
		Actions:           NewDraftActions(),
		CurrentIndex:      snap.CurrentIndex,
		LastActionStartMs: nowMs,
		Confirmations:     make(map[string]string),
	}
	for _, a := range snap.Actions {
		if a.Index >= 0 && a.Index < TotalActions {
			seq := d.Actions[a.Index]
			seq.ChampionID = a.ChampionID
			seq.ChampionName = a.ChampionName
			seq.ByPlayer = a.ByPlayer
			d.Actions[a.Index] = seq
		}
	}
	for _, p := range snap.Teams.Blue.Players {
		d.Team1 = append(d.Team1, RosterPlayer{Identity: p.SummonerName, Lane: p.AssignedLane, MMR: p.Mmr})
	}
	for _, p := range snap.Teams.Red.Players {
		d.Team2 = append(d.Team2, RosterPlayer{Identity: p.SummonerName, Lane: p.AssignedLane, MMR: p.Mmr})
	}
	for _, id := range snap.Confirmations {
		d.Confirm(id)
	}
	return d, nil
}
