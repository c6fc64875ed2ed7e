package domain

import (
	"strings"
)

type ActionType string

const (
	ActionTypeBan  ActionType = "ban"
	ActionTypePick ActionType = "pick"
)

// SkippedChampion is the sentinel written into a timed-out action.
const SkippedChampion = "SKIPPED"

// TimeoutActor is recorded as byPlayer when the scheduler skips an action.
const TimeoutActor = "TIMEOUT"

const TotalActions = 20

// DraftStep is one entry of the fixed pick/ban order.
type DraftStep struct {
	Index      int
	Type       ActionType
	Team       int // 1 = blue, 2 = red
	PlayerSlot int // 0..4 = top, jungle, mid, bot/adc, support
	Phase      string
}

// DraftSequence is the fixed 20-action tournament order. Player slots index
// the team arrays produced by matchmaking (top..support).
var DraftSequence = []DraftStep{
	{0, ActionTypeBan, 1, 0, "ban1"},
	{1, ActionTypeBan, 2, 0, "ban1"},
	{2, ActionTypeBan, 1, 1, "ban1"},
	{3, ActionTypeBan, 2, 1, "ban1"},
	{4, ActionTypeBan, 1, 2, "ban1"},
	{5, ActionTypeBan, 2, 2, "ban1"},
	{6, ActionTypePick, 1, 0, "pick1"},
	{7, ActionTypePick, 2, 0, "pick1"},
	{8, ActionTypePick, 2, 1, "pick1"},
	{9, ActionTypePick, 1, 1, "pick1"},
	{10, ActionTypePick, 1, 2, "pick1"},
	{11, ActionTypePick, 2, 2, "pick1"},
	{12, ActionTypeBan, 2, 3, "ban2"},
	{13, ActionTypeBan, 1, 3, "ban2"},
	{14, ActionTypeBan, 2, 4, "ban2"},
	{15, ActionTypeBan, 1, 4, "ban2"},
	{16, ActionTypePick, 2, 3, "pick2"},
	{17, ActionTypePick, 1, 3, "pick2"},
	{18, ActionTypePick, 1, 4, "pick2"},
	{19, ActionTypePick, 2, 4, "pick2"},
}

// DraftAction is one step of a draft with its outcome.
type DraftAction struct {
	Index        int        `json:"index"`
	Type         ActionType `json:"type"`
	Team         int        `json:"team"`
	PlayerSlot   int        `json:"playerSlot"`
	Phase        string     `json:"phase"`
	ChampionID   *string    `json:"championId"`   // numeric key, "SKIPPED", or null while open
	ChampionName *string    `json:"championName"` // "SKIPPED" mirrors the key sentinel
	ByPlayer     *string    `json:"byPlayer"`
}

func (a *DraftAction) Open() bool {
	return a.ChampionID == nil
}

func (a *DraftAction) Skipped() bool {
	return a.ChampionID != nil && *a.ChampionID == SkippedChampion
}

func (a *DraftAction) Completed() bool {
	return a.ChampionID != nil && *a.ChampionID != SkippedChampion
}

// Status is the serialized state tag for one action.
func (a *DraftAction) Status() string {
	switch {
	case a.Skipped():
		return "skipped"
	case a.Completed():
		return "completed"
	default:
		return "open"
	}
}

// NewDraftActions builds the 20 open actions in sequence order.
func NewDraftActions() []DraftAction {
	actions := make([]DraftAction, TotalActions)
	for i, step := range DraftSequence {
		actions[i] = DraftAction{
			Index:      step.Index,
			Type:       step.Type,
			Team:       step.Team,
			PlayerSlot: step.PlayerSlot,
			Phase:      step.Phase,
		}
	}
	return actions
}

// Draft is the in-memory pick/ban state for one match. Synchronization is
// owned by the caller; a Draft itself is plain data.
type Draft struct {
	MatchID           uint
	Actions           []DraftAction
	CurrentIndex      int
	LastActionStartMs int64
	Team1             []RosterPlayer
	Team2             []RosterPlayer
	// Confirmations maps normalized identity -> identity as claimed.
	Confirmations map[string]string
}

func NewDraft(matchID uint, team1, team2 []RosterPlayer, nowMs int64) *Draft {
	return &Draft{
		MatchID:           matchID,
		Actions:           NewDraftActions(),
		CurrentIndex:      0,
		LastActionStartMs: nowMs,
		Team1:             team1,
		Team2:             team2,
		Confirmations:     make(map[string]string),
	}
}

// Complete reports whether all 20 actions are resolved.
func (d *Draft) Complete() bool {
	return d.CurrentIndex >= TotalActions
}

// CurrentAction returns the open action whose timer is running, or nil.
func (d *Draft) CurrentAction() *DraftAction {
	if d.Complete() {
		return nil
	}
	return &d.Actions[d.CurrentIndex]
}

// Team returns the roster for team 1 or 2.
func (d *Draft) Team(n int) []RosterPlayer {
	if n == 1 {
		return d.Team1
	}
	return d.Team2
}

// SlotOwner returns the player seated at the slot an action belongs to.
func (d *Draft) SlotOwner(action *DraftAction) *RosterPlayer {
	team := d.Team(action.Team)
	if action.PlayerSlot < 0 || action.PlayerSlot >= len(team) {
		return nil
	}
	return &team[action.PlayerSlot]
}

// OnTeam reports whether identity is on the given team.
func (d *Draft) OnTeam(team int, identity string) bool {
	for _, p := range d.Team(team) {
		if SameIdentity(p.Identity, identity) {
			return true
		}
	}
	return false
}

// UsedKeys returns every champion key already committed to an action,
// excluding the skip sentinel and, when exceptIndex >= 0, that slot.
func (d *Draft) UsedKeys(exceptIndex int) map[string]bool {
	used := make(map[string]bool)
	for i := range d.Actions {
		a := &d.Actions[i]
		if i == exceptIndex || !a.Completed() {
			continue
		}
		used[*a.ChampionID] = true
	}
	return used
}

// TeamPickedKeys returns keys already picked (not banned) by one team.
func (d *Draft) TeamPickedKeys(team int) map[string]bool {
	picked := make(map[string]bool)
	for i := range d.Actions {
		a := &d.Actions[i]
		if a.Team == team && a.Type == ActionTypePick && a.Completed() {
			picked[*a.ChampionID] = true
		}
	}
	return picked
}

// Confirm records a confirmation; returns false when it was a duplicate.
func (d *Draft) Confirm(identity string) bool {
	key := NormalizeIdentity(identity)
	if _, ok := d.Confirmations[key]; ok {
		return false
	}
	d.Confirmations[key] = strings.TrimSpace(identity)
	return true
}

func (d *Draft) ConfirmedBy(identity string) bool {
	_, ok := d.Confirmations[NormalizeIdentity(identity)]
	return ok
}

func (d *Draft) ConfirmationList() []string {
	out := make([]string, 0, len(d.Confirmations))
	for _, id := range d.Confirmations {
		out = append(out, id)
	}
	return out
}

// averageMMR over a roster; 0 for an empty team.
func averageMMR(players []RosterPlayer) float64 {
	if len(players) == 0 {
		return 0
	}
	sum := 0
	for _, p := range players {
		sum += p.MMR
	}
	return float64(sum) / float64(len(players))
}
