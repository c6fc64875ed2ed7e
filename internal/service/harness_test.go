package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dom/league-inhouse-server/internal/config"
	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/lcu"
	"github.com/dom/league-inhouse-server/internal/repository"
	"github.com/dom/league-inhouse-server/internal/repository/memory"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// recordedEvent is one broadcast or targeted send captured by the recorder.
type recordedEvent struct {
	Type     string
	Identity string // empty for broadcasts
	Payload  any
}

// recorder is a Broadcaster that captures everything for assertions.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Broadcast(eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: eventType, Payload: payload})
}

func (r *recorder) SendToIdentity(identity, eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: eventType, Identity: identity, Payload: payload})
}

func (r *recorder) ofType(eventType string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) last(eventType string) (recordedEvent, bool) {
	events := r.ofType(eventType)
	if len(events) == 0 {
		return recordedEvent{}, false
	}
	return events[len(events)-1], true
}

// fakeFetcher satisfies RealGameFetcher. Identities listed in fail get their
// error; everyone else gets a blue-side win with the requested game id.
type fakeFetcher struct {
	mu    sync.Mutex
	raw   json.RawMessage
	err   error
	fail  map[string]error
	calls []string
}

func (f *fakeFetcher) FetchDetails(_ context.Context, identity, gameID string) (*lcu.RealGame, json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, identity)
	err := f.err
	if e, ok := f.fail[strings.ToLower(identity)]; ok {
		err = e
	}
	raw := f.raw
	f.mu.Unlock()

	if err != nil {
		return nil, nil, err
	}
	if raw == nil {
		raw = json.RawMessage(`{"gameId":"` + gameID + `","gameDuration":1800,"teams":[{"teamId":100,"win":true},{"teamId":200,"win":false}]}`)
	}
	game, err := lcu.ParseRealGame(raw)
	if err != nil {
		return nil, nil, err
	}
	return game, raw, nil
}

type fixture struct {
	t       *testing.T
	clock   *clockwork.FakeClock
	events  *recorder
	fetcher *fakeFetcher

	matches  *memory.MatchRepository
	votes    *memory.MatchVoteRepository
	champs   *memory.ChampionRepository
	settings *memory.SettingRepository

	*Services
}

func newFixture(t *testing.T) *fixture {
	matches, votes, champs, settings := memory.NewRepositories()
	f := &fixture{
		t:        t,
		clock:    clockwork.NewFakeClock(),
		events:   &recorder{},
		fetcher:  &fakeFetcher{fail: make(map[string]error)},
		matches:  matches,
		votes:    votes,
		champs:   champs,
		settings: settings,
	}
	repos := &repository.Repositories{Match: matches, MatchVote: votes, Champion: champs, Setting: settings}
	cfg := &config.Config{BackendID: "test-backend", DataDragonVersion: "15.19.1"}
	f.Services = NewServices(repos, cfg, f.clock, f.events, f.fetcher)
	return f
}

// seedChampions fills the catalog with keys "1".."n".
func (f *fixture) seedChampions(n int) {
	f.t.Helper()
	champs := make([]*domain.Champion, n)
	for i := range champs {
		key := strconv.Itoa(i + 1)
		champs[i] = &domain.Champion{ID: "Champ" + key, Key: key, Name: "Champ " + key}
	}
	require.NoError(f.t, f.champs.UpsertMany(context.Background(), champs))
	require.NoError(f.t, f.Champion.LoadCache(context.Background()))
}

func (f *fixture) newDraftMatch(team1, team2 []domain.RosterPlayer) *domain.Match {
	f.t.Helper()
	match := &domain.Match{
		Status:       domain.MatchStatusDraft,
		Team1Players: domain.EncodeRoster(team1),
		Team2Players: domain.EncodeRoster(team2),
		CreatedAt:    f.clock.Now(),
	}
	require.NoError(f.t, f.matches.Create(context.Background(), match))
	require.NoError(f.t, f.Draft.StartDraft(context.Background(), match))
	return match
}

func (f *fixture) newInProgressMatch(team1, team2 []domain.RosterPlayer) *domain.Match {
	f.t.Helper()
	match := &domain.Match{
		Status:       domain.MatchStatusInProgress,
		Team1Players: domain.EncodeRoster(team1),
		Team2Players: domain.EncodeRoster(team2),
		CreatedAt:    f.clock.Now(),
	}
	require.NoError(f.t, f.matches.Create(context.Background(), match))
	return match
}

// playAllActions drives a started draft to completion, each seat owner
// playing champion key 100+index.
func (f *fixture) playAllActions(matchID uint, team1, team2 []domain.RosterPlayer) {
	f.t.Helper()
	for i, step := range domain.DraftSequence {
		owner := seatOwner(step, team1, team2)
		err := f.Draft.ProcessAction(context.Background(), matchID, i, strconv.Itoa(100+i), owner)
		require.NoError(f.t, err, "action %d by %s", i, owner)
	}
}

func seatOwner(step domain.DraftStep, team1, team2 []domain.RosterPlayer) string {
	if step.Team == 1 {
		return team1[step.PlayerSlot].Identity
	}
	return team2[step.PlayerSlot].Identity
}

func roster(prefix string, mmrBase int) []domain.RosterPlayer {
	out := make([]domain.RosterPlayer, 5)
	for i, lane := range domain.AllLanes {
		out[i] = domain.RosterPlayer{
			Identity: fmt.Sprintf("%s%d#NA1", prefix, i+1),
			Lane:     lane,
			MMR:      mmrBase + i*10,
		}
	}
	return out
}

func botRoster() []domain.RosterPlayer {
	out := make([]domain.RosterPlayer, 5)
	for i, lane := range domain.AllLanes {
		out[i] = domain.RosterPlayer{Identity: fmt.Sprintf("bot%d", i+1), Lane: lane, MMR: 1000}
	}
	return out
}
