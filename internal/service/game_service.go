package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/lcu"
	"github.com/dom/league-inhouse-server/internal/repository"
	"github.com/dom/league-inhouse-server/internal/ws"
	"github.com/jonboulle/clockwork"
)

// GameService watches matches from the moment a confirmed draft is frozen
// until a vote finalizes them. It owns the game_json snapshot and the cancel
// path.
type GameService struct {
	matchRepo   repository.MatchRepository
	voteRepo    repository.MatchVoteRepository
	broadcaster Broadcaster
	clock       clockwork.Clock
	locks       *matchLocks

	mu    sync.RWMutex
	games map[uint]*domain.Game
}

func NewGameService(matchRepo repository.MatchRepository, voteRepo repository.MatchVoteRepository, broadcaster Broadcaster, clock clockwork.Clock, locks *matchLocks) *GameService {
	return &GameService{
		matchRepo:   matchRepo,
		voteRepo:    voteRepo,
		broadcaster: broadcaster,
		clock:       clock,
		locks:       locks,
		games:       make(map[uint]*domain.Game),
	}
}

type gameStartedPayload struct {
	MatchID uint         `json:"matchId"`
	Game    *domain.Game `json:"game"`
}

// Start freezes the confirmed draft into a game record, moves the match to
// in_progress and announces it. The caller holds the match lock.
func (s *GameService) Start(ctx context.Context, match *domain.Match, draft *domain.Draft) (*domain.Game, error) {
	game := domain.GameFromDraft(draft, s.clock.Now())

	gameJSON, err := game.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal game: %w", err)
	}
	draftJSON, err := draft.MarshalSnapshot()
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}

	match.Status = domain.MatchStatusInProgress
	match.GameJSON = gameJSON
	match.DraftJSON = draftJSON
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("persist game start: %w", err)
	}

	s.mu.Lock()
	s.games[match.ID] = game
	s.mu.Unlock()

	log.Printf("match %d: game started", match.ID)
	s.broadcaster.Broadcast(ws.EventGameStarted, gameStartedPayload{MatchID: match.ID, Game: game})
	return game, nil
}

// Rehydrate rebuilds the in-memory game record after a restart, from
// game_json or, failing that, from draft_json.
func (s *GameService) Rehydrate(match *domain.Match) error {
	var game *domain.Game
	if len(match.GameJSON) > 0 {
		g, err := domain.GameFromJSON(match.GameJSON)
		if err != nil {
			return fmt.Errorf("match %d: parse game_json: %w", match.ID, err)
		}
		game = g
	} else if len(match.DraftJSON) > 0 {
		draft, err := domain.DraftFromSnapshot(match.ID, match.DraftJSON, s.clock.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("match %d: parse draft_json: %w", match.ID, err)
		}
		game = domain.GameFromDraft(draft, match.CreatedAt)
	} else {
		return fmt.Errorf("match %d: no game_json or draft_json to rehydrate from", match.ID)
	}

	s.mu.Lock()
	s.games[match.ID] = game
	s.mu.Unlock()
	return nil
}

func (s *GameService) Get(matchID uint) *domain.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[matchID]
}

// Forget drops the in-memory record once a match reaches a terminal state.
func (s *GameService) Forget(matchID uint) {
	s.mu.Lock()
	delete(s.games, matchID)
	s.mu.Unlock()
}

// Cancel aborts a match that is game_ready or in_progress. Any participant
// may request it.
func (s *GameService) Cancel(ctx context.Context, matchID uint, byPlayer string) error {
	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if !match.OnRoster(byPlayer) {
		return domain.ErrNotOnRoster
	}
	if !domain.CanTransition(match.Status, domain.MatchStatusCancelled) {
		return domain.ErrWrongStatus
	}

	if err := s.matchRepo.UpdateStatus(ctx, matchID, domain.MatchStatusCancelled); err != nil {
		return fmt.Errorf("cancel match %d: %w", matchID, err)
	}
	if err := s.voteRepo.DeleteByMatch(ctx, matchID); err != nil {
		log.Printf("match %d: clearing votes after cancel: %v", matchID, err)
	}
	s.Forget(matchID)

	log.Printf("match %d: cancelled by %s", matchID, byPlayer)
	s.broadcaster.Broadcast(ws.EventDraftUpdated, map[string]any{
		"matchId": matchID,
		"status":  domain.MatchStatusCancelled,
		"reason":  "cancelled_by_player",
	})
	return nil
}

type simulatedParticipant struct {
	TeamID     int `json:"teamId"`
	ChampionID int `json:"championId"`
}

type simulatedIdentity struct {
	Player struct {
		GameName     string `json:"gameName"`
		TagLine      string `json:"tagLine"`
		SummonerName string `json:"summonerName"`
	} `json:"player"`
}

type simulatedGamePayload struct {
	GameID                lcu.GameID             `json:"gameId"`
	Participants          []simulatedParticipant `json:"participants"`
	ParticipantIdentities []simulatedIdentity    `json:"participantIdentities"`
}

// SimulateFromPayload is the debug hook behind /debug/simulate-last-match:
// it fabricates an in_progress match from a supplied real-game payload so
// the vote/link flow can be exercised without playing a game.
func (s *GameService) SimulateFromPayload(ctx context.Context, raw json.RawMessage) (*domain.Match, error) {
	var payload simulatedGamePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse simulated payload: %w", err)
	}
	if len(payload.Participants) == 0 || len(payload.Participants) != len(payload.ParticipantIdentities) {
		return nil, fmt.Errorf("simulated payload needs matching participants and identities")
	}

	var team1, team2 []domain.RosterPlayer
	for i, participant := range payload.Participants {
		p := payload.ParticipantIdentities[i].Player
		identity := p.SummonerName
		if p.GameName != "" {
			identity = domain.Identity{GameName: p.GameName, TagLine: p.TagLine}.String()
		}
		switch participant.TeamID {
		case 100:
			team1 = append(team1, domain.RosterPlayer{Identity: identity, Lane: domain.AllLanes[len(team1)%len(domain.AllLanes)]})
		case 200:
			team2 = append(team2, domain.RosterPlayer{Identity: identity, Lane: domain.AllLanes[len(team2)%len(domain.AllLanes)]})
		}
	}
	if len(team1) == 0 || len(team2) == 0 {
		return nil, fmt.Errorf("simulated payload has no teams")
	}

	match := &domain.Match{
		Status:       domain.MatchStatusInProgress,
		Team1Players: domain.EncodeRoster(team1),
		Team2Players: domain.EncodeRoster(team2),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("create simulated match: %w", err)
	}

	game := &domain.Game{MatchID: match.ID, StartedAt: s.clock.Now()}
	for _, p := range team1 {
		game.Players = append(game.Players, domain.GamePlayer{Identity: p.Identity, Team: 1, AssignedLane: p.Lane})
	}
	for _, p := range team2 {
		game.Players = append(game.Players, domain.GamePlayer{Identity: p.Identity, Team: 2, AssignedLane: p.Lane})
	}
	gameJSON, err := game.Marshal()
	if err != nil {
		return nil, err
	}
	match.GameJSON = gameJSON
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("persist simulated game: %w", err)
	}

	s.mu.Lock()
	s.games[match.ID] = game
	s.mu.Unlock()

	log.Printf("match %d: simulated from payload (game %s)", match.ID, payload.GameID)
	return match, nil
}
