package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/lcu"
	"github.com/dom/league-inhouse-server/internal/repository"
	"github.com/dom/league-inhouse-server/internal/ws"
	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
)

// Quorum is how many roster votes for the same real game finalize a match
// without a special user.
const Quorum = 5

// RealGameFetcher is the slice of the LCU gateway the voting service needs.
type RealGameFetcher interface {
	FetchDetails(ctx context.Context, identity, gameID string) (*lcu.RealGame, json.RawMessage, error)
}

// VoteService decides which external real game a finished custom match
// corresponds to, by roster vote with a special-user override, and performs
// the terminal link write.
type VoteService struct {
	matchRepo   repository.MatchRepository
	voteRepo    repository.MatchVoteRepository
	special     *SpecialUserService
	games       *GameService
	fetcher     RealGameFetcher
	broadcaster Broadcaster
	clock       clockwork.Clock
	locks       *matchLocks
}

func NewVoteService(matchRepo repository.MatchRepository, voteRepo repository.MatchVoteRepository, special *SpecialUserService, games *GameService, fetcher RealGameFetcher, broadcaster Broadcaster, clock clockwork.Clock, locks *matchLocks) *VoteService {
	return &VoteService{
		matchRepo:   matchRepo,
		voteRepo:    voteRepo,
		special:     special,
		games:       games,
		fetcher:     fetcher,
		broadcaster: broadcaster,
		clock:       clock,
		locks:       locks,
	}
}

// VoteResult mirrors the REST response for POST /match/{id}/vote.
type VoteResult struct {
	VoteCount       int    `json:"voteCount"`
	LCUGameID       string `json:"lcuGameId"`
	ShouldLink      bool   `json:"shouldLink"`
	SpecialUserVote bool   `json:"specialUserVote"`
	VoterName       string `json:"voterName"`
}

// Vote upserts the voter's choice, re-tallies, and triggers linking when a
// special user voted or any game reached quorum.
func (s *VoteService) Vote(ctx context.Context, matchID uint, voter, lcuGameID string) (*VoteResult, error) {
	lock := s.locks.get(matchID)
	lock.Lock()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if match.Status != domain.MatchStatusInProgress {
		lock.Unlock()
		return nil, domain.ErrWrongStatus
	}
	if !match.OnRoster(voter) {
		lock.Unlock()
		return nil, domain.ErrNotOnRoster
	}

	vote := &domain.MatchVote{
		MatchID:   matchID,
		PlayerID:  voter,
		LCUGameID: lcuGameID,
		VotedAt:   s.clock.Now(),
	}
	if err := s.voteRepo.Upsert(ctx, vote); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("record vote: %w", err)
	}

	counts, err := s.voteRepo.CountsByMatch(ctx, matchID)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("tally votes: %w", err)
	}

	s.broadcaster.Broadcast(ws.EventMatchVoteUpdate, map[string]any{
		"matchId": matchID,
		"votes":   counts,
	})

	result := &VoteResult{
		VoteCount: counts[lcuGameID],
		LCUGameID: lcuGameID,
		VoterName: voter,
	}

	linkTarget := ""
	if s.special.IsSpecial(voter) {
		result.SpecialUserVote = true
		result.ShouldLink = true
		linkTarget = lcuGameID
		s.broadcaster.Broadcast(ws.EventSpecialUserVote, map[string]any{
			"matchId":   matchID,
			"voterName": voter,
			"lcuGameId": lcuGameID,
		})
	} else if id := quorumWinner(counts); id != "" {
		result.ShouldLink = true
		linkTarget = id
	}

	// The link path blocks on an LCU round trip; never hold the match lock
	// across it.
	lock.Unlock()

	if result.ShouldLink {
		if err := s.LinkMatch(ctx, matchID, linkTarget, voter); err != nil {
			return result, err
		}
	}
	return result, nil
}

// quorumWinner returns the real-game id that reached quorum, preferring the
// higher count and breaking ties lexicographically.
func quorumWinner(counts map[string]int) string {
	winner := ""
	best := 0
	for id, count := range counts {
		if count < Quorum {
			continue
		}
		if count > best || (count == best && (winner == "" || id < winner)) {
			winner = id
			best = count
		}
	}
	return winner
}

// Votes returns the current tally.
func (s *VoteService) Votes(ctx context.Context, matchID uint) (map[string]int, error) {
	return s.voteRepo.CountsByMatch(ctx, matchID)
}

// Retract removes one player's vote and re-broadcasts the tally.
func (s *VoteService) Retract(ctx context.Context, matchID uint, playerID string) error {
	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.voteRepo.Delete(ctx, matchID, playerID); err != nil {
		return err
	}
	counts, err := s.voteRepo.CountsByMatch(ctx, matchID)
	if err != nil {
		return err
	}
	s.broadcaster.Broadcast(ws.EventMatchVoteUpdate, map[string]any{
		"matchId": matchID,
		"votes":   counts,
	})
	return nil
}

// LinkMatch fetches the chosen real game through an eligible roster session,
// resolves the winner and duration, and performs the single terminal write.
// The fetch happens outside the match lock.
func (s *VoteService) LinkMatch(ctx context.Context, matchID uint, realGameID, preferredIdentity string) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != domain.MatchStatusInProgress {
		return domain.ErrAlreadyLinked
	}

	game, raw, err := s.fetchViaRoster(ctx, match, realGameID, preferredIdentity)
	if err != nil {
		return err
	}

	winner := game.Winner()
	duration := game.DurationSeconds()

	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.matchRepo.LinkRealGame(ctx, matchID, realGameID, datatypes.JSON(raw), winner, duration, s.clock.Now()); err != nil {
		return err
	}
	s.games.Forget(matchID)

	log.Printf("match %d: linked to real game %s (winner %v)", matchID, realGameID, winner)
	s.broadcaster.Broadcast(ws.EventMatchLinked, map[string]any{
		"matchId":    matchID,
		"realGameId": realGameID,
		"winner":     winner,
	})
	return nil
}

// fetchViaRoster tries the preferred voter's session first, then every other
// roster member with a reachable game client.
func (s *VoteService) fetchViaRoster(ctx context.Context, match *domain.Match, realGameID, preferredIdentity string) (*lcu.RealGame, json.RawMessage, error) {
	identities := []string{preferredIdentity}
	for _, p := range match.Roster() {
		if !domain.SameIdentity(p.Identity, preferredIdentity) {
			identities = append(identities, p.Identity)
		}
	}

	var lastErr error = lcu.ErrLCUUnreachable
	for _, identity := range identities {
		if domain.IsBot(identity) {
			continue
		}
		game, raw, err := s.fetcher.FetchDetails(ctx, identity, realGameID)
		if err == nil {
			return game, raw, nil
		}
		lastErr = err
		if !errors.Is(err, lcu.ErrLCUUnreachable) {
			break
		}
	}
	return nil, nil, lastErr
}
