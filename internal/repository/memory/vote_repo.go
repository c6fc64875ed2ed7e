package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/dom/league-inhouse-server/internal/domain"
)

type MatchVoteRepository struct {
	mu     sync.Mutex
	nextID uint
	votes  map[uint]map[string]*domain.MatchVote // matchID -> lower(playerID) -> vote
}

func NewMatchVoteRepository() *MatchVoteRepository {
	return &MatchVoteRepository{nextID: 1, votes: make(map[uint]map[string]*domain.MatchVote)}
}

func (r *MatchVoteRepository) Upsert(_ context.Context, vote *domain.MatchVote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byPlayer, ok := r.votes[vote.MatchID]
	if !ok {
		byPlayer = make(map[string]*domain.MatchVote)
		r.votes[vote.MatchID] = byPlayer
	}
	key := strings.ToLower(vote.PlayerID)
	if existing, ok := byPlayer[key]; ok {
		existing.LCUGameID = vote.LCUGameID
		existing.VotedAt = vote.VotedAt
		vote.ID = existing.ID
		return nil
	}
	vote.ID = r.nextID
	r.nextID++
	clone := *vote
	byPlayer[key] = &clone
	return nil
}

func (r *MatchVoteRepository) GetByMatch(_ context.Context, matchID uint) ([]*domain.MatchVote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.MatchVote
	for _, vote := range r.votes[matchID] {
		clone := *vote
		out = append(out, &clone)
	}
	return out, nil
}

func (r *MatchVoteRepository) CountsByMatch(_ context.Context, matchID uint) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, vote := range r.votes[matchID] {
		counts[vote.LCUGameID]++
	}
	return counts, nil
}

func (r *MatchVoteRepository) Delete(_ context.Context, matchID uint, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byPlayer, ok := r.votes[matchID]
	if !ok {
		return nil
	}
	delete(byPlayer, strings.ToLower(playerID))
	return nil
}

func (r *MatchVoteRepository) DeleteByMatch(_ context.Context, matchID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.votes, matchID)
	return nil
}
