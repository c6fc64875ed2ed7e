// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces for tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dom/league-inhouse-server/internal/domain"
	"gorm.io/datatypes"
)

type MatchRepository struct {
	mu      sync.Mutex
	nextID  uint
	matches map[uint]*domain.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{nextID: 1, matches: make(map[uint]*domain.Match)}
}

func (r *MatchRepository) Create(_ context.Context, match *domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match.ID = r.nextID
	r.nextID++
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now()
	}
	clone := *match
	r.matches[match.ID] = &clone
	return nil
}

func (r *MatchRepository) GetByID(_ context.Context, id uint) (*domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	clone := *match
	return &clone, nil
}

func (r *MatchRepository) Update(_ context.Context, match *domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[match.ID]; !ok {
		return domain.ErrMatchNotFound
	}
	clone := *match
	r.matches[match.ID] = &clone
	return nil
}

func (r *MatchRepository) UpdateDraft(_ context.Context, id uint, draft datatypes.JSON, ownerID string, heartbeatMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return domain.ErrMatchNotFound
	}
	match.DraftJSON = draft
	match.OwnerBackendID = ownerID
	match.OwnerHeartbeat = heartbeatMs
	return nil
}

func (r *MatchRepository) UpdateStatus(_ context.Context, id uint, status domain.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return domain.ErrMatchNotFound
	}
	match.Status = status
	return nil
}

func (r *MatchRepository) GetByStatuses(_ context.Context, statuses []domain.MatchStatus) ([]*domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Match
	for _, match := range r.matches {
		for _, s := range statuses {
			if match.Status == s {
				clone := *match
				out = append(out, &clone)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MatchRepository) LinkRealGame(_ context.Context, id uint, realGameID string, payload datatypes.JSON, winner *int, durationSec *int, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return domain.ErrMatchNotFound
	}
	if match.Status != domain.MatchStatusInProgress {
		return domain.ErrAlreadyLinked
	}
	match.LinkedRealGameID = &realGameID
	match.RealGameJSON = payload
	match.ActualWinner = winner
	match.ActualDuration = durationSec
	match.Status = domain.MatchStatusCompleted
	at := completedAt
	match.CompletedAt = &at
	return nil
}

func (r *MatchRepository) TouchOwner(_ context.Context, ids []uint, ownerID string, heartbeatMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if match, ok := r.matches[id]; ok {
			match.OwnerBackendID = ownerID
			match.OwnerHeartbeat = heartbeatMs
		}
	}
	return nil
}
