package repository

import (
	"context"
	"time"

	"github.com/dom/league-inhouse-server/internal/domain"
	"gorm.io/datatypes"
)

type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	GetByID(ctx context.Context, id uint) (*domain.Match, error)
	Update(ctx context.Context, match *domain.Match) error
	// UpdateDraft persists the serialized draft plus owner bookkeeping.
	UpdateDraft(ctx context.Context, id uint, draft datatypes.JSON, ownerID string, heartbeatMs int64) error
	UpdateStatus(ctx context.Context, id uint, status domain.MatchStatus) error
	// GetByStatuses returns matches in any of the given states, newest first.
	GetByStatuses(ctx context.Context, statuses []domain.MatchStatus) ([]*domain.Match, error)
	// LinkRealGame performs the single terminal write: external id, payload,
	// winner, duration, completed status and timestamp together. Fails with
	// domain.ErrAlreadyLinked unless the match is still in_progress.
	LinkRealGame(ctx context.Context, id uint, realGameID string, payload datatypes.JSON, winner *int, durationSec *int, completedAt time.Time) error
	TouchOwner(ctx context.Context, ids []uint, ownerID string, heartbeatMs int64) error
}

type MatchVoteRepository interface {
	// Upsert inserts or replaces the (match, player) vote.
	Upsert(ctx context.Context, vote *domain.MatchVote) error
	GetByMatch(ctx context.Context, matchID uint) ([]*domain.MatchVote, error)
	CountsByMatch(ctx context.Context, matchID uint) (map[string]int, error)
	Delete(ctx context.Context, matchID uint, playerID string) error
	DeleteByMatch(ctx context.Context, matchID uint) error
}

type ChampionRepository interface {
	Upsert(ctx context.Context, champion *domain.Champion) error
	UpsertMany(ctx context.Context, champions []*domain.Champion) error
	GetAll(ctx context.Context) ([]*domain.Champion, error)
	GetByID(ctx context.Context, id string) (*domain.Champion, error)
}

type SettingRepository interface {
	Get(ctx context.Context, key string) (*domain.Setting, error)
	Set(ctx context.Context, key string, value datatypes.JSON) error
}

type Repositories struct {
	Match     MatchRepository
	MatchVote MatchVoteRepository
	Champion  ChampionRepository
	Setting   SettingRepository
}
