package postgres

import (
	"context"

	"github.com/dom/league-inhouse-server/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type matchVoteRepository struct {
	db *gorm.DB
}

func NewMatchVoteRepository(db *gorm.DB) *matchVoteRepository {
	return &matchVoteRepository{db: db}
}

// Upsert stores the normalized identity so a re-vote with a case-variant
// name hits the (match_id, player_id) conflict target instead of inserting a
// second row.
func (r *matchVoteRepository) Upsert(ctx context.Context, vote *domain.MatchVote) error {
	vote.PlayerID = domain.NormalizeIdentity(vote.PlayerID)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "match_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lcu_game_id", "voted_at"}),
	}).Create(vote).Error
}

func (r *matchVoteRepository) GetByMatch(ctx context.Context, matchID uint) ([]*domain.MatchVote, error) {
	var votes []*domain.MatchVote
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("voted_at ASC").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *matchVoteRepository) CountsByMatch(ctx context.Context, matchID uint) (map[string]int, error) {
	type countResult struct {
		LCUGameID string
		Count     int
	}

	var results []countResult
	err := r.db.WithContext(ctx).
		Model(&domain.MatchVote{}).
		Select("lcu_game_id, COUNT(*) as count").
		Where("match_id = ?", matchID).
		Group("lcu_game_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, res := range results {
		counts[res.LCUGameID] = res.Count
	}
	return counts, nil
}

func (r *matchVoteRepository) Delete(ctx context.Context, matchID uint, playerID string) error {
	return r.db.WithContext(ctx).
		Where("match_id = ? AND LOWER(player_id) = LOWER(?)", matchID, playerID).
		Delete(&domain.MatchVote{}).Error
}

func (r *matchVoteRepository) DeleteByMatch(ctx context.Context, matchID uint) error {
	return r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Delete(&domain.MatchVote{}).Error
}
