package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dom/league-inhouse-server/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *matchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func (r *matchRepository) GetByID(ctx context.Context, id uint) (*domain.Match, error) {
	var match domain.Match
	err := r.db.WithContext(ctx).First(&match, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *matchRepository) Update(ctx context.Context, match *domain.Match) error {
	return r.db.WithContext(ctx).Save(match).Error
}

func (r *matchRepository) UpdateDraft(ctx context.Context, id uint, draft datatypes.JSON, ownerID string, heartbeatMs int64) error {
	return r.db.WithContext(ctx).Model(&domain.Match{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"draft_json":       draft,
			"owner_backend_id": ownerID,
			"owner_heartbeat":  heartbeatMs,
		}).Error
}

func (r *matchRepository) UpdateStatus(ctx context.Context, id uint, status domain.MatchStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Match{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *matchRepository) GetByStatuses(ctx context.Context, statuses []domain.MatchStatus) ([]*domain.Match, error) {
	var matches []*domain.Match
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *matchRepository) LinkRealGame(ctx context.Context, id uint, realGameID string, payload datatypes.JSON, winner *int, durationSec *int, completedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Match{}).
		Where("id = ? AND status = ?", id, domain.MatchStatusInProgress).
		Updates(map[string]interface{}{
			"linked_real_game_id": realGameID,
			"lcu_match_data":      payload,
			"actual_winner":       winner,
			"actual_duration":     durationSec,
			"status":              domain.MatchStatusCompleted,
			"completed_at":        completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAlreadyLinked
	}
	return nil
}

func (r *matchRepository) TouchOwner(ctx context.Context, ids []uint, ownerID string, heartbeatMs int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.Match{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"owner_backend_id": ownerID,
			"owner_heartbeat":  heartbeatMs,
		}).Error
}
