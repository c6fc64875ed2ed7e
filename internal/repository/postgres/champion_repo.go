package postgres

import (
	"context"
	"errors"

	"github.com/dom/league-inhouse-server/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// championRepository persists the Data Dragon catalog. Rows are keyed by the
// canonical champion id ("Aatrox"); a sync re-upserts the full set.
type championRepository struct {
	db *gorm.DB
}

func NewChampionRepository(db *gorm.DB) *championRepository {
	return &championRepository{db: db}
}

func (r *championRepository) Upsert(ctx context.Context, champion *domain.Champion) error {
	return r.UpsertMany(ctx, []*domain.Champion{champion})
}

// UpsertMany writes a catalog sync in batches; conflicting ids take the
// incoming row wholesale so renames and new art propagate.
func (r *championRepository) UpsertMany(ctx context.Context, champions []*domain.Champion) error {
	if len(champions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(champions, 100).Error
}

func (r *championRepository) GetAll(ctx context.Context) ([]*domain.Champion, error) {
	var champions []*domain.Champion
	err := r.db.WithContext(ctx).Order("name ASC").Find(&champions).Error
	if err != nil {
		return nil, err
	}
	return champions, nil
}

func (r *championRepository) GetByID(ctx context.Context, id string) (*domain.Champion, error) {
	var champion domain.Champion
	err := r.db.WithContext(ctx).First(&champion, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnknownChampion
	}
	if err != nil {
		return nil, err
	}
	return &champion, nil
}
