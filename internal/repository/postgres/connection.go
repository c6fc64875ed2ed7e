package postgres

import (
	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Forward-only additive migrations
	err = db.AutoMigrate(
		&domain.Match{},
		&domain.MatchVote{},
		&domain.Champion{},
		&domain.Setting{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Match:     NewMatchRepository(db),
		MatchVote: NewMatchVoteRepository(db),
		Champion:  NewChampionRepository(db),
		Setting:   NewSettingRepository(db),
	}
}
