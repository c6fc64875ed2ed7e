package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dom/league-inhouse-server/internal/domain"
	"gorm.io/datatypes"
)

type SettingRepository struct {
	mu       sync.Mutex
	settings map[string]*domain.Setting
}

func NewSettingRepository() *SettingRepository {
	return &SettingRepository{settings: make(map[string]*domain.Setting)}
}

func (r *SettingRepository) Get(_ context.Context, key string) (*domain.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	setting, ok := r.settings[key]
	if !ok {
		return nil, nil
	}
	clone := *setting
	return &clone, nil
}

func (r *SettingRepository) Set(_ context.Context, key string, value datatypes.JSON) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = &domain.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	return nil
}

// NewRepositories bundles the in-memory implementations.
func NewRepositories() (*MatchRepository, *MatchVoteRepository, *ChampionRepository, *SettingRepository) {
	return NewMatchRepository(), NewMatchVoteRepository(), NewChampionRepository(), NewSettingRepository()
}
