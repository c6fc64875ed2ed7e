package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dom/league-inhouse-server/internal/domain"
)

type ChampionRepository struct {
	mu        sync.Mutex
	champions map[string]*domain.Champion
}

func NewChampionRepository() *ChampionRepository {
	return &ChampionRepository{champions: make(map[string]*domain.Champion)}
}

func (r *ChampionRepository) Upsert(_ context.Context, champion *domain.Champion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *champion
	r.champions[champion.ID] = &clone
	return nil
}

func (r *ChampionRepository) UpsertMany(ctx context.Context, champions []*domain.Champion) error {
	for _, c := range champions {
		if err := r.Upsert(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChampionRepository) GetAll(_ context.Context) ([]*domain.Champion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Champion, 0, len(r.champions))
	for _, c := range r.champions {
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ChampionRepository) GetByID(_ context.Context, id string) (*domain.Champion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	champion, ok := r.champions[id]
	if !ok {
		return nil, domain.ErrUnknownChampion
	}
	clone := *champion
	return &clone, nil
}
