package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dom/league-inhouse-server/internal/config"
	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/repository"
)

const (
	dataDragonBaseURL = "https://ddragon.leagueoflegends.com"
)

// ChampionService owns the champion catalog: a Data Dragon sync at a pinned
// version, the postgres-backed store, and process-wide key/name caches used
// by the draft engine on every action.
type ChampionService struct {
	championRepo repository.ChampionRepository
	cfg          *config.Config
	httpClient   *http.Client

	mu        sync.RWMutex
	keyToName map[string]string // "266" -> "Aatrox"
	nameToKey map[string]string // lower(name or id) -> key
	keys      []string
}

func NewChampionService(championRepo repository.ChampionRepository, cfg *config.Config) *ChampionService {
	return &ChampionService{
		championRepo: championRepo,
		cfg:          cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		keyToName: make(map[string]string),
		nameToKey: make(map[string]string),
	}
}

func (s *ChampionService) GetAllChampions(ctx context.Context) ([]*domain.Champion, error) {
	return s.championRepo.GetAll(ctx)
}

type DataDragonChampionsResponse struct {
	Type    string                        `json:"type"`
	Format  string                        `json:"format"`
	Version string                        `json:"version"`
	Data    map[string]DataDragonChampion `json:"data"`
}

type DataDragonChampion struct {
	ID    string   `json:"id"`
	Key   string   `json:"key"`
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Image struct {
		Full string `json:"full"`
	} `json:"image"`
}

// SyncFromDataDragon fetches the catalog at the pinned version, upserts it
// and refreshes the caches.
func (s *ChampionService) SyncFromDataDragon(ctx context.Context) (int, string, error) {
	version := s.cfg.DataDragonVersion

	championsURL := fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", dataDragonBaseURL, version)
	resp, err := s.httpClient.Get(championsURL)
	if err != nil {
		return 0, "", fmt.Errorf("failed to fetch champions: %w", err)
	}
	defer resp.Body.Close()

	var championsResp DataDragonChampionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&championsResp); err != nil {
		return 0, "", fmt.Errorf("failed to decode champions: %w", err)
	}

	champions := make([]*domain.Champion, 0, len(championsResp.Data))
	for _, c := range championsResp.Data {
		tagsJSON, _ := json.Marshal(c.Tags)
		champion := &domain.Champion{
			ID:           c.ID,
			Key:          c.Key,
			Name:         c.Name,
			Title:        c.Title,
			ImageURL:     fmt.Sprintf("%s/cdn/%s/img/champion/%s", dataDragonBaseURL, version, c.Image.Full),
			Tags:         tagsJSON,
			LastSyncedAt: time.Now(),
		}
		champions = append(champions, champion)
	}

	if err := s.championRepo.UpsertMany(ctx, champions); err != nil {
		return 0, "", fmt.Errorf("failed to upsert champions: %w", err)
	}

	s.cacheChampions(champions)
	return len(champions), version, nil
}

// LoadCache warms the lookup caches from the store at startup.
func (s *ChampionService) LoadCache(ctx context.Context) error {
	champions, err := s.championRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load champion cache: %w", err)
	}
	s.cacheChampions(champions)
	return nil
}

func (s *ChampionService) cacheChampions(champions []*domain.Champion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyToName = make(map[string]string, len(champions))
	s.nameToKey = make(map[string]string, len(champions)*2)
	s.keys = s.keys[:0]
	for _, c := range champions {
		s.keyToName[c.Key] = c.Name
		s.nameToKey[strings.ToLower(c.Name)] = c.Key
		s.nameToKey[strings.ToLower(c.ID)] = c.Key
		s.keys = append(s.keys, c.Key)
	}
}

// NormalizeToKey resolves a champion reference (numeric key or canonical
// name) to the numeric key plus display name. The name may be nil when a
// numeric key is not in the catalog; an unknown name is an error.
func (s *ChampionService) NormalizeToKey(ref string) (string, *string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil, domain.ErrUnknownChampion
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if isNumeric(ref) {
		if name, ok := s.keyToName[ref]; ok {
			return ref, &name, nil
		}
		return ref, nil, nil
	}
	if key, ok := s.nameToKey[strings.ToLower(ref)]; ok {
		name := s.keyToName[key]
		return key, &name, nil
	}
	return "", nil, domain.ErrUnknownChampion
}

// NameForKey returns the display name for a key, nil when uncached.
func (s *ChampionService) NameForKey(key string) *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name, ok := s.keyToName[key]; ok {
		return &name
	}
	return nil
}

// AllKeys returns a copy of every cached champion key; the bot autoplayer
// draws from it.
func (s *ChampionService) AllKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.keys...)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
