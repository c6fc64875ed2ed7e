package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/repository"
)

// SpecialUserService answers isSpecial for match-vote overrides. The set
// lives in the settings table as a JSON array and is cached process-wide;
// writes refresh the cache.
type SpecialUserService struct {
	settingRepo repository.SettingRepository

	mu    sync.RWMutex
	users []string
}

func NewSpecialUserService(settingRepo repository.SettingRepository) *SpecialUserService {
	return &SpecialUserService{settingRepo: settingRepo}
}

// Load reads the set from the store. Called at startup; a missing row is an
// empty set, not an error.
func (s *SpecialUserService) Load(ctx context.Context) error {
	setting, err := s.settingRepo.Get(ctx, domain.SettingSpecialUsers)
	if err != nil {
		return fmt.Errorf("load special users: %w", err)
	}
	var users []string
	if setting != nil {
		if err := json.Unmarshal(setting.Value, &users); err != nil {
			return fmt.Errorf("parse special users: %w", err)
		}
	}
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	log.Printf("loaded %d special users", len(users))
	return nil
}

// IsSpecial compares case-insensitively on the trimmed identity.
func (s *SpecialUserService) IsSpecial(identity string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if domain.SameIdentity(u, identity) {
			return true
		}
	}
	return false
}

func (s *SpecialUserService) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.users...)
}

// Set persists the new list and refreshes the cached copy.
func (s *SpecialUserService) Set(ctx context.Context, users []string) error {
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	if err := s.settingRepo.Set(ctx, domain.SettingSpecialUsers, data); err != nil {
		return fmt.Errorf("save special users: %w", err)
	}
	s.mu.Lock()
	s.users = append([]string(nil), users...)
	s.mu.Unlock()
	return nil
}
