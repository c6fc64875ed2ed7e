package service

import (
	"context"
	"log"
	"strings"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/repository"
	"github.com/dom/league-inhouse-server/internal/ws"
	"github.com/jonboulle/clockwork"
)

// RestoreService rehydrates live matches from the store after a restart and
// answers "where was I" for reconnecting clients.
type RestoreService struct {
	matchRepo repository.MatchRepository
	drafts    *DraftService
	games     *GameService
	clock     clockwork.Clock
	backendID string
}

func NewRestoreService(matchRepo repository.MatchRepository, drafts *DraftService, games *GameService, clock clockwork.Clock, backendID string) *RestoreService {
	return &RestoreService{
		matchRepo: matchRepo,
		drafts:    drafts,
		games:     games,
		clock:     clock,
		backendID: backendID,
	}
}

var activeStatuses = []domain.MatchStatus{
	domain.MatchStatusDraft,
	domain.MatchStatusGameReady,
	domain.MatchStatusInProgress,
}

// Restore scans for non-terminal matches and rebuilds their in-memory
// state. A row that cannot be rebuilt is logged and left alone rather than
// aborting startup.
func (s *RestoreService) Restore(ctx context.Context) error {
	matches, err := s.matchRepo.GetByStatuses(ctx, activeStatuses)
	if err != nil {
		return err
	}

	restored := 0
	for _, match := range matches {
		switch match.Status {
		case domain.MatchStatusDraft:
			if len(match.DraftJSON) == 0 {
				log.Printf("match %d: status draft but no draft_json, skipping", match.ID)
				continue
			}
			draft, err := domain.DraftFromSnapshot(match.ID, match.DraftJSON, s.clock.Now().UnixMilli())
			if err != nil {
				log.Printf("match %d: cannot parse draft_json: %v", match.ID, err)
				continue
			}
			if err := s.drafts.Adopt(ctx, match, draft); err != nil {
				log.Printf("match %d: adopt failed: %v", match.ID, err)
				continue
			}
			restored++

		case domain.MatchStatusGameReady, domain.MatchStatusInProgress:
			if err := s.games.Rehydrate(match); err != nil {
				log.Printf("restore: %v", err)
				continue
			}
			restored++
		}
	}

	ids := make([]uint, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	if len(ids) > 0 {
		if err := s.matchRepo.TouchOwner(ctx, ids, s.backendID, s.clock.Now().UnixMilli()); err != nil {
			log.Printf("restore: claiming ownership: %v", err)
		}
	}

	log.Printf("restored %d of %d active matches", restored, len(matches))
	return nil
}

// GetMyActiveMatch returns the most recent non-terminal match whose roster
// contains identity. Exact identity match preferred; a substring scan over
// the serialized rosters is the fallback for legacy name forms.
func (s *RestoreService) GetMyActiveMatch(ctx context.Context, identity string) (*domain.Match, error) {
	matches, err := s.matchRepo.GetByStatuses(ctx, activeStatuses)
	if err != nil {
		return nil, err
	}
	for _, match := range matches {
		if match.OnRoster(identity) {
			return match, nil
		}
	}
	needle := strings.ToLower(strings.TrimSpace(identity))
	if needle != "" {
		for _, match := range matches {
			haystack := strings.ToLower(string(match.Team1Players) + string(match.Team2Players))
			if strings.Contains(haystack, needle) {
				return match, nil
			}
		}
	}
	return nil, domain.ErrMatchNotFound
}

// OnIdentify pushes the caller's active match state to the freshly
// identified session so the UI can land on the right phase. Wired to
// Hub.OnIdentify.
func (s *RestoreService) OnIdentify(sess *ws.Session, identity string) {
	ctx := context.Background()
	match, err := s.GetMyActiveMatch(ctx, identity)
	if err != nil {
		return
	}

	if update := s.drafts.SnapshotFor(match.ID); update != nil {
		sess.TrySend(ws.MustEnvelope(ws.EventDraftUpdated, update))
		return
	}
	if game := s.games.Get(match.ID); game != nil {
		sess.TrySend(ws.MustEnvelope(ws.EventGameStarted, map[string]any{
			"matchId": match.ID,
			"game":    game,
		}))
	}
}
