package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/repository"
	"github.com/dom/league-inhouse-server/internal/ws"
	"github.com/jonboulle/clockwork"
)

const (
	// ActionTimeout is the per-action pick/ban window.
	ActionTimeout = 30 * time.Second
	// ConfirmTimeout bounds the final 10-of-10 confirmation window.
	ConfirmTimeout = 60 * time.Second
)

// botPlayDelay is when a bot commits its action; a little jitter keeps
// simultaneous bot drafts from moving in lockstep.
const (
	botPlayDelay     = ActionTimeout / 2
	botPlayJitterMax = 5 * time.Second
)

// DraftService runs the 20-action pick/ban state machine for every match in
// status draft, including the final confirmation window. All mutations of
// one match happen under its match lock; the persisted draft_json row is the
// source of truth for crash recovery.
type DraftService struct {
	matchRepo   repository.MatchRepository
	champions   *ChampionService
	games       *GameService
	broadcaster Broadcaster
	clock       clockwork.Clock
	locks       *matchLocks
	backendID   string

	mu     sync.RWMutex
	drafts map[uint]*draftState
}

type draftState struct {
	draft *domain.Draft
	// confirmDeadlineMs is set when the 20th action resolves; zero before.
	confirmDeadlineMs int64
	// botPlayAtMs is the autoplay instant when the current action belongs
	// to a bot; zero otherwise.
	botPlayAtMs int64
}

func NewDraftService(matchRepo repository.MatchRepository, champions *ChampionService, games *GameService, broadcaster Broadcaster, clock clockwork.Clock, locks *matchLocks, backendID string) *DraftService {
	return &DraftService{
		matchRepo:   matchRepo,
		champions:   champions,
		games:       games,
		broadcaster: broadcaster,
		clock:       clock,
		locks:       locks,
		backendID:   backendID,
		drafts:      make(map[uint]*draftState),
	}
}

func (s *DraftService) nowMs() int64 {
	return s.clock.Now().UnixMilli()
}

type DraftUpdate struct {
	*domain.DraftSnapshot
	MatchID       uint   `json:"matchId"`
	TimeRemaining int64  `json:"timeRemaining"`
	Reason        string `json:"reason,omitempty"`
}

type confirmationPayload struct {
	MatchID        uint     `json:"matchId"`
	Confirmations  []string `json:"confirmations"`
	ConfirmedCount int      `json:"confirmedCount"`
	TotalPlayers   int      `json:"totalPlayers"`
	AllConfirmed   bool     `json:"allConfirmed"`
}

// ConfirmResult is returned to the REST caller of confirm-final-draft.
type ConfirmResult struct {
	ConfirmedCount int
	TotalPlayers   int
	AllConfirmed   bool
}

// StartDraft builds the draft for a freshly created match, persists the
// initial snapshot and announces it.
func (s *DraftService) StartDraft(ctx context.Context, match *domain.Match) error {
	lock := s.locks.get(match.ID)
	lock.Lock()
	defer lock.Unlock()

	now := s.nowMs()
	draft := domain.NewDraft(match.ID, match.Team1(), match.Team2(), now)
	st := &draftState{draft: draft}

	if err := s.persistLocked(ctx, st); err != nil {
		return fmt.Errorf("start draft for match %d: %w", match.ID, err)
	}

	s.mu.Lock()
	s.drafts[match.ID] = st
	s.mu.Unlock()

	s.scheduleBotLocked(st)
	log.Printf("match %d: draft started", match.ID)
	s.broadcastDraftLocked(st, "")
	return nil
}

// Adopt registers a draft rehydrated from draft_json after a restart. Timer
// windows restart from now as a grace period.
func (s *DraftService) Adopt(ctx context.Context, match *domain.Match, draft *domain.Draft) error {
	lock := s.locks.get(match.ID)
	lock.Lock()
	defer lock.Unlock()

	st := &draftState{draft: draft}
	if draft.Complete() {
		st.confirmDeadlineMs = s.nowMs() + ConfirmTimeout.Milliseconds()
	}

	if err := s.persistLocked(ctx, st); err != nil {
		return fmt.Errorf("adopt draft for match %d: %w", match.ID, err)
	}

	s.mu.Lock()
	s.drafts[match.ID] = st
	s.mu.Unlock()

	s.scheduleBotLocked(st)
	log.Printf("match %d: draft restored at action %d", match.ID, draft.CurrentIndex)
	s.broadcastDraftLocked(st, "")
	return nil
}

// HasDraft reports whether the match has a live draft on this instance.
func (s *DraftService) HasDraft(matchID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.drafts[matchID]
	return ok
}

// ActiveMatchIDs lists matches with a live draft; the scheduler heartbeats
// their rows.
func (s *DraftService) ActiveMatchIDs() []uint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint, 0, len(s.drafts))
	for id := range s.drafts {
		ids = append(ids, id)
	}
	return ids
}

func (s *DraftService) state(matchID uint) *draftState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[matchID]
}

func (s *DraftService) drop(matchID uint) {
	s.mu.Lock()
	delete(s.drafts, matchID)
	s.mu.Unlock()
}

// ProcessAction accepts a human pick or ban for the current action.
func (s *DraftService) ProcessAction(ctx context.Context, matchID uint, actionIndex int, championRef, byPlayer string) error {
	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()

	st := s.state(matchID)
	if st == nil {
		return domain.ErrDraftNotActive
	}
	draft := st.draft
	if draft.Complete() {
		return domain.ErrDraftComplete
	}
	if actionIndex != draft.CurrentIndex {
		log.Printf("match %d: stale action %d from %s (current %d)", matchID, actionIndex, byPlayer, draft.CurrentIndex)
		return domain.ErrOutOfOrder
	}

	action := draft.CurrentAction()
	if owner := draft.SlotOwner(action); owner == nil || !domain.SameIdentity(owner.Identity, byPlayer) {
		// Slot owner preferred; any member of the acting team accepted.
		if !draft.OnTeam(action.Team, byPlayer) {
			expected := "<empty slot>"
			if owner := draft.SlotOwner(action); owner != nil {
				expected = owner.Identity
			}
			log.Printf("match %d: action %d rejected: %s is not on team %d (slot owner %s)", matchID, actionIndex, byPlayer, action.Team, expected)
			return domain.ErrNotOnTeam
		}
	}

	key, name, err := s.champions.NormalizeToKey(championRef)
	if err != nil {
		return err
	}
	if draft.UsedKeys(-1)[key] {
		return domain.ErrChampionTaken
	}

	return s.commitActionLocked(ctx, st, key, name, byPlayer)
}

// commitActionLocked writes the current action, advances the pointer,
// persists and broadcasts. A persist failure rolls the in-memory state back;
// no broadcast happens in that case.
func (s *DraftService) commitActionLocked(ctx context.Context, st *draftState, key string, name *string, byPlayer string) error {
	draft := st.draft
	action := draft.CurrentAction()

	prevAction := *action
	prevIndex := draft.CurrentIndex
	prevStart := draft.LastActionStartMs
	prevDeadline := st.confirmDeadlineMs
	var prevConfirmations map[string]string

	now := s.nowMs()
	action.ChampionID = &key
	action.ChampionName = name
	action.ByPlayer = &byPlayer
	draft.CurrentIndex++
	draft.LastActionStartMs = now

	if draft.Complete() {
		prevConfirmations = make(map[string]string, len(draft.Confirmations))
		for k, v := range draft.Confirmations {
			prevConfirmations[k] = v
		}
		st.confirmDeadlineMs = now + ConfirmTimeout.Milliseconds()
		s.autoConfirmBotsLocked(st)
	}

	if err := s.persistLocked(ctx, st); err != nil {
		*action = prevAction
		draft.CurrentIndex = prevIndex
		draft.LastActionStartMs = prevStart
		st.confirmDeadlineMs = prevDeadline
		if prevConfirmations != nil {
			draft.Confirmations = prevConfirmations
		}
		return fmt.Errorf("persist action %d for match %d: %w", prevIndex, draft.MatchID, err)
	}

	s.scheduleBotLocked(st)
	s.broadcastDraftLocked(st, "")
	if draft.Complete() {
		s.broadcastConfirmationsLocked(st)
	}
	return nil
}

func (s *DraftService) autoConfirmBotsLocked(st *draftState) {
	for _, p := range st.draft.Team1 {
		if domain.IsBot(p.Identity) {
			st.draft.Confirm(p.Identity)
		}
	}
	for _, p := range st.draft.Team2 {
		if domain.IsBot(p.Identity) {
			st.draft.Confirm(p.Identity)
		}
	}
}

// ChangePick replaces the champion of an already-played pick before the game
// starts. Strict: only the seat owner may edit their own pick. All accrued
// confirmations are invalidated.
func (s *DraftService) ChangePick(ctx context.Context, matchID uint, actionIndex int, championRef, byPlayer string) error {
	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()

	st := s.state(matchID)
	if st == nil {
		return domain.ErrDraftNotActive
	}
	draft := st.draft
	if actionIndex < 0 || actionIndex >= domain.TotalActions {
		return domain.ErrOutOfOrder
	}
	action := &draft.Actions[actionIndex]
	if action.Type != domain.ActionTypePick {
		return domain.ErrNotAPick
	}
	if !action.Completed() {
		return domain.ErrActionNotPlayed
	}
	owner := draft.SlotOwner(action)
	if owner == nil || !domain.SameIdentity(owner.Identity, byPlayer) {
		expected := "<empty slot>"
		if owner != nil {
			expected = owner.Identity
		}
		log.Printf("match %d: change-pick %d rejected: %s is not the seat owner (%s)", matchID, actionIndex, byPlayer, expected)
		return domain.ErrNotSlotOwner
	}

	key, name, err := s.champions.NormalizeToKey(championRef)
	if err != nil {
		return err
	}
	if draft.UsedKeys(actionIndex)[key] {
		return domain.ErrChampionTaken
	}

	prevAction := *action
	prevConfirmations := draft.Confirmations

	action.ChampionID = &key
	action.ChampionName = name
	action.ByPlayer = &byPlayer
	// A swapped pick voids prior consent; everyone re-confirms.
	draft.Confirmations = make(map[string]string)
	s.autoConfirmBotsLocked(st)

	if err := s.persistLocked(ctx, st); err != nil {
		*action = prevAction
		draft.Confirmations = prevConfirmations
		return fmt.Errorf("persist change-pick %d for match %d: %w", actionIndex, matchID, err)
	}

	log.Printf("match %d: %s changed pick %d to %s", matchID, byPlayer, actionIndex, key)
	s.broadcastDraftLocked(st, "")
	if draft.Complete() {
		s.broadcastConfirmationsLocked(st)
	}
	return nil
}

// ConfirmPlayer records one roster member's final-draft confirmation. The
// set is case-insensitive and idempotent; the 10th confirmation freezes the
// draft and starts the game.
func (s *DraftService) ConfirmPlayer(ctx context.Context, matchID uint, byPlayer string) (*ConfirmResult, error) {
	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()

	st := s.state(matchID)
	if st == nil {
		return nil, domain.ErrDraftNotActive
	}
	draft := st.draft
	if !draft.Complete() {
		return nil, domain.ErrWrongStatus
	}
	if !draft.OnTeam(1, byPlayer) && !draft.OnTeam(2, byPlayer) {
		return nil, domain.ErrNotOnRoster
	}

	if draft.Confirm(byPlayer) {
		if err := s.persistLocked(ctx, st); err != nil {
			delete(draft.Confirmations, domain.NormalizeIdentity(byPlayer))
			return nil, fmt.Errorf("persist confirmation for match %d: %w", matchID, err)
		}
	}

	total := len(draft.Team1) + len(draft.Team2)
	result := &ConfirmResult{
		ConfirmedCount: len(draft.Confirmations),
		TotalPlayers:   total,
		AllConfirmed:   len(draft.Confirmations) >= total,
	}
	s.broadcastConfirmationsLocked(st)

	if result.AllConfirmed {
		if err := s.finalizeLocked(ctx, st); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// finalizeLocked moves the match through game_ready into in_progress via the
// game monitor.
func (s *DraftService) finalizeLocked(ctx context.Context, st *draftState) error {
	matchID := st.draft.MatchID
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != domain.MatchStatusDraft {
		return domain.ErrWrongStatus
	}

	match.Status = domain.MatchStatusGameReady
	if _, err := s.games.Start(ctx, match, st.draft); err != nil {
		match.Status = domain.MatchStatusDraft
		return err
	}
	s.drop(matchID)
	return nil
}

// Cancel aborts a live draft and moves the match row to cancelled.
func (s *DraftService) Cancel(ctx context.Context, matchID uint, reason string) error {
	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()
	return s.cancelLocked(ctx, matchID, reason)
}

func (s *DraftService) cancelLocked(ctx context.Context, matchID uint, reason string) error {
	st := s.state(matchID)
	if st == nil {
		return domain.ErrDraftNotActive
	}
	if err := s.matchRepo.UpdateStatus(ctx, matchID, domain.MatchStatusCancelled); err != nil {
		return fmt.Errorf("cancel match %d: %w", matchID, err)
	}
	s.drop(matchID)
	log.Printf("match %d: draft cancelled (%s)", matchID, reason)
	s.broadcastDraftLocked(st, reason)
	return nil
}

// Tick drives timeouts and bot autoplay. The scheduler calls it at least
// once per second; it is idempotent and safe to re-run.
func (s *DraftService) Tick(ctx context.Context) {
	for _, matchID := range s.ActiveMatchIDs() {
		s.tickMatch(ctx, matchID)
	}
}

func (s *DraftService) tickMatch(ctx context.Context, matchID uint) {
	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()

	st := s.state(matchID)
	if st == nil {
		return
	}
	draft := st.draft
	now := s.nowMs()

	if draft.Complete() {
		total := len(draft.Team1) + len(draft.Team2)
		if st.confirmDeadlineMs > 0 && now >= st.confirmDeadlineMs && len(draft.Confirmations) < total {
			if err := s.cancelLocked(ctx, matchID, "confirmation_timeout"); err != nil {
				log.Printf("match %d: confirmation timeout: %v", matchID, err)
			}
		}
		return
	}

	if now-draft.LastActionStartMs >= ActionTimeout.Milliseconds() {
		s.skipCurrentLocked(ctx, st)
		return
	}

	if st.botPlayAtMs > 0 && now >= st.botPlayAtMs {
		s.botPlayLocked(ctx, st)
	}
}

func (s *DraftService) skipCurrentLocked(ctx context.Context, st *draftState) {
	draft := st.draft
	index := draft.CurrentIndex
	skipped := domain.SkippedChampion
	if err := s.commitActionLocked(ctx, st, skipped, &skipped, domain.TimeoutActor); err != nil {
		log.Printf("match %d: auto-skip action %d: %v", draft.MatchID, index, err)
		return
	}
	log.Printf("match %d: action %d timed out, skipped", draft.MatchID, index)
}

func (s *DraftService) botPlayLocked(ctx context.Context, st *draftState) {
	draft := st.draft
	action := draft.CurrentAction()
	owner := draft.SlotOwner(action)
	if owner == nil || !domain.IsBot(owner.Identity) {
		st.botPlayAtMs = 0
		return
	}

	used := draft.UsedKeys(-1)
	var candidates []string
	for _, key := range s.champions.AllKeys() {
		if !used[key] {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		s.skipCurrentLocked(ctx, st)
		return
	}

	key := candidates[rand.Intn(len(candidates))]
	name := s.champions.NameForKey(key)
	if err := s.commitActionLocked(ctx, st, key, name, owner.Identity); err != nil {
		log.Printf("match %d: bot autoplay: %v", draft.MatchID, err)
	}
}

// scheduleBotLocked arms the autoplay instant when the new current action
// belongs to a bot.
func (s *DraftService) scheduleBotLocked(st *draftState) {
	st.botPlayAtMs = 0
	action := st.draft.CurrentAction()
	if action == nil {
		return
	}
	owner := st.draft.SlotOwner(action)
	if owner == nil || !domain.IsBot(owner.Identity) {
		return
	}
	jitter := rand.Int63n(botPlayJitterMax.Milliseconds())
	st.botPlayAtMs = st.draft.LastActionStartMs + botPlayDelay.Milliseconds() + jitter
}

func (s *DraftService) persistLocked(ctx context.Context, st *draftState) error {
	data, err := st.draft.MarshalSnapshot()
	if err != nil {
		return err
	}
	return s.matchRepo.UpdateDraft(ctx, st.draft.MatchID, data, s.backendID, s.nowMs())
}

// timeRemainingLocked is the countdown clients display: seconds left on the
// current action, or on the confirmation window once the draft is complete.
func (s *DraftService) timeRemainingLocked(st *draftState, nowMs int64) int64 {
	var deadline int64
	if st.draft.Complete() {
		deadline = st.confirmDeadlineMs
	} else {
		deadline = st.draft.LastActionStartMs + ActionTimeout.Milliseconds()
	}
	if deadline == 0 {
		return 0
	}
	remaining := deadline - nowMs
	if remaining <= 0 {
		return 0
	}
	return (remaining + 999) / 1000
}

func (s *DraftService) broadcastDraftLocked(st *draftState, reason string) {
	s.broadcaster.Broadcast(ws.EventDraftUpdated, DraftUpdate{
		DraftSnapshot: st.draft.Snapshot(),
		MatchID:       st.draft.MatchID,
		TimeRemaining: s.timeRemainingLocked(st, s.nowMs()),
		Reason:        reason,
	})
}

func (s *DraftService) broadcastConfirmationsLocked(st *draftState) {
	draft := st.draft
	total := len(draft.Team1) + len(draft.Team2)
	s.broadcaster.Broadcast(ws.EventDraftConfirmationUpdate, confirmationPayload{
		MatchID:        draft.MatchID,
		Confirmations:  draft.ConfirmationList(),
		ConfirmedCount: len(draft.Confirmations),
		TotalPlayers:   total,
		AllConfirmed:   len(draft.Confirmations) >= total,
	})
}

// SnapshotFor returns the serialized state for a live draft, or nil.
func (s *DraftService) SnapshotFor(matchID uint) *DraftUpdate {
	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()

	st := s.state(matchID)
	if st == nil {
		return nil
	}
	return &DraftUpdate{
		DraftSnapshot: st.draft.Snapshot(),
		MatchID:       matchID,
		TimeRemaining: s.timeRemainingLocked(st, s.nowMs()),
	}
}
