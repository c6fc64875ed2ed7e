package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/repository"
	"github.com/dom/league-inhouse-server/internal/ws"
	"github.com/jonboulle/clockwork"
)

// teamSize players per side; matchSize triggers the balancer.
const (
	teamSize  = 5
	matchSize = 10
)

// QueueEntry is one waiting player with their lane preferences.
type QueueEntry struct {
	Identity  string      `json:"identity"`
	Primary   domain.Lane `json:"primaryLane"`
	Secondary domain.Lane `json:"secondaryLane"`
	MMR       int         `json:"mmr"`
	JoinedAt  time.Time   `json:"joinedAt"`
}

// QueueService holds the in-memory waiting list and, at ten players, splits
// them into the two most evenly rated lane-legal teams and starts a draft.
type QueueService struct {
	matchRepo   repository.MatchRepository
	drafts      *DraftService
	broadcaster Broadcaster
	clock       clockwork.Clock

	mu    sync.Mutex
	queue []QueueEntry
}

func NewQueueService(matchRepo repository.MatchRepository, drafts *DraftService, broadcaster Broadcaster, clock clockwork.Clock) *QueueService {
	return &QueueService{
		matchRepo:   matchRepo,
		drafts:      drafts,
		broadcaster: broadcaster,
		clock:       clock,
	}
}

// Join adds a player; the tenth join fires the balancer and returns the
// created match.
func (s *QueueService) Join(ctx context.Context, identity string, primary, secondary domain.Lane, mmr int) (*domain.Match, error) {
	if !primary.Valid() {
		return nil, domain.ErrInvalidLane
	}
	if secondary != "" && !secondary.Valid() {
		return nil, domain.ErrInvalidLane
	}

	s.mu.Lock()
	for _, e := range s.queue {
		if domain.SameIdentity(e.Identity, identity) {
			s.mu.Unlock()
			return nil, domain.ErrAlreadyQueued
		}
	}
	s.queue = append(s.queue, QueueEntry{
		Identity:  strings.TrimSpace(identity),
		Primary:   primary,
		Secondary: secondary,
		MMR:       mmr,
		JoinedAt:  s.clock.Now(),
	})

	var pool []QueueEntry
	if len(s.queue) >= matchSize {
		pool = append(pool, s.queue[:matchSize]...)
		s.queue = append([]QueueEntry(nil), s.queue[matchSize:]...)
	}
	s.mu.Unlock()

	s.broadcastQueue()

	if pool == nil {
		return nil, nil
	}
	match, err := s.startMatch(ctx, pool)
	if err != nil {
		// Put the players back; they should not silently fall out of queue.
		s.mu.Lock()
		s.queue = append(pool, s.queue...)
		s.mu.Unlock()
		return nil, err
	}
	return match, nil
}

func (s *QueueService) Leave(identity string) error {
	s.mu.Lock()
	found := false
	kept := s.queue[:0]
	for _, e := range s.queue {
		if domain.SameIdentity(e.Identity, identity) {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	s.queue = kept
	s.mu.Unlock()

	if !found {
		return domain.ErrNotQueued
	}
	s.broadcastQueue()
	return nil
}

// Status returns the waiting list and how many queued players can cover
// each lane.
func (s *QueueService) Status() ([]QueueEntry, map[domain.Lane]int) {
	s.mu.Lock()
	entries := append([]QueueEntry(nil), s.queue...)
	s.mu.Unlock()

	coverage := make(map[domain.Lane]int, len(domain.AllLanes))
	for _, lane := range domain.AllLanes {
		coverage[lane] = 0
	}
	for _, e := range entries {
		coverage[e.Primary]++
		if e.Secondary != "" && e.Secondary != e.Primary {
			coverage[e.Secondary]++
		}
	}
	return entries, coverage
}

func (s *QueueService) broadcastQueue() {
	entries, coverage := s.Status()
	s.broadcaster.Broadcast(ws.EventQueueUpdate, map[string]any{
		"players":      entries,
		"count":        len(entries),
		"laneCoverage": coverage,
	})
}

func (s *QueueService) startMatch(ctx context.Context, pool []QueueEntry) (*domain.Match, error) {
	team1, team2 := balanceTeams(pool)
	avg1 := rosterAverage(team1)
	avg2 := rosterAverage(team2)

	match := &domain.Match{
		Status:            domain.MatchStatusDraft,
		Team1Players:      domain.EncodeRoster(team1),
		Team2Players:      domain.EncodeRoster(team2),
		AverageSkillTeam1: avg1,
		AverageSkillTeam2: avg2,
		CreatedAt:         s.clock.Now(),
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	if err := s.drafts.StartDraft(ctx, match); err != nil {
		return nil, err
	}

	log.Printf("match %d: balanced teams (avg %.1f vs %.1f)", match.ID, avg1, avg2)
	payload := map[string]any{
		"matchId": match.ID,
		"team1":   team1,
		"team2":   team2,
	}
	for _, p := range append(append([]domain.RosterPlayer(nil), team1...), team2...) {
		s.broadcaster.SendToIdentity(p.Identity, ws.EventMatchFound, payload)
	}
	return match, nil
}

// balanceTeams partitions ten players into two lane-legal fives minimizing
// the average-MMR delta. Ties break on fewer autofills, then on the
// concatenated identities, so the result is deterministic.
func balanceTeams(pool []QueueEntry) ([]domain.RosterPlayer, []domain.RosterPlayer) {
	players := append([]QueueEntry(nil), pool...)
	sort.Slice(players, func(i, j int) bool {
		return domain.NormalizeIdentity(players[i].Identity) < domain.NormalizeIdentity(players[j].Identity)
	})

	var (
		bestDelta    = math.MaxFloat64
		bestAutofill = math.MaxInt32
		bestKey      string
		bestTeam1    []domain.RosterPlayer
		bestTeam2    []domain.RosterPlayer
	)

	// Player 0 always sits on team 1; that halves the space and removes the
	// mirrored duplicate of every split.
	for mask := 0; mask < 1<<matchSize; mask++ {
		if mask&1 == 0 || bitCount(mask) != teamSize {
			continue
		}
		var side1, side2 []QueueEntry
		for i := 0; i < matchSize; i++ {
			if mask&(1<<i) != 0 {
				side1 = append(side1, players[i])
			} else {
				side2 = append(side2, players[i])
			}
		}

		team1, autofill1 := assignLanes(side1)
		team2, autofill2 := assignLanes(side2)
		delta := math.Abs(rosterAverage(team1) - rosterAverage(team2))
		autofill := autofill1 + autofill2
		key := rosterKey(team1) + "|" + rosterKey(team2)

		better := delta < bestDelta ||
			(delta == bestDelta && autofill < bestAutofill) ||
			(delta == bestDelta && autofill == bestAutofill && key < bestKey)
		if better {
			bestDelta = delta
			bestAutofill = autofill
			bestKey = key
			bestTeam1 = team1
			bestTeam2 = team2
		}
	}
	return bestTeam1, bestTeam2
}

// assignLanes seats five players on [top..support], preferring primary
// lanes, then secondary, autofilling the rest. Returns the roster in lane
// order plus the autofill count.
func assignLanes(side []QueueEntry) ([]domain.RosterPlayer, int) {
	var (
		bestAutofill  = math.MaxInt32
		bestSecondary = math.MaxInt32
		bestPerm      []int
	)
	permute(teamSize, func(perm []int) {
		autofill, secondary := 0, 0
		for lane, playerIdx := range perm {
			switch laneCost(side[playerIdx], domain.AllLanes[lane]) {
			case 1:
				secondary++
			case 2:
				autofill++
			}
		}
		if autofill < bestAutofill || (autofill == bestAutofill && secondary < bestSecondary) {
			bestAutofill = autofill
			bestSecondary = secondary
			bestPerm = append(bestPerm[:0], perm...)
		}
	})

	roster := make([]domain.RosterPlayer, teamSize)
	for lane, playerIdx := range bestPerm {
		e := side[playerIdx]
		roster[lane] = domain.RosterPlayer{
			Identity:   e.Identity,
			Lane:       domain.AllLanes[lane],
			MMR:        e.MMR,
			IsAutofill: laneCost(e, domain.AllLanes[lane]) == 2,
		}
	}
	return roster, bestAutofill
}

func laneCost(e QueueEntry, lane domain.Lane) int {
	switch lane {
	case e.Primary:
		return 0
	case e.Secondary:
		return 1
	default:
		return 2
	}
}

// permute calls fn with every permutation of [0..n). Iteration order is
// fixed, which keeps the balancer deterministic.
func permute(n int, fn func(perm []int)) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	var recurse func(k int)
	recurse = func(k int) {
		if k == n {
			fn(perm)
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			recurse(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	recurse(0)
}

func bitCount(v int) int {
	count := 0
	for v != 0 {
		v &= v - 1
		count++
	}
	return count
}

func rosterAverage(roster []domain.RosterPlayer) float64 {
	if len(roster) == 0 {
		return 0
	}
	sum := 0
	for _, p := range roster {
		sum += p.MMR
	}
	return float64(sum) / float64(len(roster))
}

func rosterKey(roster []domain.RosterPlayer) string {
	parts := make([]string, len(roster))
	for i, p := range roster {
		parts[i] = domain.NormalizeIdentity(p.Identity)
	}
	return strings.Join(parts, ",")
}
