package service

import (
	"context"
	"log"
	"time"

	"github.com/dom/league-inhouse-server/internal/repository"
	"github.com/jonboulle/clockwork"
)

// tickInterval keeps the sweep comfortably under the 1 s bound the timeout
// semantics assume.
const tickInterval = 500 * time.Millisecond

// heartbeatEvery is how many ticks pass between ownership heartbeats on
// active match rows.
const heartbeatEvery = 30

// Scheduler is the single driver of time-based transitions: action
// timeouts, bot autoplay, confirmation timeouts, and owner heartbeats.
type Scheduler struct {
	drafts    *DraftService
	matchRepo repository.MatchRepository
	clock     clockwork.Clock
	backendID string

	stop chan struct{}
	done chan struct{}
}

func NewScheduler(drafts *DraftService, matchRepo repository.MatchRepository, clock clockwork.Clock, backendID string) *Scheduler {
	return &Scheduler{
		drafts:    drafts,
		matchRepo: matchRepo,
		clock:     clock,
		backendID: backendID,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run blocks until Stop. Ticks are idempotent; an error in one match's
// sweep is logged by the draft service and never stops the loop.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	ticker := s.clock.NewTicker(tickInterval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.drafts.Tick(ctx)
			ticks++
			if ticks%heartbeatEvery == 0 {
				s.heartbeat(ctx)
			}
		}
	}
}

func (s *Scheduler) heartbeat(ctx context.Context) {
	ids := s.drafts.ActiveMatchIDs()
	if len(ids) == 0 {
		return
	}
	if err := s.matchRepo.TouchOwner(ctx, ids, s.backendID, s.clock.Now().UnixMilli()); err != nil {
		log.Printf("scheduler: heartbeat: %v", err)
	}
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}
