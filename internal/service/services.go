package service

import (
	"github.com/dom/league-inhouse-server/internal/config"
	"github.com/dom/league-inhouse-server/internal/repository"
	"github.com/jonboulle/clockwork"
)

type Services struct {
	SpecialUsers *SpecialUserService
	Champion     *ChampionService
	Queue        *QueueService
	Draft        *DraftService
	Game         *GameService
	Vote         *VoteService
	Restore      *RestoreService
	Scheduler    *Scheduler
}

// NewServices wires the service graph. The broadcaster is the ws hub; the
// fetcher is the LCU gateway.
func NewServices(repos *repository.Repositories, cfg *config.Config, clock clockwork.Clock, broadcaster Broadcaster, fetcher RealGameFetcher) *Services {
	locks := newMatchLocks()

	special := NewSpecialUserService(repos.Setting)
	champion := NewChampionService(repos.Champion, cfg)
	game := NewGameService(repos.Match, repos.MatchVote, broadcaster, clock, locks)
	draft := NewDraftService(repos.Match, champion, game, broadcaster, clock, locks, cfg.BackendID)
	queue := NewQueueService(repos.Match, draft, broadcaster, clock)
	vote := NewVoteService(repos.Match, repos.MatchVote, special, game, fetcher, broadcaster, clock, locks)
	restore := NewRestoreService(repos.Match, draft, game, clock, cfg.BackendID)
	scheduler := NewScheduler(draft, repos.Match, clock, cfg.BackendID)

	return &Services{
		SpecialUsers: special,
		Champion:     champion,
		Queue:        queue,
		Draft:        draft,
		Game:         game,
		Vote:         vote,
		Restore:      restore,
		Scheduler:    scheduler,
	}
}
