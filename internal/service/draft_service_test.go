package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftFullFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1050)
	match := f.newDraftMatch(team1, team2)

	require.True(t, f.Draft.HasDraft(match.ID))
	f.playAllActions(match.ID, team1, team2)

	// Draft complete: further actions are rejected, confirmation window open.
	err := f.Draft.ProcessAction(ctx, match.ID, 20, "555", team1[0].Identity)
	assert.ErrorIs(t, err, domain.ErrDraftComplete)
	_, ok := f.events.last(ws.EventDraftConfirmationUpdate)
	assert.True(t, ok)

	players := append(append([]domain.RosterPlayer(nil), team1...), team2...)
	for i, p := range players[:9] {
		result, err := f.Draft.ConfirmPlayer(ctx, match.ID, p.Identity)
		require.NoError(t, err)
		assert.Equal(t, i+1, result.ConfirmedCount)
		assert.False(t, result.AllConfirmed)
	}

	result, err := f.Draft.ConfirmPlayer(ctx, match.ID, players[9].Identity)
	require.NoError(t, err)
	assert.True(t, result.AllConfirmed)
	assert.Equal(t, 10, result.ConfirmedCount)

	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusInProgress, stored.Status)
	assert.NotEmpty(t, stored.GameJSON)
	assert.NotEmpty(t, stored.DraftJSON)

	game := f.Game.Get(match.ID)
	require.NotNil(t, game)
	require.Len(t, game.Players, 10)
	require.NotNil(t, game.Players[0].ChampionID)
	assert.Equal(t, "106", *game.Players[0].ChampionID, "team 1 top picks at index 6")

	assert.False(t, f.Draft.HasDraft(match.ID), "finished draft leaves the registry")
	_, ok = f.events.last(ws.EventGameStarted)
	assert.True(t, ok)
}

func TestDraftRejectsBadActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newDraftMatch(team1, team2)

	// Wrong index.
	err := f.Draft.ProcessAction(ctx, match.ID, 3, "101", team1[0].Identity)
	assert.ErrorIs(t, err, domain.ErrOutOfOrder)

	// Action 0 belongs to team 1; a team-2 player may not play it.
	err = f.Draft.ProcessAction(ctx, match.ID, 0, "101", team2[0].Identity)
	assert.ErrorIs(t, err, domain.ErrNotOnTeam)

	// A teammate covering for the slot owner is allowed.
	require.NoError(t, f.Draft.ProcessAction(ctx, match.ID, 0, "101", team1[2].Identity))

	// The banned champion is gone for everyone.
	err = f.Draft.ProcessAction(ctx, match.ID, 1, "101", team2[0].Identity)
	assert.ErrorIs(t, err, domain.ErrChampionTaken)

	// Unknown match.
	err = f.Draft.ProcessAction(ctx, 999, 0, "101", team1[0].Identity)
	assert.ErrorIs(t, err, domain.ErrDraftNotActive)
}

func TestDraftActionTimeoutSkips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newDraftMatch(team1, team2)

	// One tick short of the window: nothing happens.
	f.clock.Advance(ActionTimeout - time.Second)
	f.Draft.Tick(ctx)
	update := f.Draft.SnapshotFor(match.ID)
	require.NotNil(t, update)
	assert.Equal(t, 0, update.CurrentIndex)
	assert.Equal(t, int64(1), update.TimeRemaining)

	// Crossing it skips the action and restarts the timer.
	f.clock.Advance(time.Second)
	f.Draft.Tick(ctx)
	update = f.Draft.SnapshotFor(match.ID)
	require.NotNil(t, update)
	assert.Equal(t, 1, update.CurrentIndex)
	assert.Equal(t, "skipped", update.Actions[0].Status())
	require.NotNil(t, update.Actions[0].ByPlayer)
	assert.Equal(t, domain.TimeoutActor, *update.Actions[0].ByPlayer)
	assert.Equal(t, int64(30), update.TimeRemaining)

	// The skip is persisted for crash recovery.
	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Contains(t, string(stored.DraftJSON), domain.SkippedChampion)
}

func TestDraftBotAutoplay(t *testing.T) {
	f := newFixture(t)
	f.seedChampions(40)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := botRoster()
	match := f.newDraftMatch(team1, team2)

	for i, step := range domain.DraftSequence {
		if step.Team == 1 {
			require.NoError(t, f.Draft.ProcessAction(ctx, match.ID, i, strconv.Itoa(100+i), team1[step.PlayerSlot].Identity))
			continue
		}
		// Bot turn: autoplay fires between 15s and 20s into the window.
		f.clock.Advance(20 * time.Second)
		f.Draft.Tick(ctx)
		update := f.Draft.SnapshotFor(match.ID)
		require.NotNil(t, update, "draft gone at action %d", i)
		require.Equal(t, i+1, update.CurrentIndex, "bot did not play action %d", i)
		action := update.Actions[i]
		assert.Equal(t, "completed", action.Status(), "bot must pick a real champion, not skip")
		require.NotNil(t, action.ByPlayer)
		assert.True(t, domain.IsBot(*action.ByPlayer))
	}

	// Bots confirmed themselves; the five humans finish it.
	for _, p := range team1[:4] {
		result, err := f.Draft.ConfirmPlayer(ctx, match.ID, p.Identity)
		require.NoError(t, err)
		assert.False(t, result.AllConfirmed)
	}
	result, err := f.Draft.ConfirmPlayer(ctx, match.ID, team1[4].Identity)
	require.NoError(t, err)
	assert.True(t, result.AllConfirmed)

	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusInProgress, stored.Status)
}

func TestChangePick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newDraftMatch(team1, team2)
	f.playAllActions(match.ID, team1, team2)

	_, err := f.Draft.ConfirmPlayer(ctx, match.ID, team1[0].Identity)
	require.NoError(t, err)
	_, err = f.Draft.ConfirmPlayer(ctx, match.ID, team1[1].Identity)
	require.NoError(t, err)

	// Index 6 is team 1 top's pick; only that seat may edit it.
	err = f.Draft.ChangePick(ctx, match.ID, 6, "999", team1[1].Identity)
	assert.ErrorIs(t, err, domain.ErrNotSlotOwner)
	err = f.Draft.ChangePick(ctx, match.ID, 0, "999", team1[0].Identity)
	assert.ErrorIs(t, err, domain.ErrNotAPick)
	err = f.Draft.ChangePick(ctx, match.ID, 6, "107", team1[0].Identity)
	assert.ErrorIs(t, err, domain.ErrChampionTaken)

	// Re-submitting the current champion of the same seat is not "taken".
	require.NoError(t, f.Draft.ChangePick(ctx, match.ID, 6, "106", team1[0].Identity))

	require.NoError(t, f.Draft.ChangePick(ctx, match.ID, 6, "999", team1[0].Identity))

	// The swap voided both prior confirmations.
	last, ok := f.events.last(ws.EventDraftConfirmationUpdate)
	require.True(t, ok)
	payload, isPayload := last.Payload.(confirmationPayload)
	require.True(t, isPayload)
	assert.Equal(t, 0, payload.ConfirmedCount)

	players := append(append([]domain.RosterPlayer(nil), team1...), team2...)
	for _, p := range players {
		_, err := f.Draft.ConfirmPlayer(ctx, match.ID, p.Identity)
		require.NoError(t, err)
	}

	game := f.Game.Get(match.ID)
	require.NotNil(t, game)
	require.NotNil(t, game.Players[0].ChampionID)
	assert.Equal(t, "999", *game.Players[0].ChampionID)
}

func TestConfirmRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newDraftMatch(team1, team2)

	// No confirmations while actions remain.
	_, err := f.Draft.ConfirmPlayer(ctx, match.ID, team1[0].Identity)
	assert.ErrorIs(t, err, domain.ErrWrongStatus)

	f.playAllActions(match.ID, team1, team2)

	_, err = f.Draft.ConfirmPlayer(ctx, match.ID, "stranger#EUW")
	assert.ErrorIs(t, err, domain.ErrNotOnRoster)

	first, err := f.Draft.ConfirmPlayer(ctx, match.ID, team1[0].Identity)
	require.NoError(t, err)
	again, err := f.Draft.ConfirmPlayer(ctx, match.ID, "A1#na1")
	require.NoError(t, err)
	assert.Equal(t, first.ConfirmedCount, again.ConfirmedCount, "re-confirming is idempotent")
}

func TestConfirmationTimeoutCancels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newDraftMatch(team1, team2)
	f.playAllActions(match.ID, team1, team2)

	_, err := f.Draft.ConfirmPlayer(ctx, match.ID, team1[0].Identity)
	require.NoError(t, err)

	f.clock.Advance(ConfirmTimeout - time.Second)
	f.Draft.Tick(ctx)
	assert.True(t, f.Draft.HasDraft(match.ID))

	f.clock.Advance(time.Second)
	f.Draft.Tick(ctx)
	assert.False(t, f.Draft.HasDraft(match.ID))

	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusCancelled, stored.Status)

	last, ok := f.events.last(ws.EventDraftUpdated)
	require.True(t, ok)
	update, isUpdate := last.Payload.(DraftUpdate)
	require.True(t, isUpdate)
	assert.Equal(t, "confirmation_timeout", update.Reason)
}

func TestDraftCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newDraftMatch(team1, team2)

	require.NoError(t, f.Draft.Cancel(ctx, match.ID, "cancelled_by_player"))
	assert.False(t, f.Draft.HasDraft(match.ID))

	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusCancelled, stored.Status)

	err = f.Draft.ProcessAction(ctx, match.ID, 0, "101", team1[0].Identity)
	assert.ErrorIs(t, err, domain.ErrDraftNotActive)
	assert.ErrorIs(t, f.Draft.Cancel(ctx, match.ID, "again"), domain.ErrDraftNotActive)
}

func TestSnapshotForCountsDown(t *testing.T) {
	f := newFixture(t)
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newDraftMatch(team1, team2)

	update := f.Draft.SnapshotFor(match.ID)
	require.NotNil(t, update)
	assert.Equal(t, int64(30), update.TimeRemaining)
	assert.Equal(t, "ban1", update.CurrentPhase)

	f.clock.Advance(10 * time.Second)
	update = f.Draft.SnapshotFor(match.ID)
	require.NotNil(t, update)
	assert.Equal(t, int64(20), update.TimeRemaining)

	assert.Nil(t, f.Draft.SnapshotFor(999))
}
