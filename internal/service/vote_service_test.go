package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/lcu"
	"github.com/dom/league-inhouse-server/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteQuorumLinksMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newInProgressMatch(team1, team2)

	for i, p := range team1[:4] {
		result, err := f.Vote.Vote(ctx, match.ID, p.Identity, "g1")
		require.NoError(t, err)
		assert.Equal(t, i+1, result.VoteCount)
		assert.False(t, result.ShouldLink)
	}
	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusInProgress, stored.Status, "four votes is not quorum")

	result, err := f.Vote.Vote(ctx, match.ID, team1[4].Identity, "g1")
	require.NoError(t, err)
	assert.True(t, result.ShouldLink)
	assert.Equal(t, 5, result.VoteCount)
	assert.False(t, result.SpecialUserVote)

	stored, err = f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusCompleted, stored.Status)
	require.NotNil(t, stored.LinkedRealGameID)
	assert.Equal(t, "g1", *stored.LinkedRealGameID)
	require.NotNil(t, stored.ActualWinner)
	assert.Equal(t, 1, *stored.ActualWinner, "blue side won the canned payload")
	require.NotNil(t, stored.ActualDuration)
	assert.Equal(t, 1800, *stored.ActualDuration)
	assert.NotEmpty(t, stored.RealGameJSON)

	_, ok := f.events.last(ws.EventMatchLinked)
	assert.True(t, ok)

	// The match is terminal; further votes bounce.
	_, err = f.Vote.Vote(ctx, match.ID, team2[0].Identity, "g2")
	assert.ErrorIs(t, err, domain.ErrWrongStatus)
}

func TestVoteSupersedesPreviousChoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newInProgressMatch(team1, team2)

	_, err := f.Vote.Vote(ctx, match.ID, team1[0].Identity, "g1")
	require.NoError(t, err)
	result, err := f.Vote.Vote(ctx, match.ID, team1[0].Identity, "g2")
	require.NoError(t, err)
	assert.Equal(t, 1, result.VoteCount)

	counts, err := f.Vote.Votes(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, counts["g1"])
	assert.Equal(t, 1, counts["g2"])
}

func TestSpecialUserVoteLinksImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	require.NoError(t, f.SpecialUsers.Set(ctx, []string{"B1#NA1"}))
	match := f.newInProgressMatch(team1, team2)

	result, err := f.Vote.Vote(ctx, match.ID, "b1#na1", "g7")
	require.NoError(t, err)
	assert.True(t, result.SpecialUserVote)
	assert.True(t, result.ShouldLink)

	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusCompleted, stored.Status)
	require.NotNil(t, stored.LinkedRealGameID)
	assert.Equal(t, "g7", *stored.LinkedRealGameID)

	_, ok := f.events.last(ws.EventSpecialUserVote)
	assert.True(t, ok)
}

func TestVoteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)

	draftMatch := f.newDraftMatch(team1, team2)
	_, err := f.Vote.Vote(ctx, draftMatch.ID, team1[0].Identity, "g1")
	assert.ErrorIs(t, err, domain.ErrWrongStatus)

	match := f.newInProgressMatch(team1, team2)
	_, err = f.Vote.Vote(ctx, match.ID, "stranger#EUW", "g1")
	assert.ErrorIs(t, err, domain.ErrNotOnRoster)

	_, err = f.Vote.Vote(ctx, 999, team1[0].Identity, "g1")
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func TestVoteRetract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newInProgressMatch(team1, team2)

	_, err := f.Vote.Vote(ctx, match.ID, team1[0].Identity, "g1")
	require.NoError(t, err)
	require.NoError(t, f.Vote.Retract(ctx, match.ID, "A1#na1"))

	counts, err := f.Vote.Votes(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, counts["g1"])

	updates := f.events.ofType(ws.EventMatchVoteUpdate)
	assert.GreaterOrEqual(t, len(updates), 2)
}

func TestLinkFallsBackThroughRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := botRoster()
	match := f.newInProgressMatch(team1, team2)

	// The quorum voter's own client is down; the next human on the roster
	// serves the fetch. Bots are never asked.
	f.fetcher.fail["a5#na1"] = lcu.ErrLCUUnreachable
	f.fetcher.fail["a1#na1"] = lcu.ErrLCUUnreachable

	for _, p := range team1 {
		_, err := f.Vote.Vote(ctx, match.ID, p.Identity, "g3")
		require.NoError(t, err)
	}

	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusCompleted, stored.Status)

	require.GreaterOrEqual(t, len(f.fetcher.calls), 3)
	assert.Equal(t, "a5#NA1", f.fetcher.calls[0], "preferred voter tried first")
	assert.Equal(t, "a1#NA1", f.fetcher.calls[1])
	assert.Equal(t, "a2#NA1", f.fetcher.calls[2])
	for _, identity := range f.fetcher.calls {
		assert.False(t, domain.IsBot(identity))
	}
}

func TestLinkFailureKeepsVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team1 := roster("a", 1000)
	team2 := roster("b", 1000)
	match := f.newInProgressMatch(team1, team2)

	f.fetcher.err = fmt.Errorf("%w: nobody home", lcu.ErrLCUUnreachable)

	var result *VoteResult
	var err error
	for _, p := range team1 {
		result, err = f.Vote.Vote(ctx, match.ID, p.Identity, "g4")
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, lcu.ErrLCUUnreachable)
	require.NotNil(t, result)
	assert.True(t, result.ShouldLink, "the vote itself stuck even though linking failed")

	stored, getErr := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.MatchStatusInProgress, stored.Status)

	counts, countErr := f.Vote.Votes(ctx, match.ID)
	require.NoError(t, countErr)
	assert.Equal(t, 5, counts["g4"], "votes survive a failed link for a retry")
}

func TestQuorumWinnerTieBreaks(t *testing.T) {
	assert.Equal(t, "", quorumWinner(map[string]int{"g1": 4}))
	assert.Equal(t, "g1", quorumWinner(map[string]int{"g1": 5}))
	assert.Equal(t, "g2", quorumWinner(map[string]int{"g1": 5, "g2": 6}))
	assert.Equal(t, "g1", quorumWinner(map[string]int{"g1": 5, "g2": 5}))
}
