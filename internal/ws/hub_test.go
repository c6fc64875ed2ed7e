package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sessions without a live websocket connection are fine for registry tests:
// TrySend and Close never touch the connection, only the pumps do.
func testSession(h *Hub) *Session {
	return NewSession(h, nil)
}

func TestHubRegisterUnregister(t *testing.T) {
	h := NewHub()
	s := testSession(h)

	h.Register(s)
	assert.Equal(t, 1, h.Count())

	h.Unregister(s)
	assert.Equal(t, 0, h.Count())
	assert.False(t, s.TrySend([]byte("x")), "closed session must refuse sends")

	// Unregistering twice is a no-op.
	h.Unregister(s)
}

func TestHubUsersDistinctAndSorted(t *testing.T) {
	h := NewHub()
	a := testSession(h)
	b := testSession(h)
	c := testSession(h)
	anon := testSession(h)
	for _, s := range []*Session{a, b, c, anon} {
		h.Register(s)
	}

	h.Identify(a, "Zed#NA1")
	h.Identify(b, "Ahri#NA1")
	h.Identify(c, "zed#na1") // second device, same player

	users := h.Users()
	require.Len(t, users, 2, "duplicate identities collapse, anonymous sessions excluded")
	assert.Equal(t, "Ahri#NA1", users[0])
}

func TestHubByIdentityCaseInsensitive(t *testing.T) {
	h := NewHub()
	s := testSession(h)
	h.Register(s)
	h.Identify(s, "Faker#KR1")

	assert.Len(t, h.ByIdentity("faker#kr1"), 1)
	assert.Len(t, h.ByIdentity(" FAKER#KR1 "), 1)
	assert.Empty(t, h.ByIdentity("Chovy#KR1"))
}

func TestEligibleLCUSessionsRequiresReachableClient(t *testing.T) {
	h := NewHub()
	s := testSession(h)
	h.Register(s)
	h.Identify(s, "Faker#KR1")

	assert.Empty(t, h.EligibleLCUSessions("Faker#KR1"))

	h.SetLCUStatus(s, true)
	assert.Len(t, h.EligibleLCUSessions("Faker#KR1"), 1)

	h.SetLCUStatus(s, false)
	assert.Empty(t, h.EligibleLCUSessions("Faker#KR1"))
}

func TestBroadcastReapsDeadSessions(t *testing.T) {
	h := NewHub()
	live := testSession(h)
	dead := testSession(h)
	h.Register(live)
	h.Register(dead)
	dead.Close()

	h.Broadcast(EventQueueUpdate, map[string]any{"playersInQueue": 3})

	assert.Equal(t, 1, h.Count(), "session that cannot accept the event is removed")

	// The live session still got the broadcast, among the presence chatter
	// triggered by the reap.
	var all string
	for len(live.send) > 0 {
		all += string(<-live.send)
	}
	assert.Contains(t, all, `"type":"queue_update"`)
}

func TestSendToIdentityTargetsOnlyThatPlayer(t *testing.T) {
	h := NewHub()
	faker := testSession(h)
	other := testSession(h)
	h.Register(faker)
	h.Register(other)
	h.Identify(faker, "Faker#KR1")
	h.Identify(other, "Chovy#KR1")

	// Drain presence chatter before the targeted send.
	for len(faker.send) > 0 {
		<-faker.send
	}
	for len(other.send) > 0 {
		<-other.send
	}

	h.SendToIdentity("faker#kr1", EventMatchFound, map[string]any{"matchId": 9})

	require.Len(t, faker.send, 1)
	assert.Empty(t, other.send)
	assert.Contains(t, string(<-faker.send), `"type":"match_found"`)
}

func TestCloseDuringConcurrentSends(t *testing.T) {
	h := NewHub()
	s := testSession(h)

	// Hammer TrySend from several goroutines while Close lands; the session
	// must refuse sends after close instead of panicking on a closed channel.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.TrySend([]byte(`{"type":"pong"}`))
			}
		}()
	}
	s.Close()
	wg.Wait()

	assert.False(t, s.TrySend([]byte(`{"type":"pong"}`)), "closed session refuses sends")

	// Closing again is a no-op.
	s.Close()
}

func TestStopRefusesNewSessions(t *testing.T) {
	h := NewHub()
	s := testSession(h)
	h.Register(s)
	h.Stop()

	assert.Equal(t, 0, h.Count())
	assert.False(t, s.TrySend([]byte("x")))

	late := testSession(h)
	h.Register(late)
	assert.Equal(t, 0, h.Count())
	assert.False(t, late.TrySend([]byte("x")))
}
