package lcu

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePeer replies to every proxied request through the supplied respond
// function, synchronously from TrySend.
type fakePeer struct {
	id       string
	identity string
	accept   bool
	respond  func(req wireRequest)

	mu   sync.Mutex
	sent []wireRequest
}

func (p *fakePeer) ID() string       { return p.id }
func (p *fakePeer) Identity() string { return p.identity }

func (p *fakePeer) TrySend(data []byte) bool {
	if !p.accept {
		return false
	}
	var req wireRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return false
	}
	p.mu.Lock()
	p.sent = append(p.sent, req)
	p.mu.Unlock()
	if p.respond != nil {
		p.respond(req)
	}
	return true
}

func staticLocator(peers ...Peer) Locator {
	return func(identity string) []Peer { return peers }
}

func TestGatewayRoundTrip(t *testing.T) {
	peer := &fakePeer{id: "s1", identity: "Faker#KR1", accept: true}
	gateway := NewGateway(staticLocator(peer), clockwork.NewFakeClock())
	peer.respond = func(req wireRequest) {
		gateway.HandleLCUResponse(req.RequestID, []byte(`{"gameId":77,"gameDuration":1800,"teams":[{"teamId":200,"win":"Win"}]}`), "")
	}

	game, raw, err := gateway.FetchDetails(context.Background(), "Faker#KR1", "77")
	require.NoError(t, err)
	assert.Equal(t, "77", game.GameID.String())
	assert.NotEmpty(t, raw)
	require.NotNil(t, game.Winner())
	assert.Equal(t, 2, *game.Winner())

	require.Len(t, peer.sent, 1)
	assert.Equal(t, KindDetails, peer.sent[0].Kind)
	assert.Equal(t, "77", peer.sent[0].GameID)
}

func TestGatewayNoPeers(t *testing.T) {
	gateway := NewGateway(staticLocator(), clockwork.NewFakeClock())
	_, err := gateway.FetchRecent(context.Background(), "Ghost#NA1", 10)
	assert.ErrorIs(t, err, ErrLCUUnreachable)
}

func TestGatewayPeerRefusesSend(t *testing.T) {
	peer := &fakePeer{id: "s1", identity: "Faker#KR1", accept: false}
	gateway := NewGateway(staticLocator(peer), clockwork.NewFakeClock())
	_, err := gateway.FetchRecent(context.Background(), "Faker#KR1", 10)
	assert.ErrorIs(t, err, ErrLCUUnreachable)
}

func TestGatewayClientError(t *testing.T) {
	peer := &fakePeer{id: "s1", identity: "Faker#KR1", accept: true}
	gateway := NewGateway(staticLocator(peer), clockwork.NewFakeClock())
	peer.respond = func(req wireRequest) {
		gateway.HandleLCUResponse(req.RequestID, nil, "client not running")
	}

	_, err := gateway.FetchRecent(context.Background(), "Faker#KR1", 10)
	assert.ErrorIs(t, err, ErrLCUUnreachable)
	assert.Contains(t, err.Error(), "client not running")
}

func TestGatewayTimeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	peer := &fakePeer{id: "s1", identity: "Faker#KR1", accept: true} // never responds
	gateway := NewGateway(staticLocator(peer), clock)

	errCh := make(chan error, 1)
	go func() {
		_, err := gateway.FetchRecent(context.Background(), "Faker#KR1", 10)
		errCh <- err
	}()

	clock.BlockUntil(1)
	clock.Advance(RPCTimeout)

	err := <-errCh
	assert.ErrorIs(t, err, ErrLCUTimeout)

	// A reply after the deadline must be dropped, not panic.
	require.Len(t, peer.sent, 1)
	gateway.HandleLCUResponse(peer.sent[0].RequestID, []byte(`[]`), "")
}

func TestGatewayCustomGamesFiltersNonCustoms(t *testing.T) {
	peer := &fakePeer{id: "s1", identity: "Faker#KR1", accept: true}
	gateway := NewGateway(staticLocator(peer), clockwork.NewFakeClock())
	peer.respond = func(req wireRequest) {
		switch req.Kind {
		case KindRecent:
			gateway.HandleLCUResponse(req.RequestID, []byte(`[
				{"gameId":1,"gameType":"CUSTOM_GAME"},
				{"gameId":2,"gameType":"MATCHED_GAME"},
				{"gameId":3,"gameType":"CUSTOM_GAME"}
			]`), "")
		case KindDetails:
			gateway.HandleLCUResponse(req.RequestID, []byte(`{"gameId":`+req.GameID+`,"gameType":"CUSTOM_GAME"}`), "")
		}
	}

	games, err := gateway.GetCustomGamesWithDetails(context.Background(), "Faker#KR1", 20)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "1", games[0].Summary.GameID.String())
	assert.Equal(t, "3", games[1].Summary.GameID.String())
	require.NotNil(t, games[0].Detail)
	assert.True(t, games[0].Detail.IsCustom())
}
