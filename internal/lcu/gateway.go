package lcu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// RPCTimeout bounds one request/response round trip over a client session.
const RPCTimeout = 8 * time.Second

// maxInflightPerPeer caps concurrent RPCs routed through one session so a
// burst of detail fetches cannot flood a single client.
const maxInflightPerPeer = 4

var (
	ErrLCUUnreachable = errors.New("LCU_UNREACHABLE")
	ErrLCUTimeout     = errors.New("LCU_TIMEOUT")
	ErrLCUBadPayload  = errors.New("LCU_BAD_PAYLOAD")
)

// Request kinds understood by the client-side proxy.
const (
	KindRecent  = "recent"
	KindDetails = "details"
)

// Peer is a connected session eligible to proxy LCU requests. The hub's
// sessions satisfy this.
type Peer interface {
	ID() string
	Identity() string
	TrySend(data []byte) bool
}

// Locator finds the live, LCU-reachable sessions identified as a player.
type Locator func(identity string) []Peer

type wireRequest struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	Kind      string `json:"kind"`
	Count     int    `json:"count,omitempty"`
	GameID    string `json:"gameId,omitempty"`
}

type rpcResult struct {
	data   json.RawMessage
	errMsg string
}

// Gateway correlates requests with responses by id. One gateway serves the
// whole process.
type Gateway struct {
	locate Locator
	clock  clockwork.Clock

	mu       sync.Mutex
	pending  map[string]chan rpcResult
	inflight map[string]int // peer session id -> outstanding RPCs
}

func NewGateway(locate Locator, clock clockwork.Clock) *Gateway {
	return &Gateway{
		locate:   locate,
		clock:    clock,
		pending:  make(map[string]chan rpcResult),
		inflight: make(map[string]int),
	}
}

// HandleLCUResponse completes the pending RPC with the matching id. Unknown
// ids (late replies after timeout) are dropped.
func (g *Gateway) HandleLCUResponse(requestID string, data json.RawMessage, errMsg string) {
	g.mu.Lock()
	ch, ok := g.pending[requestID]
	if ok {
		delete(g.pending, requestID)
	}
	g.mu.Unlock()
	if !ok {
		log.Printf("lcu: dropping late response %s", requestID)
		return
	}
	ch <- rpcResult{data: data, errMsg: errMsg}
}

// call issues one RPC through any eligible peer for identity. Peers are
// tried in order; a peer whose queue is full or at its inflight cap is
// skipped.
func (g *Gateway) call(ctx context.Context, identity, kind string, count int, gameID string) (json.RawMessage, error) {
	peers := g.locate(identity)
	if len(peers) == 0 {
		return nil, fmt.Errorf("%w: no session with a reachable game client for %s", ErrLCUUnreachable, identity)
	}

	requestID := uuid.NewString()
	ch := make(chan rpcResult, 1)

	req := wireRequest{
		Type:      "lcu_request",
		RequestID: requestID,
		Kind:      kind,
		Count:     count,
		GameID:    gameID,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var peer Peer
	for _, candidate := range peers {
		if !g.reserve(candidate.ID()) {
			continue
		}
		g.mu.Lock()
		g.pending[requestID] = ch
		g.mu.Unlock()
		if candidate.TrySend(data) {
			peer = candidate
			break
		}
		g.abandon(requestID)
		g.release(candidate.ID())
	}
	if peer == nil {
		return nil, fmt.Errorf("%w: no session accepted the request for %s", ErrLCUUnreachable, identity)
	}
	defer g.release(peer.ID())

	timeout := g.clock.After(RPCTimeout)
	select {
	case result := <-ch:
		if result.errMsg != "" {
			return nil, fmt.Errorf("%w: %s", ErrLCUUnreachable, result.errMsg)
		}
		if len(result.data) == 0 {
			return nil, fmt.Errorf("%w: empty response", ErrLCUBadPayload)
		}
		return result.data, nil
	case <-timeout:
		g.abandon(requestID)
		return nil, fmt.Errorf("%w: %s %s after %s", ErrLCUTimeout, kind, identity, RPCTimeout)
	case <-ctx.Done():
		g.abandon(requestID)
		return nil, ctx.Err()
	}
}

func (g *Gateway) reserve(peerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight[peerID] >= maxInflightPerPeer {
		return false
	}
	g.inflight[peerID]++
	return true
}

func (g *Gateway) release(peerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight[peerID] > 0 {
		g.inflight[peerID]--
	}
	if g.inflight[peerID] == 0 {
		delete(g.inflight, peerID)
	}
}

func (g *Gateway) abandon(requestID string) {
	g.mu.Lock()
	delete(g.pending, requestID)
	g.mu.Unlock()
}

// FetchRecent returns the player's recent match-history summaries.
func (g *Gateway) FetchRecent(ctx context.Context, identity string, count int) ([]GameSummary, error) {
	raw, err := g.call(ctx, identity, KindRecent, count, "")
	if err != nil {
		return nil, err
	}
	return parseSummaries(raw)
}

// FetchDetails returns the full payload for one external game id, both
// parsed and raw.
func (g *Gateway) FetchDetails(ctx context.Context, identity string, gameID string) (*RealGame, json.RawMessage, error) {
	raw, err := g.call(ctx, identity, KindDetails, 0, gameID)
	if err != nil {
		return nil, nil, err
	}
	game, err := ParseRealGame(raw)
	if err != nil {
		return nil, nil, err
	}
	return game, raw, nil
}

// GetCustomGamesWithDetails lists the player's recent custom games with
// their full payloads. Detail fetches run in parallel, bounded by the
// per-peer inflight cap.
func (g *Gateway) GetCustomGamesWithDetails(ctx context.Context, identity string, count int) ([]CustomGame, error) {
	summaries, err := g.FetchRecent(ctx, identity, count)
	if err != nil {
		return nil, err
	}

	var customs []GameSummary
	for _, s := range summaries {
		if s.IsCustom() {
			customs = append(customs, s)
		}
	}
	if len(customs) == 0 {
		return nil, nil
	}

	out := make([]CustomGame, len(customs))
	var wg sync.WaitGroup
	for i, summary := range customs {
		wg.Add(1)
		go func(i int, summary GameSummary) {
			defer wg.Done()
			detail, raw, err := g.FetchDetails(ctx, identity, summary.GameID.String())
			if err != nil {
				log.Printf("lcu: details for game %s: %v", summary.GameID, err)
				out[i] = CustomGame{Summary: summary}
				return
			}
			out[i] = CustomGame{Summary: summary, Detail: detail, Raw: raw}
		}(i, summary)
	}
	wg.Wait()
	return out, nil
}
