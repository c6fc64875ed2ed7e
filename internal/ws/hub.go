package ws

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"
)

// LCUResponder receives lcu_response messages read off client sessions. The
// LCU gateway implements it; the hub only routes.
type LCUResponder interface {
	HandleLCUResponse(requestID string, data json.RawMessage, errMsg string)
}

// Hub is the session registry. It is independently synchronized from the
// match locks; fan-out iterates a snapshot and never blocks on a slow client.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	stopped  bool

	responder LCUResponder

	// OnIdentify runs after a session claims an identity, outside the hub
	// lock. Wired to the restore orchestrator so a reconnecting client gets
	// its active match pushed immediately.
	OnIdentify func(s *Session, identity string)
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

// SetLCUResponder wires the gateway in after construction; the gateway in
// turn locates sessions through the hub.
func (h *Hub) SetLCUResponder(r LCUResponder) {
	h.mu.Lock()
	h.responder = r
	h.mu.Unlock()
}

func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		s.Close()
		return
	}
	h.sessions[s.ID()] = s
	h.mu.Unlock()
	log.Printf("session %s connected (%d total)", s.ID(), h.Count())
}

func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.ID()]
	if ok {
		delete(h.sessions, s.ID())
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	s.Close()

	if identity := s.Identity(); identity != "" {
		h.broadcastPresence(identity, false)
	}
	h.broadcastUsers()
}

// Identify binds an identity to the session and announces presence.
func (h *Hub) Identify(s *Session, identity string) {
	identity = strings.TrimSpace(identity)
	s.setIdentity(identity)
	log.Printf("session %s identified as %s", s.ID(), identity)

	h.broadcastPresence(identity, true)
	h.broadcastUsers()

	if h.OnIdentify != nil {
		h.OnIdentify(s, identity)
	}
}

// SetLCUStatus records whether the session's machine can reach a local game
// client, making it eligible as an LCU proxy.
func (h *Hub) SetLCUStatus(s *Session, connected bool) {
	s.setLCUReachable(connected)
	if identity := s.Identity(); identity != "" {
		h.broadcastPresence(identity, true)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// All returns a snapshot of live sessions.
func (h *Hub) All() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// ByIdentity returns every session identified as the given player,
// case-insensitively.
func (h *Hub) ByIdentity(identity string) []*Session {
	var out []*Session
	for _, s := range h.All() {
		if s.Identity() != "" && strings.EqualFold(s.Identity(), strings.TrimSpace(identity)) {
			out = append(out, s)
		}
	}
	return out
}

// EligibleLCUSessions returns the sessions that can proxy LCU requests for
// the player.
func (h *Hub) EligibleLCUSessions(identity string) []*Session {
	var out []*Session
	for _, s := range h.ByIdentity(identity) {
		if s.LCUReachable() {
			out = append(out, s)
		}
	}
	return out
}

// Broadcast fans the event out to every live session. Sessions whose queue
// overflows are closed and reaped; a slow client never stalls the caller.
func (h *Hub) Broadcast(eventType string, payload any) {
	data, err := Envelope(eventType, payload)
	if err != nil {
		log.Printf("broadcast %s: %v", eventType, err)
		return
	}
	for _, s := range h.All() {
		if !s.TrySend(data) {
			log.Printf("session %s overflowed, closing", s.ID())
			h.Unregister(s)
		}
	}
}

// SendToIdentity delivers the event to every session of one player.
func (h *Hub) SendToIdentity(identity, eventType string, payload any) {
	data, err := Envelope(eventType, payload)
	if err != nil {
		log.Printf("send %s to %s: %v", eventType, identity, err)
		return
	}
	for _, s := range h.ByIdentity(identity) {
		if !s.TrySend(data) {
			h.Unregister(s)
		}
	}
}

// Stop closes every session. New registrations are refused afterwards.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Users returns the sorted distinct identities currently online.
func (h *Hub) Users() []string {
	seen := make(map[string]string)
	for _, s := range h.All() {
		identity := s.Identity()
		if identity == "" {
			continue
		}
		seen[strings.ToLower(identity)] = identity
	}
	users := make([]string, 0, len(seen))
	for _, identity := range seen {
		users = append(users, identity)
	}
	sort.Strings(users)
	return users
}

func (h *Hub) broadcastUsers() {
	h.Broadcast(EventDiscordUsers, map[string]any{"users": h.Users()})
}

func (h *Hub) broadcastPresence(identity string, online bool) {
	lcuReachable := false
	for _, s := range h.ByIdentity(identity) {
		if s.LCUReachable() {
			lcuReachable = true
			break
		}
	}
	h.Broadcast(EventDiscordStatus, map[string]any{
		"summonerName": identity,
		"online":       online,
		"lcuReachable": lcuReachable,
	})
}

func (h *Hub) routeLCUResponse(requestID string, data json.RawMessage, errMsg string) {
	h.mu.RLock()
	responder := h.responder
	h.mu.RUnlock()
	if responder == nil {
		log.Printf("lcu_response %s dropped: no gateway wired", requestID)
		return
	}
	responder.HandleLCUResponse(requestID, data, errMsg)
}
