package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBuffer     = 256
)

// Session is one connected client. It stays anonymous until the client sends
// an identify message with its gameName#tagLine.
type Session struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	mu           sync.RWMutex
	identity     string
	lcuReachable bool
	closed       bool
}

func NewSession(hub *Hub, conn *websocket.Conn) *Session {
	return &Session{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		id:   uuid.NewString(),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Session) LCUReachable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lcuReachable
}

func (s *Session) setIdentity(identity string) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
}

func (s *Session) setLCUReachable(reachable bool) {
	s.mu.Lock()
	s.lcuReachable = reachable
	s.mu.Unlock()
}

// TrySend enqueues without blocking. A full queue means the client cannot
// keep up; the caller closes the session and the client re-syncs on
// reconnect. The read lock is held across the channel send so Close cannot
// close the channel mid-send; the send itself never blocks.
func (s *Session) TrySend(data []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// Close makes further TrySend calls fail and wakes the write pump. The
// channel is closed under the write lock, excluding in-flight TrySend calls.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

func (s *Session) sendError(code, message string) {
	data, err := Envelope(EventError, errorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	s.TrySend(data)
}

func (s *Session) ReadPump() {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("failed to unmarshal message: %v", err)
			continue
		}
		msg.Raw = data

		s.handleMessage(&msg)
	}
}

func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) handleMessage(msg *inbound) {
	switch msg.Type {
	case MessageIdentify:
		var payload identifyPayload
		if err := json.Unmarshal(msg.Raw, &payload); err != nil {
			s.sendError("INVALID_PAYLOAD", "Invalid identify payload")
			return
		}
		identity := payload.SummonerName
		if identity == "" {
			identity = payload.PlayerID
		}
		if identity == "" {
			s.sendError("INVALID_PAYLOAD", "identify requires summonerName")
			return
		}
		s.hub.Identify(s, identity)

	case MessagePing:
		s.TrySend(MustEnvelope(EventPong, nil))

	case MessageLCUStatus:
		var payload lcuStatusPayload
		if err := json.Unmarshal(msg.Raw, &payload); err != nil {
			s.sendError("INVALID_PAYLOAD", "Invalid lcu_status payload")
			return
		}
		s.hub.SetLCUStatus(s, payload.Connected)

	case MessageLCUResponse:
		var payload lcuResponsePayload
		if err := json.Unmarshal(msg.Raw, &payload); err != nil {
			s.sendError("INVALID_PAYLOAD", "Invalid lcu_response payload")
			return
		}
		s.hub.routeLCUResponse(payload.RequestID, payload.Data, payload.Error)
	}
}
