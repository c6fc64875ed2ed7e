package service

// Broadcaster is the push-channel surface the services fan events through.
// *ws.Hub satisfies it; tests substitute a recorder.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
	SendToIdentity(identity, eventType string, payload any)
}

// NopBroadcaster discards events; used where a test exercises state
// transitions only.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(string, any)              {}
func (NopBroadcaster) SendToIdentity(string, string, any) {}
