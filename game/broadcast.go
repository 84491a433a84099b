package game

// Broadcaster fans one session's events out to every current viewer of that
// session. The engine depends on this interface only; the concrete transport
// (WebSocket hub, pub/sub channel) is injected at construction time.
// Implementations must not block: a slow viewer is the transport's problem,
// never the simulation's.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// MatchRoom is the fan-out room key for a session.
func MatchRoom(sessionID string) string {
	return "match_" + sessionID
}
