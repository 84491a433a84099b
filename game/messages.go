package game

// Event types pushed through the Broadcaster.
const (
	MsgStateUpdate = "STATE_UPDATE"
	MsgGameOver    = "GAME_OVER"
)

type BallSnapshot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type PlayerSnapshot struct {
	PlayerID    int     `json:"playerId"`
	DisplayName string  `json:"displayName"`
	PaddleY     float64 `json:"paddleY"`
	Score       int     `json:"score"`
	Ready       bool    `json:"ready"`
}

// StateUpdate is broadcast once per tick while a match is in progress, and
// on ready-state changes while waiting.
type StateUpdate struct {
	Type      string           `json:"type"`
	SessionID string           `json:"sessionId"`
	Ball      BallSnapshot     `json:"ball"`
	Players   []PlayerSnapshot `json:"players"`
	Status    Status           `json:"status"`
}

// GameOver is broadcast exactly once when a session terminates. WinnerID is
// absent for aborts that crown no winner.
type GameOver struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	WinnerID  *int        `json:"winnerId,omitempty"`
	Scores    map[int]int `json:"scores"`
	Status    Status      `json:"status"`
}

func snapshotOf(sessionID string, status Status, s *State) StateUpdate {
	return StateUpdate{
		Type:      MsgStateUpdate,
		SessionID: sessionID,
		Ball: BallSnapshot{
			X: s.Ball.X, Y: s.Ball.Y,
			VX: s.Ball.VX, VY: s.Ball.VY,
			Width: s.Ball.W, Height: s.Ball.H,
		},
		Players: []PlayerSnapshot{
			{PlayerID: s.P1.PlayerID, DisplayName: s.P1.DisplayName, PaddleY: s.P1.PaddleY, Score: s.P1.Score, Ready: s.P1.Ready},
			{PlayerID: s.P2.PlayerID, DisplayName: s.P2.DisplayName, PaddleY: s.P2.PaddleY, Score: s.P2.Score, Ready: s.P2.Ready},
		},
		Status: status,
	}
}
