package game

// Direction is a paddle's current movement intent.
type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
	DirNone Direction = "none"
)

// PlayerSlot is one player's mutable in-match state. Slots are owned
// exclusively by their session's goroutine.
type PlayerSlot struct {
	PlayerID    int
	DisplayName string
	PaddleY     float64
	Score       int
	Ready       bool
	Input       Direction
}

type Ball struct {
	X, Y   float64
	VX, VY float64
	W, H   float64
}

// State is the full physics state of one match: the ball and two slots.
// P1 defends the left edge, P2 the right.
type State struct {
	Ball         Ball
	P1, P2       PlayerSlot
	WinningScore int
}

// NewState positions both paddles at the vertical center and serves the
// ball toward the left player.
func NewState(p1ID int, p1Name string, p2ID int, p2Name string, winningScore int) State {
	if winningScore <= 0 {
		winningScore = DefaultWinningScore
	}
	s := State{
		P1:           PlayerSlot{PlayerID: p1ID, DisplayName: p1Name, Input: DirNone},
		P2:           PlayerSlot{PlayerID: p2ID, DisplayName: p2Name, Input: DirNone},
		WinningScore: winningScore,
	}
	s.resetPositions(-1)
	return s
}

// resetPositions recenters paddles and ball and launches the ball toward
// the given horizontal direction (-1 left, +1 right).
func (s *State) resetPositions(serveDir float64) {
	centerY := (CanvasHeight - PaddleHeight) / 2
	s.P1.PaddleY = centerY
	s.P2.PaddleY = centerY
	s.Ball = Ball{
		X:  (CanvasWidth - BallSize) / 2,
		Y:  (CanvasHeight - BallSize) / 2,
		VX: serveDir * ServeSpeed,
		VY: 0,
		W:  BallSize,
		H:  BallSize,
	}
}

func (s *State) slotFor(playerID int) *PlayerSlot {
	switch playerID {
	case s.P1.PlayerID:
		return &s.P1
	case s.P2.PlayerID:
		return &s.P2
	}
	return nil
}
