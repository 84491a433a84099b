package game

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAdvancePaddleClampsToCanvas(t *testing.T) {
	s := NewState(1, "a", 2, "b", 0)

	s.P1.Input = DirUp
	advancePaddle(&s.P1, 10) // far more than needed to hit the edge
	if s.P1.PaddleY != 0 {
		t.Errorf("paddle ran past top edge: got %f", s.P1.PaddleY)
	}

	s.P1.Input = DirDown
	advancePaddle(&s.P1, 10)
	if s.P1.PaddleY != CanvasHeight-PaddleHeight {
		t.Errorf("paddle ran past bottom edge: got %f", s.P1.PaddleY)
	}
}

func TestWallBounceInvertsVerticalVelocity(t *testing.T) {
	b := Ball{X: 100, Y: -4, VX: 100, VY: -200, W: BallSize, H: BallSize}
	resolveWallBounce(&b)
	if b.Y != 0 || b.VY != 200 {
		t.Errorf("top bounce: got y=%f vy=%f", b.Y, b.VY)
	}

	b = Ball{X: 100, Y: CanvasHeight - 2, VX: 100, VY: 200, W: BallSize, H: BallSize}
	resolveWallBounce(&b)
	if b.Y != CanvasHeight-BallSize || b.VY != -200 {
		t.Errorf("bottom bounce: got y=%f vy=%f", b.Y, b.VY)
	}
}

func TestPaddleCollisionCenterHitBoostsSpeed(t *testing.T) {
	s := NewState(1, "a", 2, "b", 0)
	s.P1.PaddleY = 200

	// Ball center aligned with paddle center, moving left into the paddle.
	s.Ball = Ball{
		X:  PaddleMargin + PaddleWidth - 2,
		Y:  200 + PaddleHeight/2 - BallSize/2,
		VX: -ServeSpeed,
		VY: 0,
		W:  BallSize,
		H:  BallSize,
	}
	resolvePaddleCollision(&s, &s.P1, true)

	wantVX := ServeSpeed * PaddleBounceMult * CenterBoost
	if !almostEqual(s.Ball.VX, wantVX) {
		t.Errorf("center hit vx: got %f, want %f", s.Ball.VX, wantVX)
	}
	if !almostEqual(s.Ball.VY, 0) {
		t.Errorf("center hit vy: got %f, want 0", s.Ball.VY)
	}
	if s.Ball.X != PaddleMargin+PaddleWidth {
		t.Errorf("ball not pushed onto paddle face: x=%f", s.Ball.X)
	}
}

func TestPaddleCollisionEdgeHitDeflects(t *testing.T) {
	s := NewState(1, "a", 2, "b", 0)
	s.P1.PaddleY = 200

	// Ball center sits at the paddle's very top: hit zone 0, max upward deflection.
	s.Ball = Ball{
		X:  PaddleMargin + PaddleWidth - 2,
		Y:  200 - BallSize/2,
		VX: -ServeSpeed,
		VY: 0,
		W:  BallSize,
		H:  BallSize,
	}
	resolvePaddleCollision(&s, &s.P1, true)

	wantVY := -DeflectClamp * DeflectSpeed
	if !almostEqual(s.Ball.VY, wantVY) {
		t.Errorf("edge hit vy: got %f, want %f", s.Ball.VY, wantVY)
	}
	wantVX := ServeSpeed * PaddleBounceMult // no center boost off the edge
	if !almostEqual(s.Ball.VX, wantVX) {
		t.Errorf("edge hit vx: got %f, want %f", s.Ball.VX, wantVX)
	}
}

func TestPaddleCollisionIgnoresBallMovingAway(t *testing.T) {
	s := NewState(1, "a", 2, "b", 0)
	s.P1.PaddleY = 200
	s.Ball = Ball{
		X:  PaddleMargin + PaddleWidth - 2,
		Y:  200 + 40,
		VX: ServeSpeed, // moving right, away from the left paddle
		VY: 0,
		W:  BallSize,
		H:  BallSize,
	}
	before := s.Ball
	resolvePaddleCollision(&s, &s.P1, true)
	if s.Ball != before {
		t.Errorf("collision applied to ball moving away: %+v", s.Ball)
	}
}

func TestBallSpeedIsClamped(t *testing.T) {
	s := NewState(1, "a", 2, "b", 0)
	s.P1.PaddleY = 200
	s.Ball = Ball{
		X:  PaddleMargin + PaddleWidth - 2,
		Y:  200 + PaddleHeight/2 - BallSize/2,
		VX: -MaxBallSpeed, // already at the cap before the bounce multiplier
		VY: 0,
		W:  BallSize,
		H:  BallSize,
	}
	resolvePaddleCollision(&s, &s.P1, true)
	if s.Ball.VX > MaxBallSpeed {
		t.Errorf("vx exceeded cap: %f", s.Ball.VX)
	}
}

func TestScoringAwardsPointAndServesTowardConcedingSide(t *testing.T) {
	s := NewState(1, "a", 2, "b", 0)

	// Ball fully past the left edge: point for P2, serve toward P1.
	s.Ball = Ball{X: -BallSize - 1, Y: 300, VX: -100, W: BallSize, H: BallSize}
	checkScore(&s)
	if s.P2.Score != 1 {
		t.Fatalf("P2 score: got %d, want 1", s.P2.Score)
	}
	if s.Ball.VX >= 0 {
		t.Errorf("serve direction after P2 score: vx=%f, want negative", s.Ball.VX)
	}
	if s.Ball.X != (CanvasWidth-BallSize)/2 {
		t.Errorf("ball not recentered: x=%f", s.Ball.X)
	}

	// Ball past the right edge: point for P1, serve toward P2.
	s.Ball = Ball{X: CanvasWidth + 1, Y: 300, VX: 100, W: BallSize, H: BallSize}
	checkScore(&s)
	if s.P1.Score != 1 {
		t.Fatalf("P1 score: got %d, want 1", s.P1.Score)
	}
	if s.Ball.VX <= 0 {
		t.Errorf("serve direction after P1 score: vx=%f, want positive", s.Ball.VX)
	}
}

func TestBallTouchingEdgeDoesNotScore(t *testing.T) {
	s := NewState(1, "a", 2, "b", 0)
	s.Ball = Ball{X: -BallSize, Y: 300, VX: -100, W: BallSize, H: BallSize}
	checkScore(&s)
	if s.P1.Score != 0 || s.P2.Score != 0 {
		t.Errorf("partial exit scored: p1=%d p2=%d", s.P1.Score, s.P2.Score)
	}
}

func TestRepeatedConcessionsEndTheMatch(t *testing.T) {
	s := NewState(1, "left", 2, "right", DefaultWinningScore)

	for i := 1; i <= DefaultWinningScore; i++ {
		s.Ball.X = -2 * BallSize
		s.Ball.VX = -ServeSpeed
		Advance(&s, 0.001)
		if s.P2.Score != i {
			t.Fatalf("after concession %d: P2 score = %d", i, s.P2.Score)
		}
		if i < DefaultWinningScore {
			if _, won := CheckWin(&s); won {
				t.Fatalf("match reported over at %d-%d", s.P1.Score, s.P2.Score)
			}
		}
	}

	winner, won := CheckWin(&s)
	if !won || winner != 2 {
		t.Fatalf("winner = %d (won=%v), want player 2", winner, won)
	}
	if s.P1.Score != 0 || s.P2.Score != DefaultWinningScore {
		t.Fatalf("final score %d-%d, want 0-%d", s.P1.Score, s.P2.Score, DefaultWinningScore)
	}
}

func TestCheckWin(t *testing.T) {
	s := NewState(7, "a", 9, "b", 3)

	if id, won := CheckWin(&s); won {
		t.Fatalf("fresh state reported winner %d", id)
	}

	s.P2.Score = 3
	id, won := CheckWin(&s)
	if !won || id != 9 {
		t.Errorf("winner: got (%d, %v), want (9, true)", id, won)
	}
}

func TestNewStateServesLeft(t *testing.T) {
	s := NewState(1, "a", 2, "b", 0)
	if s.Ball.VX != -ServeSpeed || s.Ball.VY != 0 {
		t.Errorf("opening serve: vx=%f vy=%f", s.Ball.VX, s.Ball.VY)
	}
	if s.WinningScore != DefaultWinningScore {
		t.Errorf("default winning score: got %d", s.WinningScore)
	}
}
