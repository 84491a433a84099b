package game

import "time"

const (
	CanvasWidth  = 800.0
	CanvasHeight = 600.0

	PaddleWidth  = 10.0
	PaddleHeight = 100.0
	PaddleMargin = 20.0  // gap between the wall and the paddle face
	PaddleSpeed  = 420.0 // px/s

	BallSize     = 12.0
	ServeSpeed   = 360.0 // horizontal launch speed after a reset
	MaxBallSpeed = 720.0 // per-axis cap after any collision

	PaddleBounceMult = 1.1   // vx amplification on every paddle hit
	DeflectSpeed     = 430.0 // vy at a fully off-center hit
	DeflectClamp     = 0.85  // keeps near-grazing hits off degenerate angles
	CenterZone       = 0.12  // |offset| below this counts as a dead-center hit
	CenterBoost      = 1.25  // extra vx multiplier for dead-center hits

	DefaultWinningScore = 5

	TickRate     = 60
	TickInterval = time.Second / TickRate

	// A stalled scheduler must not teleport the ball across the canvas.
	MaxTickDelta = 0.25 // seconds
)
