package game

import "math"

// Advance runs one simulation step over dt seconds: paddle movement, ball
// movement, wall bounces, paddle collisions, then scoring. Pure computation,
// no I/O; callers own the state.
func Advance(s *State, dt float64) {
	advancePaddle(&s.P1, dt)
	advancePaddle(&s.P2, dt)

	s.Ball.X += s.Ball.VX * dt
	s.Ball.Y += s.Ball.VY * dt

	resolveWallBounce(&s.Ball)
	resolvePaddleCollision(s, &s.P1, true)
	resolvePaddleCollision(s, &s.P2, false)
	checkScore(s)
}

// CheckWin reports the winning player once a score reaches the target.
func CheckWin(s *State) (winnerID int, won bool) {
	if s.P1.Score >= s.WinningScore {
		return s.P1.PlayerID, true
	}
	if s.P2.Score >= s.WinningScore {
		return s.P2.PlayerID, true
	}
	return 0, false
}

func advancePaddle(p *PlayerSlot, dt float64) {
	switch p.Input {
	case DirUp:
		p.PaddleY -= PaddleSpeed * dt
	case DirDown:
		p.PaddleY += PaddleSpeed * dt
	}
	p.PaddleY = clamp(p.PaddleY, 0, CanvasHeight-PaddleHeight)
}

func resolveWallBounce(b *Ball) {
	if b.Y < 0 {
		b.Y = 0
		b.VY = -b.VY
	} else if b.Y+b.H > CanvasHeight {
		b.Y = CanvasHeight - b.H
		b.VY = -b.VY
	}
}

// resolvePaddleCollision bounces the ball off a paddle it overlaps while
// moving toward it. The hit zone along the paddle controls the outgoing
// vertical deflection: offset = clamp(2*(hitZone-0.5), ±DeflectClamp),
// vy = offset*DeflectSpeed. A dead-center hit (|offset| < CenterZone)
// additionally boosts vx.
func resolvePaddleCollision(s *State, p *PlayerSlot, left bool) {
	b := &s.Ball

	var paddleX float64
	if left {
		if b.VX >= 0 {
			return
		}
		paddleX = PaddleMargin
	} else {
		if b.VX <= 0 {
			return
		}
		paddleX = CanvasWidth - PaddleMargin - PaddleWidth
	}

	if !intersects(b.X, b.Y, b.W, b.H, paddleX, p.PaddleY, PaddleWidth, PaddleHeight) {
		return
	}

	// Push the ball back onto the paddle face so one hit cannot trigger twice.
	if left {
		b.X = paddleX + PaddleWidth
	} else {
		b.X = paddleX - b.W
	}

	b.VX = -b.VX * PaddleBounceMult

	ballCenterY := b.Y + b.H/2
	hitZone := clamp((ballCenterY-p.PaddleY)/PaddleHeight, 0, 1)
	offset := clamp(2*(hitZone-0.5), -DeflectClamp, DeflectClamp)
	b.VY = offset * DeflectSpeed
	if math.Abs(offset) < CenterZone {
		b.VX *= CenterBoost
	}

	b.VX = clamp(b.VX, -MaxBallSpeed, MaxBallSpeed)
	b.VY = clamp(b.VY, -MaxBallSpeed, MaxBallSpeed)
}

// checkScore awards a point when the ball fully exits a side and re-serves
// toward the side that was scored upon.
func checkScore(s *State) {
	b := &s.Ball
	switch {
	case b.X+b.W < 0:
		s.P2.Score++
		s.resetPositions(-1)
	case b.X > CanvasWidth:
		s.P1.Score++
		s.resetPositions(1)
	}
}

func intersects(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
	return ax < bx+bw && ax+aw > bx && ay < by+bh && ay+ah > by
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
