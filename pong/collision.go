package pong

import "math"

// resolveCollisions handles wall bounces, paddle hits and scoring for the
// ball's current position. It runs once per tick, after the ball moved.
func (g *Game) resolveCollisions() {
	b := g.ball

	if b.Y+b.Radius >= g.height {
		b.VY = -math.Abs(b.VY)
		b.Y = math.Min(b.Y, g.height-b.Radius)
	} else if b.Y-b.Radius <= 0 {
		b.VY = math.Abs(b.VY)
		b.Y = math.Max(b.Y, b.Radius)
	}

	// Only the paddle the ball is heading for can be struck.
	if b.VX < 0 {
		if g.strikes(g.left, Left) {
			g.deflect(g.left)
			g.info.LeftHits++
		}
	} else if b.VX > 0 {
		if g.strikes(g.right, Right) {
			g.deflect(g.right)
			g.info.RightHits++
		}
	}

	if b.X < 0 {
		g.info.RightScore++
		g.serveBall()
	} else if b.X > g.width {
		g.info.LeftScore++
		g.serveBall()
	}
}

// strikes reports whether the ball overlaps the face of p. The ball's centre
// must lie within the paddle's vertical span, its leading edge must have
// reached the paddle face and its trailing edge must not be behind the paddle.
func (g *Game) strikes(p *Paddle, side Side) bool {
	b := g.ball
	if b.Y < p.Y || b.Y > p.Y+p.Height {
		return false
	}
	if side == Left {
		return b.X-b.Radius <= p.X+p.Width && b.X+b.Radius >= p.X
	}
	return b.X+b.Radius >= p.X && b.X-b.Radius <= p.X+p.Width
}

// deflect sends the ball back the way it came. The vertical speed depends
// only on how far from the paddle centre the ball struck, scaled so that an
// edge hit leaves at MaxVel and a dead-centre hit leaves flat.
func (g *Game) deflect(p *Paddle) {
	b := g.ball
	b.VX = -b.VX
	reduction := (p.Height / 2) / b.MaxVel
	b.VY = -(p.Centre() - b.Y) / reduction
}
