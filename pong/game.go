package pong

import (
	"math"
	"math/rand"
	"time"
)

// GameInfo is the per-tick snapshot returned by Loop.
type GameInfo struct {
	LeftScore  int
	RightScore int
	LeftHits   int
	RightHits  int
}

// Hits returns the hit counter of one side.
func (gi GameInfo) Hits(side Side) int {
	if side == Left {
		return gi.LeftHits
	}
	return gi.RightHits
}

// Observation is what a controller sees each tick.
type Observation struct {
	PaddleY      float64 // top edge of the observer's own paddle
	BallDistance float64 // horizontal distance between paddle and ball
	BallY        float64
}

// Inputs returns the observation in network input order.
func (o Observation) Inputs() []float64 {
	return []float64{o.PaddleY, o.BallDistance, o.BallY}
}

// Game owns one ball, two paddles and the score sheet of a single match.
// It advances only when Loop is called and knows nothing about when a
// match ends.
type Game struct {
	width, height float64

	ball  *Ball
	left  *Paddle
	right *Paddle
	info  GameInfo

	rng   *rand.Rand
	serve ServeFunc
}

// Option configures a Game.
type Option func(*Game)

// WithRand sets the random source used for serves.
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) { g.rng = rng }
}

// WithServe overrides how the ball is launched after each point.
func WithServe(fn ServeFunc) Option {
	return func(g *Game) { g.serve = fn }
}

// NewGame creates a game on a width×height field with the ball served
// from the centre.
func NewGame(width, height int, opts ...Option) *Game {
	w, h := float64(width), float64(height)
	g := &Game{
		width:  w,
		height: h,
		ball:   newBall(w/2, h/2),
		left:   newPaddle(PaddleMargin, h/2-PaddleHeight/2),
		right:  newPaddle(w-PaddleMargin-PaddleWidth, h/2-PaddleHeight/2),
		serve:  RandomServe,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g.serveBall()
	return g
}

// Width returns the field width.
func (g *Game) Width() float64 { return g.width }

// Height returns the field height.
func (g *Game) Height() float64 { return g.height }

// Ball returns a copy of the ball state.
func (g *Game) Ball() Ball { return *g.ball }

// Paddle returns a copy of one paddle's state.
func (g *Game) Paddle(side Side) Paddle { return *g.paddle(side) }

// Info returns the current score sheet.
func (g *Game) Info() GameInfo { return g.info }

// Loop advances the simulation by exactly one tick.
func (g *Game) Loop() GameInfo {
	g.ball.Move()
	g.resolveCollisions()
	return g.info
}

// MovePaddle moves one paddle a single step up or down. A step that would
// take the paddle outside the field is refused: the paddle stays put and
// false is returned.
func (g *Game) MovePaddle(side Side, up bool) bool {
	p := g.paddle(side)
	next := p.Y + p.Vel
	if up {
		next = p.Y - p.Vel
	}
	if next < 0 || next+p.Height > g.height {
		return false
	}
	p.Y = next
	return true
}

// Observe builds the observation for the controller of one side.
func (g *Game) Observe(side Side) Observation {
	p := g.paddle(side)
	return Observation{
		PaddleY:      p.Y,
		BallDistance: math.Abs(p.X - g.ball.X),
		BallY:        g.ball.Y,
	}
}

// Reset clears scores and hits, re-centres both paddles and serves again.
func (g *Game) Reset() {
	g.info = GameInfo{}
	g.left.reset()
	g.right.reset()
	g.serveBall()
}

func (g *Game) serveBall() {
	angle, dir := g.serve(g.rng)
	g.ball.launch(angle, dir)
}

func (g *Game) paddle(side Side) *Paddle {
	if side == Left {
		return g.left
	}
	return g.right
}
