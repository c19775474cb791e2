package pong

import (
	"math"
	"math/rand"
)

// Default field and body dimensions, in pixels.
const (
	DefaultWidth  = 700
	DefaultHeight = 500

	BallRadius = 7.0
	BallMaxVel = 5.0

	PaddleWidth  = 20.0
	PaddleHeight = 100.0
	PaddleVel    = 4.0
	PaddleMargin = 10.0

	// Launch angles are drawn from [-MaxServeAngle, MaxServeAngle] degrees.
	MaxServeAngle = 30.0
)

// Side names one of the two paddles.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Ball is the single moving body on the field.
type Ball struct {
	X, Y   float64
	VX, VY float64
	Radius float64
	MaxVel float64

	originX, originY float64
}

func newBall(x, y float64) *Ball {
	return &Ball{
		X:       x,
		Y:       y,
		Radius:  BallRadius,
		MaxVel:  BallMaxVel,
		originX: x,
		originY: y,
	}
}

// Move advances the ball by one tick of velocity.
func (b *Ball) Move() {
	b.X += b.VX
	b.Y += b.VY
}

// launch puts the ball back at its origin travelling at MaxVel along angle
// (degrees from horizontal). dir < 0 sends it left.
func (b *Ball) launch(angle float64, dir float64) {
	b.X, b.Y = b.originX, b.originY
	rad := angle * math.Pi / 180
	sign := 1.0
	if dir < 0 {
		sign = -1.0
	}
	b.VX = sign * math.Abs(math.Cos(rad)*b.MaxVel)
	b.VY = math.Sin(rad) * b.MaxVel
}

// ServeFunc picks the launch angle (degrees) and horizontal direction
// (negative = towards the left paddle) for a new serve.
type ServeFunc func(rng *rand.Rand) (angle float64, dir float64)

// RandomServe launches at a uniformly random non-zero angle within
// ±MaxServeAngle, towards either side with equal probability.
func RandomServe(rng *rand.Rand) (float64, float64) {
	angle := 0.0
	for angle == 0 {
		angle = (rng.Float64()*2 - 1) * MaxServeAngle
	}
	dir := 1.0
	if rng.Float64() < 0.5 {
		dir = -1.0
	}
	return angle, dir
}

// FixedServe always launches at the same angle and direction.
func FixedServe(angle, dir float64) ServeFunc {
	return func(*rand.Rand) (float64, float64) { return angle, dir }
}

// Paddle is a vertically moving bat. X never changes after construction.
type Paddle struct {
	X, Y          float64
	Width, Height float64
	Vel           float64

	originY float64
}

func newPaddle(x, y float64) *Paddle {
	return &Paddle{
		X:       x,
		Y:       y,
		Width:   PaddleWidth,
		Height:  PaddleHeight,
		Vel:     PaddleVel,
		originY: y,
	}
}

// Centre returns the vertical midpoint of the paddle.
func (p *Paddle) Centre() float64 {
	return p.Y + p.Height/2
}

func (p *Paddle) reset() {
	p.Y = p.originY
}
