package pong

import "fmt"

// Action is one of the three discrete paddle commands.
type Action int

const (
	Stay Action = iota
	MoveUp
	MoveDown

	numActions
)

func (a Action) String() string {
	switch a {
	case Stay:
		return "stay"
	case MoveUp:
		return "up"
	case MoveDown:
		return "down"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Decider turns an observation into an action. Learned networks, scripted
// players and human input all plug in here.
type Decider interface {
	Decide(obs Observation) (Action, error)
}

// DeciderFunc adapts a plain function to Decider.
type DeciderFunc func(obs Observation) (Action, error)

// Decide calls f.
func (f DeciderFunc) Decide(obs Observation) (Action, error) { return f(obs) }

// Argmax returns the action whose score is highest. Ties go to the lowest
// index, so equal scores always yield Stay.
func Argmax(scores []float64) Action {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return Action(best)
}

// Network is anything that maps inputs to output scores, such as the
// neat/nn feed-forward phenotype.
type Network interface {
	Activate(inputs []float64) ([]float64, error)
}

// NetworkController feeds observations through a network and picks the
// argmax of its three outputs.
type NetworkController struct {
	Net Network
}

// Decide implements Decider.
func (c NetworkController) Decide(obs Observation) (Action, error) {
	out, err := c.Net.Activate(obs.Inputs())
	if err != nil {
		return Stay, fmt.Errorf("activate network: %w", err)
	}
	if len(out) != int(numActions) {
		return Stay, fmt.Errorf("network produced %d outputs, want %d", len(out), numActions)
	}
	return Argmax(out), nil
}

// Still never moves.
type Still struct{}

// Decide implements Decider.
func (Still) Decide(Observation) (Action, error) { return Stay, nil }

// Tracker keeps its paddle centred on the ball. It moves only when the
// ball is more than Deadband pixels away from the paddle centre.
type Tracker struct {
	PaddleHeight float64
	Deadband     float64
}

// NewTracker returns a Tracker tuned to the default paddle.
func NewTracker() Tracker {
	return Tracker{PaddleHeight: PaddleHeight, Deadband: PaddleVel}
}

// Decide implements Decider.
func (t Tracker) Decide(obs Observation) (Action, error) {
	centre := obs.PaddleY + t.PaddleHeight/2
	switch {
	case obs.BallY < centre-t.Deadband:
		return MoveUp, nil
	case obs.BallY > centre+t.Deadband:
		return MoveDown, nil
	}
	return Stay, nil
}

// Agent is one competitor in a match. Fitness points at the accumulator
// owned by the agent's genome; the evaluator only ever adds to it.
type Agent struct {
	ID      int
	Decider Decider
	Fitness *float64
}
