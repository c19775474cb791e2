package pong

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrMatchAborted is returned when the match context is cancelled
	// mid-match. No fitness is recorded for an aborted match.
	ErrMatchAborted = errors.New("match aborted")
	// ErrTickLimit is returned when a match exceeds Evaluator.MaxTicks.
	ErrTickLimit = errors.New("match exceeded tick limit")
)

// Default match rules.
const (
	DefaultHitCap             = 30
	DefaultStayPenalty        = 0.01
	DefaultInvalidMovePenalty = 1.0
)

// MatchResult summarises a finished match.
type MatchResult struct {
	Info     GameInfo
	Ticks    int
	Duration time.Duration
	// Reward is the net fitness change applied to each side: hits plus
	// elapsed seconds, minus the penalties collected during play.
	LeftReward  float64
	RightReward float64
}

// Winner returns the side that scored, or false if the match ended on the
// hit cap.
func (r MatchResult) Winner() (Side, bool) {
	switch {
	case r.Info.LeftScore > r.Info.RightScore:
		return Left, true
	case r.Info.RightScore > r.Info.LeftScore:
		return Right, true
	}
	return Left, false
}

// Evaluator plays training matches between two agents and rewards them.
type Evaluator struct {
	Width, Height int

	HitCap             int
	StayPenalty        float64
	InvalidMovePenalty float64
	// MaxTicks bounds a match; zero means unbounded.
	MaxTicks int

	// Clock measures match duration. Defaults to time.Now.
	Clock func() time.Time
	// Rand drives serves. Defaults to a time-seeded source.
	Rand *rand.Rand
	// Serve overrides the launch policy, mainly for tests.
	Serve ServeFunc
}

// NewEvaluator returns an evaluator with the default field and rules.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		Width:              DefaultWidth,
		Height:             DefaultHeight,
		HitCap:             DefaultHitCap,
		StayPenalty:        DefaultStayPenalty,
		InvalidMovePenalty: DefaultInvalidMovePenalty,
	}
}

func (e *Evaluator) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Evaluator) newGame() *Game {
	opts := []Option{}
	if e.Rand != nil {
		opts = append(opts, WithRand(e.Rand))
	}
	if e.Serve != nil {
		opts = append(opts, WithServe(e.Serve))
	}
	return NewGame(e.Width, e.Height, opts...)
}

// Evaluate plays one match on a fresh field, left against right. The match
// ends as soon as either side scores or either side's hits reach HitCap.
//
// Penalties are collected while playing and applied together with the final
// reward, so a cancelled or failed match leaves both fitness values exactly
// as they were.
func (e *Evaluator) Evaluate(ctx context.Context, left, right *Agent) (MatchResult, error) {
	game := e.newGame()
	seats := [2]struct {
		agent   *Agent
		side    Side
		penalty float64
	}{
		{agent: left, side: Left},
		{agent: right, side: Right},
	}

	start := e.now()
	var res MatchResult
	for {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%w after %d ticks: %w", ErrMatchAborted, res.Ticks, err)
		}
		if e.MaxTicks > 0 && res.Ticks >= e.MaxTicks {
			return res, fmt.Errorf("%w (%d)", ErrTickLimit, e.MaxTicks)
		}

		info := game.Loop()
		res.Ticks++

		for i := range seats {
			s := &seats[i]
			action, err := s.agent.Decider.Decide(game.Observe(s.side))
			if err != nil {
				return res, fmt.Errorf("agent %d (%s) decide: %w", s.agent.ID, s.side, err)
			}
			switch action {
			case Stay:
				s.penalty += e.StayPenalty
			case MoveUp, MoveDown:
				if !game.MovePaddle(s.side, action == MoveUp) {
					s.penalty += e.InvalidMovePenalty
				}
			default:
				return res, fmt.Errorf("agent %d (%s): unknown action %v", s.agent.ID, s.side, action)
			}
		}

		res.Duration = e.now().Sub(start)
		if info.LeftScore >= 1 || info.RightScore >= 1 ||
			info.LeftHits >= e.HitCap || info.RightHits >= e.HitCap {
			res.Info = info
			break
		}
	}

	elapsed := res.Duration.Seconds()
	res.LeftReward = float64(res.Info.LeftHits) + elapsed - seats[0].penalty
	res.RightReward = float64(res.Info.RightHits) + elapsed - seats[1].penalty
	*left.Fitness += res.LeftReward
	*right.Fitness += res.RightReward
	return res, nil
}
