package pong

import (
	"context"
	"fmt"
	"time"
)

// Ticker paces exhibition play. Training never uses one.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTicker returns a Ticker firing rate times per second.
func NewTicker(rate int) Ticker {
	return timeTicker{time.NewTicker(time.Second / time.Duration(rate))}
}

// PlayOptions controls an exhibition game.
type PlayOptions struct {
	// Ticker throttles the loop; nil runs unthrottled.
	Ticker Ticker
	// Points ends the game once either side reaches this score; zero
	// plays until ctx is done or MaxTicks is reached.
	Points int
	// MaxTicks bounds the game; zero means unbounded.
	MaxTicks int
	// OnTick, if set, is called with the snapshot after every tick.
	OnTick func(tick int, info GameInfo)
}

// Play runs an unscored exhibition game, such as a replayed winner against
// a human or scripted opponent. It returns the final score sheet. A game
// stopped by ctx is not an error.
func Play(ctx context.Context, game *Game, left, right Decider, opts PlayOptions) (GameInfo, error) {
	if opts.Ticker != nil {
		defer opts.Ticker.Stop()
	}
	for tick := 1; ; tick++ {
		if opts.Ticker != nil {
			select {
			case <-ctx.Done():
				return game.Info(), nil
			case <-opts.Ticker.C():
			}
		} else if ctx.Err() != nil {
			return game.Info(), nil
		}

		info := game.Loop()
		for _, seat := range []struct {
			side Side
			d    Decider
		}{{Left, left}, {Right, right}} {
			action, err := seat.d.Decide(game.Observe(seat.side))
			if err != nil {
				return info, fmt.Errorf("%s controller: %w", seat.side, err)
			}
			if action != Stay {
				game.MovePaddle(seat.side, action == MoveUp)
			}
		}
		if opts.OnTick != nil {
			opts.OnTick(tick, info)
		}

		if opts.Points > 0 && (info.LeftScore >= opts.Points || info.RightScore >= opts.Points) {
			return info, nil
		}
		if opts.MaxTicks > 0 && tick >= opts.MaxTicks {
			return info, nil
		}
	}
}
