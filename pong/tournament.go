package pong

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/baldhumanity/neat-pong/neat"
	"github.com/baldhumanity/neat-pong/neat/nn"
)

// Pairing selects which genomes meet in a round.
type Pairing string

const (
	// PairUnique plays every unordered pair i<j exactly once.
	PairUnique Pairing = "unique"
	// PairLegacy plays row i against genomes[min(i+1, n-1):], which makes
	// the last genome play itself once. Kept for reproducing old runs.
	PairLegacy Pairing = "legacy"
)

// ParsePairing validates a pairing name.
func ParsePairing(s string) (Pairing, error) {
	switch p := Pairing(strings.ToLower(strings.TrimSpace(s))); p {
	case PairUnique, PairLegacy:
		return p, nil
	case "":
		return PairUnique, nil
	}
	return "", fmt.Errorf("unknown pairing %q, want %q or %q", s, PairUnique, PairLegacy)
}

// Pairs lists the index pairs played in one round over n genomes.
func Pairs(n int, scheme Pairing) ([][2]int, error) {
	if n <= 0 {
		return nil, nil
	}
	var pairs [][2]int
	switch scheme {
	case PairUnique, "":
		if n == 1 {
			return [][2]int{{0, 0}}, nil
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	case PairLegacy:
		for i := 0; i < n; i++ {
			for j := min(i+1, n-1); j < n; j++ {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	default:
		return nil, fmt.Errorf("unknown pairing %q", scheme)
	}
	return pairs, nil
}

// MatchRecord describes one finished tournament match.
type MatchRecord struct {
	Generation int
	LeftKey    int
	RightKey   int
	Result     MatchResult
}

// MatchObserver is told about every completed match.
type MatchObserver interface {
	ObserveMatch(rec MatchRecord)
}

// Tournament evaluates a generation of genomes by playing them against
// each other. Its EvalGenomes method is a neat.FitnessFunc.
type Tournament struct {
	Evaluator *Evaluator
	Pairing   Pairing
	Observers []MatchObserver
	// Progress, if set, is called after every match.
	Progress func(done, total int)
	// NewNetwork builds the decision network of a genome. Defaults to the
	// feed-forward phenotype.
	NewNetwork func(g *neat.Genome) (Network, error)

	generation int
}

// NewTournament returns a tournament using ev and unique pairing.
func NewTournament(ev *Evaluator) *Tournament {
	return &Tournament{Evaluator: ev, Pairing: PairUnique}
}

func feedForward(g *neat.Genome) (Network, error) {
	net, err := nn.CreateFeedForwardNetwork(g)
	if err != nil {
		return nil, err
	}
	return net, nil
}

// EvalGenomes resets every genome's fitness to zero and then plays the
// round's pairings in order, adding each match's rewards. Cancelling ctx
// stops the round after the in-flight match, which contributes nothing.
func (t *Tournament) EvalGenomes(ctx context.Context, genomes []*neat.Genome) error {
	gen := t.generation
	t.generation++
	pairs, err := Pairs(len(genomes), t.Pairing)
	if err != nil {
		return err
	}

	build := t.NewNetwork
	if build == nil {
		build = feedForward
	}
	agents := make([]*Agent, len(genomes))
	for i, g := range genomes {
		g.Fitness = 0
		agent := &Agent{ID: g.Key, Fitness: &g.Fitness}
		net, err := build(g)
		if err != nil {
			log.Printf("pong: genome %d has no usable network, it will not move: %v", g.Key, err)
			agent.Decider = Still{}
		} else {
			agent.Decider = NetworkController{Net: net}
		}
		agents[i] = agent
	}

	for n, p := range pairs {
		left, right := agents[p[0]], agents[p[1]]
		res, err := t.Evaluator.Evaluate(ctx, left, right)
		if err != nil {
			return fmt.Errorf("match %d/%d (genome %d vs %d): %w", n+1, len(pairs), left.ID, right.ID, err)
		}
		rec := MatchRecord{Generation: gen, LeftKey: left.ID, RightKey: right.ID, Result: res}
		for _, o := range t.Observers {
			o.ObserveMatch(rec)
		}
		if t.Progress != nil {
			t.Progress(n+1, len(pairs))
		}
	}
	return nil
}

// SetGeneration sets the number the next round is recorded under, e.g.
// after restoring a checkpoint. Rounds count from 0 like neat generations.
func (t *Tournament) SetGeneration(gen int) {
	t.generation = gen
}
