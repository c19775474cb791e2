package neat

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrExtinction is returned when every species dies out and
// reset_on_extinction is false.
var ErrExtinction = errors.New("neat: complete extinction")

// FitnessFunc evaluates a generation. Genomes arrive ordered by key and the
// function must set each genome's Fitness. A returned error aborts the run.
type FitnessFunc func(ctx context.Context, genomes []*Genome) error

// Population holds the state of an evolutionary run.
type Population struct {
	Config       *Config
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Reporters    *ReporterSet
	Generation   int
	// BestGenome is a snapshot of the fittest genome seen so far.
	BestGenome *Genome

	fitnessCriterion func([]float64) float64
}

// NewPopulation creates and speciates the initial population.
func NewPopulation(config *Config) (*Population, error) {
	p, err := newPopulation(config)
	if err != nil {
		return nil, err
	}
	p.Population = p.Reproduction.CreateNewPopulation(&config.Genome, config.Neat.PopSize)
	p.SpeciesSet.Speciate(config, p.Population, p.Generation)
	return p, nil
}

func newPopulation(config *Config) (*Population, error) {
	criterion, ok := StatFunctions[strings.ToLower(config.Neat.FitnessCriterion)]
	if !ok {
		return nil, fmt.Errorf("unexpected fitness_criterion: %q", config.Neat.FitnessCriterion)
	}
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}
	reporters := &ReporterSet{}
	return &Population{
		Config:           config,
		SpeciesSet:       NewSpeciesSet(&config.SpeciesSet, reporters),
		Reproduction:     NewReproduction(&config.Reproduction, stagnation, reporters),
		Stagnation:       stagnation,
		Reporters:        reporters,
		fitnessCriterion: criterion,
	}, nil
}

// AddReporter registers a progress reporter.
func (p *Population) AddReporter(r Reporter) { p.Reporters.Add(r) }

// RemoveReporter unregisters a progress reporter.
func (p *Population) RemoveReporter(r Reporter) { p.Reporters.Remove(r) }

// Genomes returns the current population ordered by genome key.
func (p *Population) Genomes() []*Genome {
	out := make([]*Genome, 0, len(p.Population))
	for _, k := range sortedGenomeKeys(p.Population) {
		out = append(out, p.Population[k])
	}
	return out
}

// Run evolves for at most n generations, or without limit when n <= 0,
// and returns the best genome found. It stops early when the fitness
// criterion reaches fitness_threshold, when fn fails, or when ctx is done.
func (p *Population) Run(ctx context.Context, fn FitnessFunc, n int) (*Genome, error) {
	if p.Config.Neat.NoFitnessTermination && n <= 0 {
		return nil, errors.New("cannot have no generational limit with no fitness termination")
	}
	for k := 0; n <= 0 || k < n; k++ {
		winner, err := p.RunGeneration(ctx, fn)
		if err != nil {
			return p.BestGenome, err
		}
		if winner != nil {
			return winner, nil
		}
	}
	if p.Config.Neat.NoFitnessTermination && p.BestGenome != nil {
		p.Reporters.FoundSolution(p.Config, p.Generation, p.BestGenome)
	}
	return p.BestGenome, nil
}

// RunGeneration evaluates, reproduces and re-speciates once. It returns
// the winning genome when the fitness threshold is met, nil otherwise.
func (p *Population) RunGeneration(ctx context.Context, fn FitnessFunc) (*Genome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.Reporters.StartGeneration(p.Generation)

	genomes := p.Genomes()
	if err := fn(ctx, genomes); err != nil {
		return nil, fmt.Errorf("generation %d: fitness evaluation: %w", p.Generation, err)
	}

	var best *Genome
	fitnesses := make([]float64, 0, len(genomes))
	for _, g := range genomes {
		fitnesses = append(fitnesses, g.Fitness)
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	p.Reporters.PostEvaluate(p.Config, p.Population, p.SpeciesSet, best)
	if best != nil && (p.BestGenome == nil || best.Fitness > p.BestGenome.Fitness) {
		p.BestGenome = best.Copy()
	}

	if !p.Config.Neat.NoFitnessTermination && len(fitnesses) > 0 {
		if p.fitnessCriterion(fitnesses) >= p.Config.Neat.FitnessThreshold {
			p.Reporters.FoundSolution(p.Config, p.Generation, best)
			return best.Copy(), nil
		}
	}

	p.Population = p.Reproduction.Reproduce(p.Config, p.SpeciesSet, p.Config.Neat.PopSize, p.Generation)
	if len(p.Population) == 0 {
		p.Reporters.CompleteExtinction()
		if !p.Config.Neat.ResetOnExtinction {
			return nil, fmt.Errorf("generation %d: %w", p.Generation, ErrExtinction)
		}
		p.Population = p.Reproduction.CreateNewPopulation(&p.Config.Genome, p.Config.Neat.PopSize)
	}

	p.SpeciesSet.Speciate(p.Config, p.Population, p.Generation)
	p.Generation++
	p.Reporters.EndGeneration(p.Config, p.Population, p.SpeciesSet)
	return nil, nil
}
