package neat

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Stagnation tracks per-species fitness history and flags species that
// have not improved for max_stagnation generations.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation resolves the species fitness function named in config.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{Config: config, SpeciesFitnessFunc: fn}, nil
}

// StagnationInfo is the verdict for one species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update recomputes each species' fitness and returns the species in
// ascending fitness order with their stagnation verdict. The
// species_elitism fittest species are never marked stagnant.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	if len(speciesSet.Species) == 0 {
		return nil
	}

	data := make([]StagnationInfo, 0, len(speciesSet.Species))
	for _, sid := range speciesSet.sortedSpeciesKeys() {
		sp := speciesSet.Species[sid]
		prevFitness := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			prevFitness = MaxFloat(sp.FitnessHistory)
		}

		if fitnesses := sp.GetFitnesses(); len(fitnesses) > 0 {
			sp.Fitness = s.SpeciesFitnessFunc(fitnesses)
		} else {
			sp.Fitness = math.Inf(-1)
		}
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0
		if sp.Fitness > prevFitness {
			sp.LastImproved = generation
		}
		data = append(data, StagnationInfo{SpeciesID: sid, Species: sp})
	}

	sort.SliceStable(data, func(i, j int) bool {
		return data[i].Species.Fitness < data[j].Species.Fitness
	})

	numNonStagnant := len(data)
	for i := range data {
		sp := data[i].Species
		stagnant := generation-sp.LastImproved >= s.Config.MaxStagnation
		// Keep at least species_elitism species alive.
		if numNonStagnant <= s.Config.SpeciesElitism {
			stagnant = false
		}
		if len(data)-i <= s.Config.SpeciesElitism {
			stagnant = false
		}
		if stagnant {
			numNonStagnant--
		}
		data[i].IsStagnant = stagnant
	}
	return data
}
