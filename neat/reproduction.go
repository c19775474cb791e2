package neat

import (
	"math"
	"math/rand"
	"sort"
)

// Reproduction creates new genomes, either from scratch or by crossover
// and mutation of the surviving species.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int
	Ancestors     map[int][]int // genome key -> parent keys
	Stagnation    *Stagnation

	reporters *ReporterSet
}

// NewReproduction creates a reproduction manager handing out genome keys
// from 1.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation, reporters *ReporterSet) *Reproduction {
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		Stagnation:    stagnation,
		reporters:     reporters,
	}
}

func (r *Reproduction) nextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation builds popSize fresh genomes.
func (r *Reproduction) CreateNewPopulation(genomeConfig *GenomeConfig, popSize int) map[int]*Genome {
	genomes := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		key := r.nextKey()
		g := NewGenome(key, genomeConfig)
		g.ConfigureNew()
		genomes[key] = g
		r.Ancestors[key] = nil
	}
	return genomes
}

// Reproduce removes stagnant species and breeds the next generation from
// the rest. An empty result means every species went extinct.
func (r *Reproduction) Reproduce(config *Config, speciesSet *SpeciesSet, popSize int, generation int) map[int]*Genome {
	var (
		allFitnesses []float64
		remaining    []*Species
	)
	for _, info := range r.Stagnation.Update(speciesSet, generation) {
		if info.IsStagnant {
			if r.reporters != nil {
				r.reporters.SpeciesStagnant(info.SpeciesID, info.Species)
			}
			continue
		}
		fitnesses := info.Species.GetFitnesses()
		if len(fitnesses) == 0 {
			continue
		}
		allFitnesses = append(allFitnesses, fitnesses...)
		remaining = append(remaining, info.Species)
	}
	if len(remaining) == 0 {
		speciesSet.Species = make(map[int]*Species)
		return map[int]*Genome{}
	}

	// Fitness sharing: species fitness scaled into [0, 1] over the
	// population's fitness range.
	minFitness := MinFloat(allFitnesses)
	maxFitness := MaxFloat(allFitnesses)
	fitnessRange := math.Max(1.0, maxFitness-minFitness)
	adjusted := make([]float64, len(remaining))
	previousSizes := make([]int, len(remaining))
	for i, sp := range remaining {
		sp.AdjustedFitness = (sp.Fitness - minFitness) / fitnessRange
		adjusted[i] = sp.AdjustedFitness
		previousSizes[i] = len(sp.Members)
	}
	if r.reporters != nil {
		r.reporters.Infof("Average adjusted fitness: %.3f", Mean(adjusted))
	}

	minSpeciesSize := max(r.Config.MinSpeciesSize, r.Config.Elitism)
	spawnAmounts := computeSpawnAmounts(adjusted, previousSizes, popSize, minSpeciesSize)

	newPopulation := make(map[int]*Genome, popSize)
	ancestors := make(map[int][]int, popSize)
	speciesSet.Species = make(map[int]*Species, len(remaining))

	for i, sp := range remaining {
		spawn := max(spawnAmounts[i], r.Config.Elitism)

		oldMembers := make([]*Genome, 0, len(sp.Members))
		for _, gid := range sortedGenomeKeys(sp.Members) {
			oldMembers = append(oldMembers, sp.Members[gid])
		}
		sort.SliceStable(oldMembers, func(a, b int) bool {
			return oldMembers[a].Fitness > oldMembers[b].Fitness
		})

		// The species survives into the next speciation with no members.
		sp.Members = map[int]*Genome{}
		speciesSet.Species[sp.Key] = sp

		for j := 0; j < r.Config.Elitism && j < len(oldMembers); j++ {
			elite := oldMembers[j]
			newPopulation[elite.Key] = elite
			ancestors[elite.Key] = r.Ancestors[elite.Key]
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		cutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(oldMembers))))
		cutoff = min(max(cutoff, 2), len(oldMembers))
		parents := oldMembers[:cutoff]

		for ; spawn > 0; spawn-- {
			p1 := parents[rand.Intn(len(parents))]
			p2 := parents[rand.Intn(len(parents))]
			key := r.nextKey()
			child := NewGenome(key, &config.Genome)
			child.ConfigureCrossover(p1, p2)
			child.Mutate()
			newPopulation[key] = child
			ancestors[key] = []int{p1.Key, p2.Key}
		}
	}
	r.Ancestors = ancestors
	return newPopulation
}

// computeSpawnAmounts splits popSize between species in proportion to
// adjusted fitness, moving each species halfway from its previous size
// toward its share, and never below minSpeciesSize.
func computeSpawnAmounts(adjusted []float64, previousSizes []int, popSize, minSpeciesSize int) []int {
	var adjustedSum float64
	for _, af := range adjusted {
		adjustedSum += af
	}

	spawn := make([]int, len(adjusted))
	total := 0
	for i, af := range adjusted {
		s := float64(minSpeciesSize)
		if adjustedSum > 0 {
			s = math.Max(s, af/adjustedSum*float64(popSize))
		}
		d := (s - float64(previousSizes[i])) * 0.5
		c := int(math.Round(d))
		n := previousSizes[i]
		switch {
		case c != 0:
			n += c
		case d > 0:
			n++
		case d < 0:
			n--
		}
		spawn[i] = n
		total += n
	}

	if total == 0 {
		for i := range spawn {
			spawn[i] = minSpeciesSize
		}
		return spawn
	}
	norm := float64(popSize) / float64(total)
	for i, n := range spawn {
		spawn[i] = max(minSpeciesSize, int(math.Round(float64(n)*norm)))
	}
	return spawn
}
