package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter remembers the events it receives.
type recordingReporter struct {
	BaseReporter

	starts      []int
	ends        []int
	solutions   []int
	stagnant    []int
	extinctions int
	infos       []string

	population *Population
}

func (r *recordingReporter) StartGeneration(gen int) { r.starts = append(r.starts, gen) }

func (r *recordingReporter) EndGeneration(*Config, map[int]*Genome, *SpeciesSet) {
	gen := -1
	if r.population != nil {
		gen = r.population.Generation
	}
	r.ends = append(r.ends, gen)
}

func (r *recordingReporter) FoundSolution(_ *Config, gen int, _ *Genome) {
	r.solutions = append(r.solutions, gen)
}

func (r *recordingReporter) SpeciesStagnant(sid int, _ *Species) { r.stagnant = append(r.stagnant, sid) }
func (r *recordingReporter) CompleteExtinction()                 { r.extinctions++ }
func (r *recordingReporter) Info(msg string)                     { r.infos = append(r.infos, msg) }

func TestSpeciateGroupsByDistance(t *testing.T) {
	config := loadTestConfig(t)
	config.SpeciesSet.CompatibilityThreshold = 1.0
	g1 := newTestGenome(t, config, 1)
	g2 := g1.Copy()
	g2.Key = 2
	g3 := NewGenome(3, &config.Genome)
	population := map[int]*Genome{1: g1, 2: g2, 3: g3}

	reporters := &ReporterSet{}
	rec := &recordingReporter{}
	reporters.Add(rec)
	ss := NewSpeciesSet(&config.SpeciesSet, reporters)
	ss.Speciate(config, population, 0)

	require.Len(t, ss.Species, 2)
	sid1, ok := ss.GetSpeciesID(1)
	require.True(t, ok)
	sid2, _ := ss.GetSpeciesID(2)
	sid3, _ := ss.GetSpeciesID(3)
	assert.Equal(t, 1, sid1)
	assert.Equal(t, sid1, sid2)
	assert.Equal(t, 2, sid3)
	assert.Same(t, g1, ss.Species[1].Representative)
	assert.Len(t, ss.Species[1].Members, 2)
	assert.NotEmpty(t, rec.infos)

	// A second pass keeps species keys and the founding generation.
	ss.Speciate(config, population, 1)
	require.Len(t, ss.Species, 2)
	sid3, _ = ss.GetSpeciesID(3)
	assert.Equal(t, 2, sid3)
	assert.Equal(t, 0, ss.Species[1].Created)
	assert.Equal(t, 3, ss.Indexer)

	sp, ok := ss.GetSpecies(2)
	require.True(t, ok)
	assert.Equal(t, 1, sp.Key)
	_, ok = ss.GetSpecies(99)
	assert.False(t, ok)
}

func TestSpeciateEmptyPopulation(t *testing.T) {
	config := loadTestConfig(t)
	ss := NewSpeciesSet(&config.SpeciesSet, nil)
	ss.Speciate(config, map[int]*Genome{}, 0)
	assert.Empty(t, ss.Species)
	assert.Empty(t, ss.GenomeToSpecies)
}

func TestDistanceCache(t *testing.T) {
	config := loadTestConfig(t)
	g1 := newTestGenome(t, config, 1)
	g2 := newTestGenome(t, config, 2)

	dc := NewGenomeDistanceCache()
	d := dc.Distance(g1, g2)
	assert.Equal(t, d, dc.Distance(g2, g1))
	assert.Equal(t, 1, dc.Misses)
	assert.Equal(t, 1, dc.Hits)
	assert.Len(t, dc.Values(), 1)
}

func stagnationFixture(t *testing.T, fitnesses ...float64) (*Config, *SpeciesSet) {
	t.Helper()
	config := loadTestConfig(t)
	ss := NewSpeciesSet(&config.SpeciesSet, nil)
	for i, f := range fitnesses {
		sid := i + 1
		g := NewGenome(sid, &config.Genome)
		g.Fitness = f
		sp := NewSpecies(sid, 0)
		sp.FitnessHistory = []float64{1000}
		sp.Update(g, map[int]*Genome{g.Key: g})
		ss.Species[sid] = sp
	}
	return config, ss
}

func TestStagnationSparesElites(t *testing.T) {
	config, ss := stagnationFixture(t, 1, 5, 3)
	stagnation, err := NewStagnation(&config.Stagnation)
	require.NoError(t, err)

	infos := stagnation.Update(ss, 25)
	require.Len(t, infos, 3)
	// Ascending fitness; the two fittest are protected by species_elitism.
	assert.Equal(t, []int{1, 3, 2}, []int{infos[0].SpeciesID, infos[1].SpeciesID, infos[2].SpeciesID})
	assert.True(t, infos[0].IsStagnant)
	assert.False(t, infos[1].IsStagnant)
	assert.False(t, infos[2].IsStagnant)
	assert.Equal(t, 5.0, ss.Species[2].Fitness)
	assert.Equal(t, []float64{1000, 5}, ss.Species[2].FitnessHistory)
}

func TestStagnationTracksImprovement(t *testing.T) {
	config, ss := stagnationFixture(t, 1, 5, 3)
	ss.Species[1].FitnessHistory = []float64{0}
	stagnation, err := NewStagnation(&config.Stagnation)
	require.NoError(t, err)

	infos := stagnation.Update(ss, 10)
	for _, info := range infos {
		assert.False(t, info.IsStagnant, "species %d", info.SpeciesID)
	}
	assert.Equal(t, 10, ss.Species[1].LastImproved)
	assert.Equal(t, 0, ss.Species[2].LastImproved)
}

func TestStagnationEmptySpecies(t *testing.T) {
	config, ss := stagnationFixture(t, 1)
	ss.Species[1].Members = map[int]*Genome{}
	stagnation, err := NewStagnation(&config.Stagnation)
	require.NoError(t, err)

	infos := stagnation.Update(ss, 1)
	require.Len(t, infos, 1)
	assert.True(t, math.IsInf(infos[0].Species.Fitness, -1))
}

func TestNewStagnationRejectsUnknownFunc(t *testing.T) {
	_, err := NewStagnation(&StagnationConfig{SpeciesFitnessFunc: "mode"})
	assert.Error(t, err)

	s, err := NewStagnation(&StagnationConfig{SpeciesFitnessFunc: "MAX"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.SpeciesFitnessFunc([]float64{1, 3, 2}))
}

func TestComputeSpawnAmounts(t *testing.T) {
	assert.Equal(t, []int{7, 3}, computeSpawnAmounts([]float64{1, 0}, []int{5, 5}, 10, 2))
	assert.Equal(t, []int{10}, computeSpawnAmounts([]float64{1}, []int{10}, 10, 2))
	// Species never shrink below the minimum size.
	spawn := computeSpawnAmounts([]float64{0, 0, 0}, []int{1, 1, 1}, 30, 4)
	for _, n := range spawn {
		assert.GreaterOrEqual(t, n, 4)
	}
}

func TestReproduceKeepsElitesAndBreedsFromSurvivors(t *testing.T) {
	config := loadTestConfig(t)
	config.SpeciesSet.CompatibilityThreshold = 1000
	stagnation, err := NewStagnation(&config.Stagnation)
	require.NoError(t, err)
	repro := NewReproduction(&config.Reproduction, stagnation, nil)

	population := repro.CreateNewPopulation(&config.Genome, 10)
	require.Len(t, population, 10)
	for k, g := range population {
		g.Fitness = float64(k)
	}
	ss := NewSpeciesSet(&config.SpeciesSet, nil)
	ss.Speciate(config, population, 0)
	require.Len(t, ss.Species, 1)

	next := repro.Reproduce(config, ss, 10, 0)
	require.Len(t, next, 10)
	assert.Same(t, population[10], next[10])
	assert.Same(t, population[9], next[9])
	for k := 11; k <= 18; k++ {
		require.Contains(t, next, k)
		parents := repro.Ancestors[k]
		require.Len(t, parents, 2)
		for _, p := range parents {
			assert.Contains(t, []int{9, 10}, p)
		}
	}
	assert.Equal(t, 19, repro.NextGenomeKey)

	// The surviving species waits, empty, for the next speciation.
	require.Len(t, ss.Species, 1)
	for _, sp := range ss.Species {
		assert.Empty(t, sp.Members)
		assert.NotNil(t, sp.Representative)
	}
}

func TestReproduceExtinction(t *testing.T) {
	config, ss := stagnationFixture(t, 1, 2)
	config.Stagnation.MaxStagnation = 1
	config.Stagnation.SpeciesElitism = 0
	stagnation, err := NewStagnation(&config.Stagnation)
	require.NoError(t, err)

	reporters := &ReporterSet{}
	rec := &recordingReporter{}
	reporters.Add(rec)
	repro := NewReproduction(&config.Reproduction, stagnation, reporters)

	next := repro.Reproduce(config, ss, 10, 5)
	assert.Empty(t, next)
	assert.Empty(t, ss.Species)
	assert.ElementsMatch(t, []int{1, 2}, rec.stagnant)
}
