package neat

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter receives progress events from a Population. Embed BaseReporter
// to implement only the events you care about.
type Reporter interface {
	StartGeneration(generation int)
	PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome)
	EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet)
	FoundSolution(config *Config, generation int, best *Genome)
	SpeciesStagnant(speciesID int, species *Species)
	CompleteExtinction()
	Info(msg string)
}

// BaseReporter implements Reporter with no-ops.
type BaseReporter struct{}

func (BaseReporter) StartGeneration(int)                                       {}
func (BaseReporter) PostEvaluate(*Config, map[int]*Genome, *SpeciesSet, *Genome) {}
func (BaseReporter) EndGeneration(*Config, map[int]*Genome, *SpeciesSet)         {}
func (BaseReporter) FoundSolution(*Config, int, *Genome)                        {}
func (BaseReporter) SpeciesStagnant(int, *Species)                              {}
func (BaseReporter) CompleteExtinction()                                        {}
func (BaseReporter) Info(string)                                                {}

// ReporterSet fans every event out to its members in order.
type ReporterSet struct {
	reporters []Reporter
}

// Add registers a reporter.
func (rs *ReporterSet) Add(r Reporter) {
	rs.reporters = append(rs.reporters, r)
}

// Remove unregisters a reporter.
func (rs *ReporterSet) Remove(r Reporter) {
	for i, existing := range rs.reporters {
		if existing == r {
			rs.reporters = append(rs.reporters[:i], rs.reporters[i+1:]...)
			return
		}
	}
}

func (rs *ReporterSet) StartGeneration(gen int) {
	for _, r := range rs.reporters {
		r.StartGeneration(gen)
	}
}

func (rs *ReporterSet) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	for _, r := range rs.reporters {
		r.PostEvaluate(config, population, species, best)
	}
}

func (rs *ReporterSet) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	for _, r := range rs.reporters {
		r.EndGeneration(config, population, species)
	}
}

func (rs *ReporterSet) FoundSolution(config *Config, generation int, best *Genome) {
	for _, r := range rs.reporters {
		r.FoundSolution(config, generation, best)
	}
}

func (rs *ReporterSet) SpeciesStagnant(sid int, species *Species) {
	for _, r := range rs.reporters {
		r.SpeciesStagnant(sid, species)
	}
}

func (rs *ReporterSet) CompleteExtinction() {
	for _, r := range rs.reporters {
		r.CompleteExtinction()
	}
}

func (rs *ReporterSet) Info(msg string) {
	for _, r := range rs.reporters {
		r.Info(msg)
	}
}

// Infof formats and broadcasts an informational message.
func (rs *ReporterSet) Infof(format string, args ...interface{}) {
	rs.Info(fmt.Sprintf(format, args...))
}

// --------------------------- StdOutReporter ---------------------------

// StdOutReporter prints a per-generation summary.
type StdOutReporter struct {
	ShowSpeciesDetail bool
	Out               io.Writer

	generation     int
	generationTime time.Time
	times          []time.Duration
}

// NewStdOutReporter returns a reporter writing to stdout.
func NewStdOutReporter(showSpeciesDetail bool) *StdOutReporter {
	return &StdOutReporter{ShowSpeciesDetail: showSpeciesDetail, Out: os.Stdout}
}

func (r *StdOutReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.Out, format, args...)
}

func (r *StdOutReporter) StartGeneration(gen int) {
	r.generation = gen
	r.printf("\n ****** Running generation %d ****** \n\n", gen)
	r.generationTime = time.Now()
}

func (r *StdOutReporter) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	fitnesses := make([]float64, 0, len(population))
	for _, g := range population {
		fitnesses = append(fitnesses, g.Fitness)
	}
	r.printf("Population's average fitness: %.5f stdev: %.5f\n", Mean(fitnesses), Stdev(fitnesses))
	if best == nil {
		return
	}
	nodes, conns := best.Size()
	sid, _ := species.GetSpeciesID(best.Key)
	r.printf("Best fitness: %.5f - size: (%d, %d) - species %d - id %d\n", best.Fitness, nodes, conns, sid, best.Key)
}

func (r *StdOutReporter) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	r.printf("Population of %s members in %d species\n", humanize.Comma(int64(len(population))), len(species.Species))
	if r.ShowSpeciesDetail && len(species.Species) > 0 {
		r.printf("   ID   age  size   fitness   adj fit  stag\n")
		r.printf("  ====  ===  ====  =========  =======  ====\n")
		sids := make([]int, 0, len(species.Species))
		for sid := range species.Species {
			sids = append(sids, sid)
		}
		sort.Ints(sids)
		for _, sid := range sids {
			s := species.Species[sid]
			r.printf("  %4d  %3d  %4d  %9.3f  %7.3f  %4d\n",
				sid, r.generation-s.Created, len(s.Members), s.Fitness, s.AdjustedFitness, r.generation-s.LastImproved)
		}
	}

	elapsed := time.Since(r.generationTime)
	r.times = append(r.times, elapsed)
	if len(r.times) > 10 {
		r.times = r.times[1:]
	}
	var total time.Duration
	for _, t := range r.times {
		total += t
	}
	avg := total / time.Duration(len(r.times))
	r.printf("Generation time: %s (average %s), started %s\n",
		elapsed.Round(time.Millisecond), avg.Round(time.Millisecond), humanize.Time(r.generationTime))
}

func (r *StdOutReporter) FoundSolution(config *Config, generation int, best *Genome) {
	nodes, conns := best.Size()
	r.printf("\nBest individual in generation %d meets fitness threshold - complexity: (%d, %d)\n", generation, nodes, conns)
}

func (r *StdOutReporter) SpeciesStagnant(sid int, species *Species) {
	if r.ShowSpeciesDetail {
		r.printf("\nSpecies %d with %d members is stagnated: removing it\n", sid, len(species.Members))
	}
}

func (r *StdOutReporter) CompleteExtinction() {
	r.printf("All species extinct.\n")
}

func (r *StdOutReporter) Info(msg string) {
	r.printf("%s\n", msg)
}

// --------------------------- StatisticsReporter ---------------------------

// GenerationStats is one generation's fitness summary.
type GenerationStats struct {
	Generation   int
	BestKey      int
	BestFitness  float64
	MeanFitness  float64
	StdevFitness float64
	SpeciesSizes map[int]int
}

// StatisticsReporter keeps an in-memory record of every generation.
type StatisticsReporter struct {
	BaseReporter

	Generations []GenerationStats
	// MostFit holds a copy of each generation's best genome.
	MostFit []*Genome

	generation int
}

// NewStatisticsReporter returns an empty StatisticsReporter.
func NewStatisticsReporter() *StatisticsReporter {
	return &StatisticsReporter{}
}

func (s *StatisticsReporter) StartGeneration(gen int) {
	s.generation = gen
}

func (s *StatisticsReporter) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	fitnesses := make([]float64, 0, len(population))
	for _, g := range population {
		fitnesses = append(fitnesses, g.Fitness)
	}
	gs := GenerationStats{
		Generation:   s.generation,
		MeanFitness:  Mean(fitnesses),
		StdevFitness: Stdev(fitnesses),
		SpeciesSizes: map[int]int{},
	}
	if best != nil {
		gs.BestKey = best.Key
		gs.BestFitness = best.Fitness
		s.MostFit = append(s.MostFit, best.Copy())
	}
	s.Generations = append(s.Generations, gs)
}

func (s *StatisticsReporter) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	if len(s.Generations) == 0 {
		return
	}
	sizes := s.Generations[len(s.Generations)-1].SpeciesSizes
	for sid, sp := range species.Species {
		sizes[sid] = len(sp.Members)
	}
}

// BestGenome returns the fittest genome seen in any generation.
func (s *StatisticsReporter) BestGenome() *Genome {
	var best *Genome
	for _, g := range s.MostFit {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// BestFitnesses returns the best fitness of each generation in order.
func (s *StatisticsReporter) BestFitnesses() []float64 {
	out := make([]float64, len(s.Generations))
	for i, g := range s.Generations {
		out[i] = g.BestFitness
	}
	return out
}

// MeanFitnesses returns the mean fitness of each generation in order.
func (s *StatisticsReporter) MeanFitnesses() []float64 {
	out := make([]float64, len(s.Generations))
	for i, g := range s.Generations {
		out[i] = g.MeanFitness
	}
	return out
}
