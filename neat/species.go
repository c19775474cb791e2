package neat

import (
	"math"
	"sort"
)

// Species is a group of genetically similar genomes.
type Species struct {
	Key             int
	Created         int // generation the species appeared in
	LastImproved    int
	Representative  *Genome
	Members         map[int]*Genome
	Fitness         float64
	AdjustedFitness float64
	FitnessHistory  []float64
}

// NewSpecies creates an empty species.
func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		LastImproved: generation,
		Members:      make(map[int]*Genome),
	}
}

// Update replaces the representative and the member set.
func (s *Species) Update(representative *Genome, members map[int]*Genome) {
	s.Representative = representative
	s.Members = members
}

// GetFitnesses returns the member fitnesses ordered by genome key.
func (s *Species) GetFitnesses() []float64 {
	keys := make([]int, 0, len(s.Members))
	for k := range s.Members {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fitnesses := make([]float64, 0, len(keys))
	for _, k := range keys {
		fitnesses = append(fitnesses, s.Members[k].Fitness)
	}
	return fitnesses
}

// --------------------------- GenomeDistanceCache ---------------------------

type genomePair struct{ a, b int }

// GenomeDistanceCache memoises genome distances within one speciation pass.
type GenomeDistanceCache struct {
	distances map[genomePair]float64
	Hits      int
	Misses    int
}

// NewGenomeDistanceCache creates an empty cache.
func NewGenomeDistanceCache() *GenomeDistanceCache {
	return &GenomeDistanceCache{distances: make(map[genomePair]float64)}
}

// Distance returns the cached distance between two genomes, computing it
// on first use.
func (dc *GenomeDistanceCache) Distance(g1, g2 *Genome) float64 {
	key := genomePair{g1.Key, g2.Key}
	if key.a > key.b {
		key.a, key.b = key.b, key.a
	}
	if d, ok := dc.distances[key]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := g1.Distance(g2)
	dc.distances[key] = d
	return d
}

// Values returns every distance computed so far.
func (dc *GenomeDistanceCache) Values() []float64 {
	out := make([]float64, 0, len(dc.distances))
	for _, d := range dc.distances {
		out = append(out, d)
	}
	return out
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet partitions a population into species.
type SpeciesSet struct {
	Species         map[int]*Species
	GenomeToSpecies map[int]int
	Indexer         int // next species key, starting at 1
	Config          *SpeciesSetConfig

	reporters *ReporterSet
}

// NewSpeciesSet creates an empty species set.
func NewSpeciesSet(config *SpeciesSetConfig, reporters *ReporterSet) *SpeciesSet {
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		Config:          config,
		reporters:       reporters,
	}
}

// Speciate assigns every genome in population to a species. Existing
// species keep the genome closest to their old representative; the rest
// join the nearest compatible species or found a new one.
func (ss *SpeciesSet) Speciate(config *Config, population map[int]*Genome, generation int) {
	if len(population) == 0 {
		ss.Species = make(map[int]*Species)
		ss.GenomeToSpecies = make(map[int]int)
		return
	}

	threshold := ss.Config.CompatibilityThreshold
	cache := NewGenomeDistanceCache()

	unspeciated := make(map[int]*Genome, len(population))
	for k, v := range population {
		unspeciated[k] = v
	}
	newReps := make(map[int]*Genome)
	newMembers := make(map[int][]int)

	for _, sid := range ss.sortedSpeciesKeys() {
		s := ss.Species[sid]
		if len(unspeciated) == 0 || s.Representative == nil {
			continue
		}
		var (
			best     *Genome
			bestDist = math.Inf(1)
		)
		for _, gid := range sortedGenomeKeys(unspeciated) {
			g := unspeciated[gid]
			if d := cache.Distance(s.Representative, g); d < bestDist {
				best, bestDist = g, d
			}
		}
		newReps[sid] = best
		newMembers[sid] = []int{best.Key}
		delete(unspeciated, best.Key)
	}

	for _, gid := range sortedGenomeKeys(unspeciated) {
		g := unspeciated[gid]
		bestSpecies := -1
		minDist := math.Inf(1)
		for _, sid := range sortedKeys(newReps) {
			d := cache.Distance(newReps[sid], g)
			if d < threshold && d < minDist {
				minDist = d
				bestSpecies = sid
			}
		}
		if bestSpecies != -1 {
			newMembers[bestSpecies] = append(newMembers[bestSpecies], gid)
			continue
		}
		sid := ss.Indexer
		ss.Indexer++
		newReps[sid] = g
		newMembers[sid] = []int{gid}
	}

	species := make(map[int]*Species, len(newReps))
	genomeToSpecies := make(map[int]int, len(population))
	for sid, rep := range newReps {
		s := ss.Species[sid]
		if s == nil {
			s = NewSpecies(sid, generation)
		}
		members := make(map[int]*Genome, len(newMembers[sid]))
		for _, gid := range newMembers[sid] {
			members[gid] = population[gid]
			genomeToSpecies[gid] = sid
		}
		s.Update(rep, members)
		species[sid] = s
	}
	ss.Species = species
	ss.GenomeToSpecies = genomeToSpecies

	if ss.reporters != nil {
		d := cache.Values()
		if len(d) > 0 {
			ss.reporters.Infof("Mean genetic distance %.3f, standard deviation %.3f", Mean(d), Stdev(d))
		}
	}
}

// GetSpeciesID returns the species key of a genome.
func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	return sid, ok
}

// GetSpecies returns the species a genome belongs to.
func (ss *SpeciesSet) GetSpecies(genomeID int) (*Species, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	if !ok {
		return nil, false
	}
	s, ok := ss.Species[sid]
	return s, ok
}

func (ss *SpeciesSet) sortedSpeciesKeys() []int {
	return sortedKeys(ss.Species)
}

func sortedGenomeKeys(m map[int]*Genome) []int {
	return sortedKeys(m)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
