package neat

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// ErrArtifactCorrupt is returned when a checkpoint or genome file cannot be
// decoded or does not match the config it is loaded with.
var ErrArtifactCorrupt = errors.New("neat: corrupt artifact")

type speciesSnapshot struct {
	Key             int
	Created         int
	LastImproved    int
	Representative  *Genome
	MemberKeys      []int
	Fitness         float64
	AdjustedFitness float64
	FitnessHistory  []float64
}

type checkpointData struct {
	Generation      int
	Genomes         map[int]*Genome
	Species         []speciesSnapshot
	GenomeToSpecies map[int]int
	SpeciesIndexer  int
	NextGenomeKey   int
	Ancestors       map[int][]int
	Best            *Genome
}

type genomeArtifact struct {
	NumInputs  int
	NumOutputs int
	Genome     *Genome
}

// detached returns a shallow copy of g without its config, which is
// restored from the config file on load.
func detached(g *Genome) *Genome {
	if g == nil {
		return nil
	}
	c := *g
	c.Config = nil
	return &c
}

// SaveCheckpoint writes the population state to path as gzipped gob.
func (p *Population) SaveCheckpoint(path string) error {
	data := checkpointData{
		Generation:      p.Generation,
		Genomes:         make(map[int]*Genome, len(p.Population)),
		GenomeToSpecies: p.SpeciesSet.GenomeToSpecies,
		SpeciesIndexer:  p.SpeciesSet.Indexer,
		NextGenomeKey:   p.Reproduction.NextGenomeKey,
		Ancestors:       p.Reproduction.Ancestors,
		Best:            detached(p.BestGenome),
	}
	for k, g := range p.Population {
		data.Genomes[k] = detached(g)
	}
	for _, sid := range p.SpeciesSet.sortedSpeciesKeys() {
		s := p.SpeciesSet.Species[sid]
		data.Species = append(data.Species, speciesSnapshot{
			Key:             s.Key,
			Created:         s.Created,
			LastImproved:    s.LastImproved,
			Representative:  detached(s.Representative),
			MemberKeys:      sortedGenomeKeys(s.Members),
			Fitness:         s.Fitness,
			AdjustedFitness: s.AdjustedFitness,
			FitnessHistory:  s.FitnessHistory,
		})
	}

	size, err := writeGob(path, data)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	p.Reporters.Infof("Saving checkpoint to %s (%s)", path, humanize.Bytes(uint64(size)))
	return nil
}

// LoadCheckpoint restores a population saved by SaveCheckpoint. The config
// must be the one the run was started with.
func LoadCheckpoint(path string, config *Config) (*Population, error) {
	var data checkpointData
	if err := readGob(path, &data); err != nil {
		return nil, err
	}
	if len(data.Genomes) == 0 {
		return nil, fmt.Errorf("%w: checkpoint %s holds no genomes", ErrArtifactCorrupt, path)
	}

	p, err := newPopulation(config)
	if err != nil {
		return nil, err
	}
	gc := &config.Genome
	relink := func(g *Genome) *Genome {
		if g == nil {
			return nil
		}
		g.Config = gc
		if g.Nodes == nil {
			g.Nodes = map[int]*NodeGene{}
		}
		if g.Connections == nil {
			g.Connections = map[ConnectionKey]*ConnectionGene{}
		}
		return g
	}

	all := make([]*Genome, 0, len(data.Genomes)+len(data.Species)+1)
	for _, g := range data.Genomes {
		all = append(all, relink(g))
	}
	p.Population = data.Genomes
	p.Generation = data.Generation
	p.BestGenome = relink(data.Best)

	p.SpeciesSet.Indexer = data.SpeciesIndexer
	if data.GenomeToSpecies != nil {
		p.SpeciesSet.GenomeToSpecies = data.GenomeToSpecies
	}
	for _, snap := range data.Species {
		s := &Species{
			Key:             snap.Key,
			Created:         snap.Created,
			LastImproved:    snap.LastImproved,
			Representative:  relink(snap.Representative),
			Members:         make(map[int]*Genome, len(snap.MemberKeys)),
			Fitness:         snap.Fitness,
			AdjustedFitness: snap.AdjustedFitness,
			FitnessHistory:  snap.FitnessHistory,
		}
		for _, gid := range snap.MemberKeys {
			if g, ok := p.Population[gid]; ok {
				s.Members[gid] = g
			}
		}
		if s.Representative != nil {
			all = append(all, s.Representative)
		}
		p.SpeciesSet.Species[s.Key] = s
	}

	p.Reproduction.NextGenomeKey = data.NextGenomeKey
	if data.Ancestors != nil {
		p.Reproduction.Ancestors = data.Ancestors
	}
	if p.BestGenome != nil {
		all = append(all, p.BestGenome)
	}
	rebaseNodeKeys(gc, all...)
	return p, nil
}

// SaveGenome writes a single genome, usually the winner, to path.
func SaveGenome(path string, g *Genome, config *GenomeConfig) error {
	art := genomeArtifact{
		NumInputs:  config.NumInputs,
		NumOutputs: config.NumOutputs,
		Genome:     detached(g),
	}
	if _, err := writeGob(path, art); err != nil {
		return fmt.Errorf("failed to save genome %d: %w", g.Key, err)
	}
	return nil
}

// LoadGenome reads a genome saved by SaveGenome and binds it to config.
func LoadGenome(path string, config *GenomeConfig) (*Genome, error) {
	var art genomeArtifact
	if err := readGob(path, &art); err != nil {
		return nil, err
	}
	if art.Genome == nil {
		return nil, fmt.Errorf("%w: %s holds no genome", ErrArtifactCorrupt, path)
	}
	if art.NumInputs != config.NumInputs || art.NumOutputs != config.NumOutputs {
		return nil, fmt.Errorf("%w: %s has %d inputs and %d outputs, config expects %d and %d",
			ErrArtifactCorrupt, path, art.NumInputs, art.NumOutputs, config.NumInputs, config.NumOutputs)
	}
	g := art.Genome
	g.Config = config
	if g.Nodes == nil {
		g.Nodes = map[int]*NodeGene{}
	}
	if g.Connections == nil {
		g.Connections = map[ConnectionKey]*ConnectionGene{}
	}
	rebaseNodeKeys(config, g)
	return g, nil
}

// writeGob encodes v to a temporary file next to path and renames it into
// place, returning the compressed size.
func writeGob(path string, v interface{}) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	if err := gob.NewEncoder(zw).Encode(v); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return 0, err
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func readGob(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}
	defer zr.Close()
	if err := gob.NewDecoder(zr).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}
	return nil
}

// Checkpointer saves the population every Interval generations to files
// named Prefix followed by the generation number.
type Checkpointer struct {
	BaseReporter

	Interval int
	Prefix   string

	population     *Population
	lastCheckpoint int
}

// NewCheckpointer creates a checkpointer for p and registers it.
func NewCheckpointer(p *Population, interval int, prefix string) *Checkpointer {
	c := &Checkpointer{
		Interval:       interval,
		Prefix:         prefix,
		population:     p,
		lastCheckpoint: p.Generation,
	}
	p.AddReporter(c)
	return c
}

// Path returns the checkpoint file name for a generation.
func (c *Checkpointer) Path(generation int) string {
	return fmt.Sprintf("%s%d", c.Prefix, generation)
}

func (c *Checkpointer) EndGeneration(*Config, map[int]*Genome, *SpeciesSet) {
	gen := c.population.Generation
	if c.Interval <= 0 || gen-c.lastCheckpoint < c.Interval {
		return
	}
	if err := c.population.SaveCheckpoint(c.Path(gen)); err != nil {
		log.Printf("neat: checkpoint at generation %d failed: %v", gen, err)
		return
	}
	c.lastCheckpoint = gen
}
