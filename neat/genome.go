package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Genome represents an individual organism in the population.
// It consists of NodeGenes and ConnectionGenes.
type Genome struct {
	Key         int
	Nodes       map[int]*NodeGene
	Connections map[ConnectionKey]*ConnectionGene
	// Fitness is the accumulator the fitness function writes to. It is
	// owned by this genome and reset only by the fitness function.
	Fitness float64
	Config  *GenomeConfig
}

// NewGenome creates an empty Genome with the specified key and config reference.
func NewGenome(key int, config *GenomeConfig) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Config:      config,
	}
}

// Copy returns a deep copy of the genome sharing the same config.
func (g *Genome) Copy() *Genome {
	c := NewGenome(g.Key, g.Config)
	c.Fitness = g.Fitness
	for k, n := range g.Nodes {
		c.Nodes[k] = n.Copy()
	}
	for k, conn := range g.Connections {
		c.Connections[k] = conn.Copy()
	}
	return c
}

// ConfigureNew creates the output and hidden nodes and the initial
// connections requested by initial_connection.
func (g *Genome) ConfigureNew() {
	for _, nodeKey := range g.Config.OutputKeys {
		g.Nodes[nodeKey] = NewNodeGene(nodeKey, g.Config)
	}
	for i := 0; i < g.Config.NumHidden; i++ {
		nodeKey := g.Config.GetNewNodeKey()
		if _, exists := g.Nodes[nodeKey]; exists {
			panic(fmt.Sprintf("Attempted to create duplicate node key: %d", nodeKey))
		}
		g.Nodes[nodeKey] = NewNodeGene(nodeKey, g.Config)
	}
	g.setupInitialConnections()
}

// hiddenKeys returns the sorted keys of nodes that are not outputs.
func (g *Genome) hiddenKeys() []int {
	isOutput := make(map[int]bool, len(g.Config.OutputKeys))
	for _, ok := range g.Config.OutputKeys {
		isOutput[ok] = true
	}
	hidden := []int{}
	for nk := range g.Nodes {
		if !isOutput[nk] {
			hidden = append(hidden, nk)
		}
	}
	sort.Ints(hidden)
	return hidden
}

func (g *Genome) isOutput(key int) bool {
	for _, ok := range g.Config.OutputKeys {
		if ok == key {
			return true
		}
	}
	return false
}

// setupInitialConnections creates the initial connections based on the config string.
func (g *Genome) setupInitialConnections() {
	connType := strings.Fields(g.Config.InitialConnection)[0]
	hidden := g.hiddenKeys()

	switch connType {
	case "unconnected":
	case "fs_neat_nohidden", "fs_neat":
		// One random input wired straight to every output.
		ik := g.Config.InputKeys[rand.Intn(len(g.Config.InputKeys))]
		for _, ok := range g.Config.OutputKeys {
			g.addConnection(ik, ok)
		}
	case "fs_neat_hidden":
		ik := g.Config.InputKeys[rand.Intn(len(g.Config.InputKeys))]
		for _, hk := range hidden {
			g.addConnection(ik, hk)
		}
		for _, ok := range g.Config.OutputKeys {
			g.addConnection(ik, ok)
		}
	case "full_nodirect", "full":
		for _, k := range g.fullConnections(hidden, false) {
			g.addConnection(k.InNodeID, k.OutNodeID)
		}
	case "full_direct":
		for _, k := range g.fullConnections(hidden, true) {
			g.addConnection(k.InNodeID, k.OutNodeID)
		}
	case "partial_nodirect", "partial", "partial_direct":
		all := g.fullConnections(hidden, connType == "partial_direct")
		rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		n := int(math.Round(g.Config.ConnectionFraction * float64(len(all))))
		for _, k := range all[:n] {
			g.addConnection(k.InNodeID, k.OutNodeID)
		}
	default:
		panic(fmt.Sprintf("Invalid initial_connection type in genome configuration: %s", g.Config.InitialConnection))
	}
}

// fullConnections lists input→hidden and hidden→output links, plus direct
// input→output links when direct is set or there are no hidden nodes.
// Recurrent genomes also get a self-loop on every hidden and output node.
func (g *Genome) fullConnections(hidden []int, direct bool) []ConnectionKey {
	var keys []ConnectionKey
	if len(hidden) > 0 {
		for _, ik := range g.Config.InputKeys {
			for _, hk := range hidden {
				keys = append(keys, ConnectionKey{ik, hk})
			}
		}
		for _, hk := range hidden {
			for _, ok := range g.Config.OutputKeys {
				keys = append(keys, ConnectionKey{hk, ok})
			}
		}
	}
	if direct || len(hidden) == 0 {
		for _, ik := range g.Config.InputKeys {
			for _, ok := range g.Config.OutputKeys {
				keys = append(keys, ConnectionKey{ik, ok})
			}
		}
	}
	if !g.Config.FeedForward {
		for _, nk := range append(append([]int{}, hidden...), g.Config.OutputKeys...) {
			keys = append(keys, ConnectionKey{nk, nk})
		}
	}
	return keys
}

func (g *Genome) addConnection(in, out int) *ConnectionGene {
	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	conn := NewConnectionGene(key, g.Config)
	g.Connections[key] = conn
	return conn
}

// ConfigureCrossover fills g from two parents. Nodes and disjoint or excess
// connections come from the fitter parent; homologous genes mix attributes.
func (g *Genome) ConfigureCrossover(parent1, parent2 *Genome) {
	if parent1.Fitness < parent2.Fitness {
		parent1, parent2 = parent2, parent1
	}
	g.Config = parent1.Config

	for key, node1 := range parent1.Nodes {
		if node2, ok := parent2.Nodes[key]; ok {
			g.Nodes[key] = node1.Crossover(node2)
		} else {
			g.Nodes[key] = node1.Copy()
		}
	}
	for key, conn1 := range parent1.Connections {
		if conn2, ok := parent2.Connections[key]; ok {
			g.Connections[key] = conn1.Crossover(conn2)
		} else {
			g.Connections[key] = conn1.Copy()
		}
	}
}

// Mutate applies structural mutations, then attribute mutations to every
// node and connection. With single_structural_mutation only the first
// structural mutation that fires is applied.
func (g *Genome) Mutate() {
	structural := []struct {
		prob float64
		fn   func() bool
	}{
		{g.Config.NodeAddProb, g.mutateAddNode},
		{g.Config.ConnAddProb, g.mutateAddConnection},
		{g.Config.NodeDeleteProb, g.mutateDeleteNode},
		{g.Config.ConnDeleteProb, g.mutateDeleteConnection},
	}
	for _, m := range structural {
		if rand.Float64() < m.prob && m.fn() && g.Config.SingleStructuralMutation {
			break
		}
	}

	for _, node := range g.Nodes {
		node.Mutate(g.Config)
	}
	for _, conn := range g.Connections {
		conn.Mutate(g, g.Config)
	}
}

// mutateAddNode splits a random enabled connection: the old link is
// disabled and replaced by in→new (weight 1) and new→out (old weight).
// Splitting a disabled link could close a cycle, so those are skipped.
func (g *Genome) mutateAddNode() bool {
	var keys []ConnectionKey
	for _, k := range g.connectionKeys() {
		if g.Connections[k].Enabled {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return false
	}
	split := g.Connections[keys[rand.Intn(len(keys))]]
	split.Enabled = false

	newNodeKey := g.Config.GetNewNodeKey()
	g.Nodes[newNodeKey] = NewNodeGene(newNodeKey, g.Config)

	in := g.addConnection(split.Key.InNodeID, newNodeKey)
	in.Weight = 1.0
	in.Enabled = true

	out := g.addConnection(newNodeKey, split.Key.OutNodeID)
	out.Weight = split.Weight
	out.Enabled = true
	return true
}

// mutateAddConnection tries a bounded number of random node pairs and adds
// the first one that is new, ends at a non-input node and, for feed-forward
// genomes, does not close a cycle.
func (g *Genome) mutateAddConnection() bool {
	possibleInputs := append([]int{}, g.Config.InputKeys...)
	possibleOutputs := make([]int, 0, len(g.Nodes))
	for _, nk := range g.nodeKeys() {
		possibleInputs = append(possibleInputs, nk)
		possibleOutputs = append(possibleOutputs, nk)
	}
	if len(possibleOutputs) == 0 {
		return false
	}

	const maxAttempts = 20
	for i := 0; i < maxAttempts; i++ {
		in := possibleInputs[rand.Intn(len(possibleInputs))]
		out := possibleOutputs[rand.Intn(len(possibleOutputs))]
		key := ConnectionKey{InNodeID: in, OutNodeID: out}
		if _, exists := g.Connections[key]; exists {
			continue
		}
		if g.isOutput(in) && g.isOutput(out) {
			continue
		}
		if g.Config.FeedForward && createsCycle(g, in, out) {
			continue
		}
		g.addConnection(in, out)
		return true
	}
	return false
}

// mutateDeleteNode removes a random hidden node and every connection
// touching it. Output nodes are never deleted.
func (g *Genome) mutateDeleteNode() bool {
	hidden := g.hiddenKeys()
	if len(hidden) == 0 {
		return false
	}
	victim := hidden[rand.Intn(len(hidden))]
	for key := range g.Connections {
		if key.InNodeID == victim || key.OutNodeID == victim {
			delete(g.Connections, key)
		}
	}
	delete(g.Nodes, victim)
	return true
}

// mutateDeleteConnection removes one random connection gene.
func (g *Genome) mutateDeleteConnection() bool {
	if len(g.Connections) == 0 {
		return false
	}
	keys := g.connectionKeys()
	delete(g.Connections, keys[rand.Intn(len(keys))])
	return true
}

// Distance calculates the genetic distance between this genome and another.
// For nodes and connections alike: disjoint genes scaled by the disjoint
// coefficient plus attribute distance of homologous genes, normalised by the
// larger genome's gene count.
func (g *Genome) Distance(other *Genome) float64 {
	c := g.Config.CompatibilityDisjointCoefficient

	nodeDistance := 0.0
	if n := max(len(g.Nodes), len(other.Nodes)); n > 0 {
		disjoint := 0
		for key, n1 := range g.Nodes {
			if n2, ok := other.Nodes[key]; ok {
				nodeDistance += n1.Distance(n2, g.Config)
			} else {
				disjoint++
			}
		}
		for key := range other.Nodes {
			if _, ok := g.Nodes[key]; !ok {
				disjoint++
			}
		}
		nodeDistance = (nodeDistance + c*float64(disjoint)) / float64(n)
	}

	connDistance := 0.0
	if n := max(len(g.Connections), len(other.Connections)); n > 0 {
		disjoint := 0
		for key, c1 := range g.Connections {
			if c2, ok := other.Connections[key]; ok {
				connDistance += c1.Distance(c2, g.Config)
			} else {
				disjoint++
			}
		}
		for key := range other.Connections {
			if _, ok := g.Connections[key]; !ok {
				disjoint++
			}
		}
		connDistance = (connDistance + c*float64(disjoint)) / float64(n)
	}

	return nodeDistance + connDistance
}

// Size returns the number of nodes and enabled connections.
func (g *Genome) Size() (nodes, enabled int) {
	for _, c := range g.Connections {
		if c.Enabled {
			enabled++
		}
	}
	return len(g.Nodes), enabled
}

func (g *Genome) String() string {
	nodes, enabled := g.Size()
	return fmt.Sprintf("Genome(Key: %d, Fitness: %.4f, Nodes: %d, Connections: %d/%d)",
		g.Key, g.Fitness, nodes, enabled, len(g.Connections))
}

// nodeKeys returns the sorted node keys. Sorting keeps random choices
// reproducible under a seeded source.
func (g *Genome) nodeKeys() []int {
	keys := make([]int, 0, len(g.Nodes))
	for k := range g.Nodes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (g *Genome) connectionKeys() []ConnectionKey {
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].InNodeID != keys[j].InNodeID {
			return keys[i].InNodeID < keys[j].InNodeID
		}
		return keys[i].OutNodeID < keys[j].OutNodeID
	})
	return keys
}

// createsCycle reports whether adding in→out would let out reach in
// through enabled connections.
func createsCycle(genome *Genome, inNode, outNode int) bool {
	if inNode == outNode {
		return true
	}
	visited := make(map[int]bool)
	queue := []int{outNode}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == inNode {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		for key, conn := range genome.Connections {
			if conn.Enabled && key.InNodeID == current {
				queue = append(queue, key.OutNodeID)
			}
		}
	}
	return false
}

// rebaseNodeKeys moves the config's node counter past every node key in
// genomes, so that restored genomes never collide with new hidden nodes.
func rebaseNodeKeys(config *GenomeConfig, genomes ...*Genome) {
	for _, g := range genomes {
		for nk := range g.Nodes {
			if nk >= config.NodeKeyIndex {
				config.NodeKeyIndex = nk + 1
			}
		}
	}
}
