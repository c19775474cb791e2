// Package nn turns genomes into runnable networks.
package nn

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/neat-pong/neat"
)

type link struct {
	from   int // value slot of the source node
	weight float64
}

type neuron struct {
	slot        int
	bias        float64
	response    float64
	activation  neat.ActivationType
	aggregation neat.AggregationType
	links       []link
}

// FeedForwardNetwork evaluates an acyclic genome. Node values live in a
// flat slice: inputs first, then every evaluated node in topological order.
type FeedForwardNetwork struct {
	numInputs   int
	neurons     []neuron
	outputSlots []int // -1 for outputs no enabled path reaches
	values      []float64
	scratch     []float64
}

// CreateFeedForwardNetwork builds a network from the enabled connections
// of g. Only nodes that feed an output are evaluated; an output with no
// incoming path always reads 0.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	if g.Config == nil {
		return nil, fmt.Errorf("genome %d has no config", g.Key)
	}
	if !g.Config.FeedForward {
		return nil, fmt.Errorf("genome %d: feed_forward is disabled", g.Key)
	}

	inputs := g.Config.InputKeys
	outputs := g.Config.OutputKeys
	isInput := make(map[int]bool, len(inputs))
	for _, k := range inputs {
		isInput[k] = true
	}

	incoming := make(map[int][]neat.ConnectionKey)
	for key, c := range g.Connections {
		if c.Enabled {
			incoming[key.OutNodeID] = append(incoming[key.OutNodeID], key)
		}
	}
	for _, keys := range incoming {
		sort.Slice(keys, func(i, j int) bool { return keys[i].InNodeID < keys[j].InNodeID })
	}

	required := requiredForOutput(isInput, outputs, incoming)
	order, err := topologicalOrder(required, incoming)
	if err != nil {
		return nil, fmt.Errorf("genome %d: %w", g.Key, err)
	}

	slots := make(map[int]int, len(inputs)+len(order))
	for i, k := range inputs {
		slots[k] = i
	}
	for i, k := range order {
		slots[k] = len(inputs) + i
	}

	net := &FeedForwardNetwork{
		numInputs: len(inputs),
		neurons:   make([]neuron, 0, len(order)),
		values:    make([]float64, len(inputs)+len(order)),
	}
	for _, k := range order {
		gene, ok := g.Nodes[k]
		if !ok {
			return nil, fmt.Errorf("genome %d: connection into unknown node %d", g.Key, k)
		}
		act, err := neat.GetActivation(gene.Activation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", k, err)
		}
		agg, err := neat.GetAggregation(gene.Aggregation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", k, err)
		}
		n := neuron{
			slot:        slots[k],
			bias:        gene.Bias,
			response:    gene.Response,
			activation:  act,
			aggregation: agg,
		}
		for _, ck := range incoming[k] {
			from, ok := slots[ck.InNodeID]
			if !ok {
				// Source cannot be evaluated (dangling hidden node).
				continue
			}
			n.links = append(n.links, link{from: from, weight: g.Connections[ck].Weight})
		}
		net.neurons = append(net.neurons, n)
	}
	for _, k := range outputs {
		slot, ok := slots[k]
		if !ok {
			slot = -1
		}
		net.outputSlots = append(net.outputSlots, slot)
	}
	return net, nil
}

// Activate runs one forward pass. The network is not safe for concurrent
// use because it reuses its value buffer.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != net.numInputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", net.numInputs, len(inputs))
	}
	copy(net.values, inputs)
	for _, n := range net.neurons {
		net.scratch = net.scratch[:0]
		for _, l := range n.links {
			net.scratch = append(net.scratch, net.values[l.from]*l.weight)
		}
		net.values[n.slot] = n.activation(n.bias + n.response*n.aggregation(net.scratch))
	}
	out := make([]float64, len(net.outputSlots))
	for i, slot := range net.outputSlots {
		if slot >= 0 {
			out[i] = net.values[slot]
		}
	}
	return out, nil
}

// requiredForOutput walks backwards from the outputs and returns every
// non-input node whose value can reach an output.
func requiredForOutput(isInput map[int]bool, outputs []int, incoming map[int][]neat.ConnectionKey) map[int]bool {
	required := make(map[int]bool)
	stack := append([]int{}, outputs...)
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if required[k] || isInput[k] {
			continue
		}
		if len(incoming[k]) == 0 && !contains(outputs, k) {
			continue
		}
		required[k] = true
		for _, ck := range incoming[k] {
			stack = append(stack, ck.InNodeID)
		}
	}
	// Outputs without any incoming link are left unevaluated.
	for _, k := range outputs {
		if len(incoming[k]) == 0 {
			delete(required, k)
		}
	}
	return required
}

// topologicalOrder sorts the required nodes so that every node follows
// its sources. Ties break on node key.
func topologicalOrder(required map[int]bool, incoming map[int][]neat.ConnectionKey) ([]int, error) {
	pending := make(map[int]int, len(required))
	dependents := make(map[int][]int)
	for k := range required {
		for _, ck := range incoming[k] {
			if required[ck.InNodeID] {
				pending[k]++
				dependents[ck.InNodeID] = append(dependents[ck.InNodeID], k)
			}
		}
	}

	var ready []int
	for k := range required {
		if pending[k] == 0 {
			ready = append(ready, k)
		}
	}
	order := make([]int, 0, len(required))
	for len(ready) > 0 {
		sort.Ints(ready)
		k := ready[0]
		ready = ready[1:]
		order = append(order, k)
		for _, d := range dependents[k] {
			pending[d]--
			if pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	if len(order) != len(required) {
		return nil, fmt.Errorf("enabled connections form a cycle")
	}
	return order, nil
}

func contains(keys []int, k int) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}
