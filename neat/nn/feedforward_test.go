package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-pong/neat"
)

func testGenome(numInputs, numOutputs int) *neat.Genome {
	cfg := &neat.GenomeConfig{
		NumInputs:   numInputs,
		NumOutputs:  numOutputs,
		FeedForward: true,
	}
	for i := 0; i < numInputs; i++ {
		cfg.InputKeys = append(cfg.InputKeys, -(i + 1))
	}
	for i := 0; i < numOutputs; i++ {
		cfg.OutputKeys = append(cfg.OutputKeys, i)
	}
	cfg.NodeKeyIndex = numOutputs

	g := neat.NewGenome(1, cfg)
	for _, k := range cfg.OutputKeys {
		addNode(g, k, 0)
	}
	return g
}

func addNode(g *neat.Genome, key int, bias float64) {
	g.Nodes[key] = &neat.NodeGene{Key: key, Bias: bias, Response: 1, Activation: "identity", Aggregation: "sum"}
}

func connect(g *neat.Genome, in, out int, weight float64, enabled bool) {
	key := neat.ConnectionKey{InNodeID: in, OutNodeID: out}
	g.Connections[key] = &neat.ConnectionGene{Key: key, Weight: weight, Enabled: enabled}
}

func TestActivateWeightedSum(t *testing.T) {
	g := testGenome(2, 1)
	g.Nodes[0].Bias = 0.5
	connect(g, -1, 0, 2, true)
	connect(g, -2, 0, -1, true)

	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)
	out, err := net.Activate([]float64{1, 3})
	require.NoError(t, err)
	assert.InDelta(t, -0.5, out[0], 1e-12)

	// The value buffer is reused; a second pass must not leak state.
	out, err = net.Activate([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out[0], 1e-12)
}

func TestActivateResponseAndActivation(t *testing.T) {
	g := testGenome(1, 1)
	g.Nodes[0].Response = 2
	g.Nodes[0].Bias = -10
	g.Nodes[0].Activation = "relu"
	connect(g, -1, 0, 1, true)

	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)

	out, err := net.Activate([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[0])

	out, err = net.Activate([]float64{8})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out[0], 1e-12)
}

func TestActivateHiddenChain(t *testing.T) {
	g := testGenome(1, 1)
	addNode(g, 1, 1)
	addNode(g, 2, 0)
	connect(g, -1, 1, 2, true)
	connect(g, 1, 2, 3, true)
	connect(g, 2, 0, 1, true)
	connect(g, -1, 0, 1, true)

	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)
	out, err := net.Activate([]float64{1})
	require.NoError(t, err)
	// h1 = 1 + 2, h2 = 3 * 3, out = 9 + 1
	assert.InDelta(t, 10.0, out[0], 1e-12)
}

func TestDisabledConnectionIgnored(t *testing.T) {
	g := testGenome(2, 1)
	connect(g, -1, 0, 1, true)
	connect(g, -2, 0, 100, false)

	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)
	out, err := net.Activate([]float64{2, 5})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out[0], 1e-12)
}

func TestUnconnectedOutputReadsZero(t *testing.T) {
	g := testGenome(1, 3)
	g.Nodes[1].Bias = 7
	connect(g, -1, 0, 1, true)

	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)
	out, err := net.Activate([]float64{4})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 0, 0}, out)
}

func TestDanglingHiddenNodeSkipped(t *testing.T) {
	g := testGenome(1, 1)
	addNode(g, 5, 3)
	connect(g, 5, 0, 10, true)
	connect(g, -1, 0, 1, true)

	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)
	out, err := net.Activate([]float64{2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out[0], 1e-12)
}

func TestCycleRejected(t *testing.T) {
	g := testGenome(1, 1)
	addNode(g, 1, 0)
	addNode(g, 2, 0)
	connect(g, -1, 1, 1, true)
	connect(g, 1, 2, 1, true)
	connect(g, 2, 1, 1, true)
	connect(g, 2, 0, 1, true)

	_, err := CreateFeedForwardNetwork(g)
	assert.ErrorContains(t, err, "cycle")
}

func TestCreateRequiresFeedForwardConfig(t *testing.T) {
	g := testGenome(1, 1)
	g.Config.FeedForward = false
	_, err := CreateFeedForwardNetwork(g)
	assert.Error(t, err)

	g.Config = nil
	_, err = CreateFeedForwardNetwork(g)
	assert.Error(t, err)
}

func TestActivateWrongInputCount(t *testing.T) {
	g := testGenome(3, 3)
	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)

	_, err = net.Activate([]float64{1, 2})
	assert.ErrorContains(t, err, "expected 3 inputs")

	out, err := net.Activate([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, out)
}

func TestConfiguredGenomeBuilds(t *testing.T) {
	cfg, err := neat.LoadConfig("../../configs/pong-config.ini")
	require.NoError(t, err)
	g := neat.NewGenome(1, &cfg.Genome)
	g.ConfigureNew()

	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)
	out, err := net.Activate([]float64{200, 340, 250})
	require.NoError(t, err)
	assert.Len(t, out, 3)
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}
