package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "../configs/pong-config.ini"

func loadTestConfig(t *testing.T) *Config {
	t.Helper()
	config, err := LoadConfig(testConfigPath)
	require.NoError(t, err)
	return config
}

const minimalConfig = `
[NEAT]
pop_size = 10

[DefaultGenome]
num_inputs          = 2
num_outputs         = 1
activation_options  = sigmoid tanh
aggregation_options = sum
feed_forward        = True # acyclic only
initial_connection  = partial_direct 0.5
`

func TestLoadConfigFile(t *testing.T) {
	config := loadTestConfig(t)

	assert.Equal(t, 50, config.Neat.PopSize)
	assert.Equal(t, "max", config.Neat.FitnessCriterion)
	assert.Equal(t, 400.0, config.Neat.FitnessThreshold)
	assert.True(t, config.Genome.FeedForward)
	assert.Equal(t, []int{-1, -2, -3}, config.Genome.InputKeys)
	assert.Equal(t, []int{0, 1, 2}, config.Genome.OutputKeys)
	assert.Equal(t, 3, config.Genome.NodeKeyIndex)
	assert.Equal(t, []string{"relu"}, config.Genome.ActivationOptions)
	assert.Equal(t, 20, config.Stagnation.MaxStagnation)
	assert.Equal(t, 2, config.Reproduction.Elitism)
	assert.Equal(t, 3.0, config.SpeciesSet.CompatibilityThreshold)
}

func TestLoadConfigDataDefaults(t *testing.T) {
	config, err := LoadConfigData([]byte(minimalConfig))
	require.NoError(t, err)

	assert.True(t, config.Genome.FeedForward)
	assert.Equal(t, "partial_direct 0.5", config.Genome.InitialConnection)
	assert.Equal(t, 0.5, config.Genome.ConnectionFraction)
	assert.Equal(t, []string{"sigmoid", "tanh"}, config.Genome.ActivationOptions)
	assert.Equal(t, "max", config.Neat.FitnessCriterion)
	assert.Equal(t, "mean", config.Stagnation.SpeciesFitnessFunc)
	assert.Equal(t, 15, config.Stagnation.MaxStagnation)
	assert.Equal(t, 1, config.Reproduction.MinSpeciesSize)
	assert.Equal(t, 0.2, config.Reproduction.SurvivalThreshold)
}

func TestLoadConfigDataRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"pop size":   "[NEAT]\npop_size = 0\n[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\nactivation_options = relu\naggregation_options = sum\n",
		"criterion":  "[NEAT]\npop_size = 5\nfitness_criterion = best\n[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\nactivation_options = relu\naggregation_options = sum\n",
		"activation": "[NEAT]\npop_size = 5\n[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\nactivation_options = swish\naggregation_options = sum\n",
		"connection": "[NEAT]\npop_size = 5\n[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\nactivation_options = relu\naggregation_options = sum\ninitial_connection = everything\n",
		"fraction":   "[NEAT]\npop_size = 5\n[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\nactivation_options = relu\naggregation_options = sum\ninitial_connection = partial 2\n",
		"outputs":    "[NEAT]\npop_size = 5\n[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 0\nactivation_options = relu\naggregation_options = sum\n",
	}
	for name, data := range cases {
		_, err := LoadConfigData([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("does-not-exist.ini")
	assert.ErrorContains(t, err, "does-not-exist.ini")
}

func TestGetNewNodeKey(t *testing.T) {
	config := loadTestConfig(t)
	assert.Equal(t, 3, config.Genome.GetNewNodeKey())
	assert.Equal(t, 4, config.Genome.GetNewNodeKey())
}
