package pong

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings([]byte("[NEAT]\npop_size = 10\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettingsOverrides(t *testing.T) {
	data := []byte(`
[Pong]
width        = 800 ; wider field
hit_cap      = 5
stay_penalty = 0.5
pairing      = legacy
seed         = 42
`)
	s, err := LoadSettings(data)
	require.NoError(t, err)
	assert.Equal(t, 800, s.Width)
	assert.Equal(t, DefaultHeight, s.Height)
	assert.Equal(t, 5, s.HitCap)
	assert.Equal(t, 0.5, s.StayPenalty)
	assert.Equal(t, "legacy", s.Pairing)
	assert.Equal(t, int64(42), s.Seed)

	tr, err := s.Tournament()
	require.NoError(t, err)
	assert.Equal(t, PairLegacy, tr.Pairing)
	assert.Equal(t, 800, tr.Evaluator.Width)
	assert.Equal(t, 5, tr.Evaluator.HitCap)
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"hit cap":   "hit_cap = 0",
		"height":    "height = 50",
		"width":     "width = 60",
		"penalty":   "stay_penalty = -1",
		"pairing":   "pairing = swiss",
		"tick rate": "tick_rate = 0",
		"max ticks": "max_ticks = -5",
	}
	for name, line := range cases {
		_, err := LoadSettings([]byte("[Pong]\n" + line + "\n"))
		assert.Error(t, err, name)
	}
}

func TestLoadSettingsFromFile(t *testing.T) {
	s, err := LoadSettings("../configs/pong-config.ini")
	require.NoError(t, err)
	assert.Equal(t, 50, s.Generations)
	assert.Equal(t, 30, s.HitCap)
	assert.Equal(t, "unique", s.Pairing)
}

func TestSettingsSeededRand(t *testing.T) {
	s := DefaultSettings()
	s.Seed = 3
	assert.Equal(t, s.Rand().Int63(), s.Rand().Int63())
}
