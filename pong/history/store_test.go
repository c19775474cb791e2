package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-pong/neat"
	"github.com/baldhumanity/neat-pong/pong"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func match(gen, left, right int) pong.MatchRecord {
	return pong.MatchRecord{
		Generation: gen,
		LeftKey:    left,
		RightKey:   right,
		Result: pong.MatchResult{
			Info:        pong.GameInfo{RightScore: 1, LeftHits: 2, RightHits: 3},
			Ticks:       567,
			Duration:    5670 * time.Millisecond,
			LeftReward:  2,
			RightReward: 3.5,
		},
	}
}

func TestStartRunAssignsID(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.RunID())

	run := &Run{ConfigPath: "configs/pong-config.ini", Pairing: "unique", HitCap: 30, PopSize: 50, Seed: 9}
	require.NoError(t, s.StartRun(run))
	assert.Len(t, run.ID, 36)
	assert.Equal(t, run.ID, s.RunID())

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "configs/pong-config.ini", got.ConfigPath)
	assert.Equal(t, "unique", got.Pairing)
	assert.Equal(t, 30, got.HitCap)
	assert.Equal(t, 50, got.PopSize)
	assert.Equal(t, int64(9), got.Seed)
	assert.Nil(t, got.BestFitness)
	assert.Nil(t, got.FinishedAt)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStartRunKeepsGivenID(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.StartRun(&Run{ID: "run-1", Pairing: "legacy"}))
	assert.Equal(t, "run-1", s.RunID())
	assert.Error(t, s.StartRun(&Run{ID: "run-1"}))
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate())
}

func TestSaveGenerationAndMatches(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.StartRun(&Run{ID: "r"}))

	gen := Generation{RunID: "r", Number: 0, BestKey: 4, BestFitness: 9.5, MeanFitness: 3, StdevFitness: 1, Species: 2, Population: 5}
	require.NoError(t, s.SaveGeneration(gen, []pong.MatchRecord{match(0, 1, 2), match(0, 1, 3)}))

	gens, err := s.Generations("r")
	require.NoError(t, err)
	assert.Equal(t, []Generation{gen}, gens)

	matches, err := s.Matches("r", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, match(0, 1, 2), matches[0])
	assert.Equal(t, 3, matches[1].RightKey)

	// Saving again replaces the summary.
	gen.BestFitness = 11
	require.NoError(t, s.SaveGeneration(gen, nil))
	gens, err = s.Generations("r")
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, 11.0, gens[0].BestFitness)

	none, err := s.Matches("r", 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFinishRun(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.FinishRun(nil))

	require.NoError(t, s.StartRun(&Run{ID: "r"}))
	best := neat.NewGenome(3, nil)
	best.Fitness = 42
	require.NoError(t, s.FinishRun(best))

	run, err := s.GetRun("r")
	require.NoError(t, err)
	require.NotNil(t, run.BestFitness)
	assert.Equal(t, 42.0, *run.BestFitness)
	require.NotNil(t, run.FinishedAt)
}

func TestStoreRecordsTrainingRun(t *testing.T) {
	config, err := neat.LoadConfig("../../configs/pong-config.ini")
	require.NoError(t, err)
	config.Neat.PopSize = 4

	pop, err := neat.NewPopulation(config)
	require.NoError(t, err)

	s := newTestStore(t)
	require.NoError(t, s.StartRun(&Run{PopSize: 4}))
	pop.AddReporter(s)

	ev := pong.NewEvaluator()
	ev.HitCap = 1
	ev.Serve = pong.FixedServe(0, 1)
	tournament := pong.NewTournament(ev)
	tournament.Observers = []pong.MatchObserver{s}

	_, err = pop.Run(context.Background(), tournament.EvalGenomes, 2)
	require.NoError(t, err)

	gens, err := s.Generations(s.RunID())
	require.NoError(t, err)
	require.Len(t, gens, 2)
	assert.Equal(t, 4, gens[0].Population)
	for i, g := range gens {
		assert.Equal(t, i, g.Number)
		assert.Positive(t, g.Species)

		pairs, err := pong.Pairs(g.Population, pong.PairUnique)
		require.NoError(t, err)
		matches, err := s.Matches(s.RunID(), i)
		require.NoError(t, err)
		assert.Len(t, matches, len(pairs), "generation %d", i)
	}
}

func TestNewStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.StartRun(&Run{ID: "disk"}))
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	run, err := s.GetRun("disk")
	require.NoError(t, err)
	assert.Equal(t, "disk", run.ID)
}
