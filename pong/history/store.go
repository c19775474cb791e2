// Package history records training runs, per-generation fitness and every
// tournament match in a SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/baldhumanity/neat-pong/neat"
	"github.com/baldhumanity/neat-pong/pong"
)

// Run is one training invocation.
type Run struct {
	ID          string
	ConfigPath  string
	Pairing     string
	HitCap      int
	PopSize     int
	Seed        int64
	BestFitness *float64
	CreatedAt   time.Time
	FinishedAt  *time.Time
}

// Generation is the fitness summary of one evaluated generation.
type Generation struct {
	RunID        string
	Number       int
	BestKey      int
	BestFitness  float64
	MeanFitness  float64
	StdevFitness float64
	Species      int
	Population   int
}

// Store writes training history. It is a neat.Reporter and a
// pong.MatchObserver: matches are buffered as they finish and written in
// one transaction together with the generation summary.
type Store struct {
	neat.BaseReporter

	db         *sql.DB
	runID      string
	generation int
	pending    []pong.MatchRecord
}

// NewStore opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			config_path TEXT NOT NULL,
			pairing TEXT NOT NULL,
			hit_cap INTEGER NOT NULL,
			pop_size INTEGER NOT NULL,
			seed INTEGER NOT NULL DEFAULT 0,
			best_fitness REAL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			best_key INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			stdev_fitness REAL NOT NULL,
			species INTEGER NOT NULL,
			population INTEGER NOT NULL,
			PRIMARY KEY (run_id, generation),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			left_key INTEGER NOT NULL,
			right_key INTEGER NOT NULL,
			left_score INTEGER NOT NULL,
			right_score INTEGER NOT NULL,
			left_hits INTEGER NOT NULL,
			right_hits INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			left_reward REAL NOT NULL,
			right_reward REAL NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_run_gen ON matches(run_id, generation)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// StartRun inserts a run row and makes it the target of later writes.
func (s *Store) StartRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.db.Exec(`INSERT INTO runs (id, config_path, pairing, hit_cap, pop_size, seed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ConfigPath, run.Pairing, run.HitCap, run.PopSize, run.Seed)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	s.runID = run.ID
	return nil
}

// RunID returns the current run, or "" before StartRun.
func (s *Store) RunID() string {
	return s.runID
}

// FinishRun stamps the current run with its best fitness.
func (s *Store) FinishRun(best *neat.Genome) error {
	if s.runID == "" {
		return fmt.Errorf("no run started")
	}
	var fitness sql.NullFloat64
	if best != nil {
		fitness = sql.NullFloat64{Float64: best.Fitness, Valid: true}
	}
	_, err := s.db.Exec(`UPDATE runs SET best_fitness = ?, finished_at = ? WHERE id = ?`,
		fitness, time.Now().UTC(), s.runID)
	return err
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	var (
		run      Run
		best     sql.NullFloat64
		finished sql.NullTime
	)
	err := s.db.QueryRow(`SELECT id, config_path, pairing, hit_cap, pop_size, seed,
		best_fitness, created_at, finished_at FROM runs WHERE id = ?`, id).Scan(
		&run.ID, &run.ConfigPath, &run.Pairing, &run.HitCap, &run.PopSize, &run.Seed,
		&best, &run.CreatedAt, &finished,
	)
	if err != nil {
		return nil, err
	}
	if best.Valid {
		run.BestFitness = &best.Float64
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

// Generations lists a run's generation summaries in order.
func (s *Store) Generations(runID string) ([]Generation, error) {
	rows, err := s.db.Query(`SELECT run_id, generation, best_key, best_fitness, mean_fitness,
		stdev_fitness, species, population FROM generations WHERE run_id = ? ORDER BY generation`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(&g.RunID, &g.Number, &g.BestKey, &g.BestFitness, &g.MeanFitness,
			&g.StdevFitness, &g.Species, &g.Population); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Matches returns the matches recorded for one generation of a run.
func (s *Store) Matches(runID string, generation int) ([]pong.MatchRecord, error) {
	rows, err := s.db.Query(`SELECT generation, left_key, right_key, left_score, right_score,
		left_hits, right_hits, ticks, duration_ms, left_reward, right_reward
		FROM matches WHERE run_id = ? AND generation = ? ORDER BY id`, runID, generation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pong.MatchRecord
	for rows.Next() {
		var (
			rec pong.MatchRecord
			ms  int64
		)
		info := &rec.Result.Info
		if err := rows.Scan(&rec.Generation, &rec.LeftKey, &rec.RightKey,
			&info.LeftScore, &info.RightScore, &info.LeftHits, &info.RightHits,
			&rec.Result.Ticks, &ms, &rec.Result.LeftReward, &rec.Result.RightReward); err != nil {
			return nil, err
		}
		rec.Result.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ObserveMatch buffers a finished match until its generation is saved.
func (s *Store) ObserveMatch(rec pong.MatchRecord) {
	s.pending = append(s.pending, rec)
}

func (s *Store) StartGeneration(gen int) {
	s.generation = gen
	s.pending = s.pending[:0]
}

// PostEvaluate writes the generation summary and its buffered matches.
func (s *Store) PostEvaluate(config *neat.Config, population map[int]*neat.Genome, species *neat.SpeciesSet, best *neat.Genome) {
	if s.runID == "" {
		return
	}
	fitnesses := make([]float64, 0, len(population))
	for _, g := range population {
		fitnesses = append(fitnesses, g.Fitness)
	}
	gen := Generation{
		RunID:        s.runID,
		Number:       s.generation,
		MeanFitness:  neat.Mean(fitnesses),
		StdevFitness: neat.Stdev(fitnesses),
		Species:      len(species.Species),
		Population:   len(population),
	}
	if best != nil {
		gen.BestKey = best.Key
		gen.BestFitness = best.Fitness
	}
	if err := s.SaveGeneration(gen, s.pending); err != nil {
		log.Printf("history: failed to save generation %d: %v", s.generation, err)
	}
	s.pending = s.pending[:0]
}

// SaveGeneration writes a generation summary and its matches atomically.
// Saving the same generation twice replaces the summary.
func (s *Store) SaveGeneration(gen Generation, matches []pong.MatchRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR REPLACE INTO generations (run_id, generation, best_key, best_fitness,
		mean_fitness, stdev_fitness, species, population) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		gen.RunID, gen.Number, gen.BestKey, gen.BestFitness, gen.MeanFitness, gen.StdevFitness,
		gen.Species, gen.Population)
	if err != nil {
		return err
	}

	if len(matches) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO matches (run_id, generation, left_key, right_key,
			left_score, right_score, left_hits, right_hits, ticks, duration_ms, left_reward, right_reward)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, m := range matches {
			info := m.Result.Info
			if _, err := stmt.Exec(gen.RunID, m.Generation, m.LeftKey, m.RightKey,
				info.LeftScore, info.RightScore, info.LeftHits, info.RightHits,
				m.Result.Ticks, m.Result.Duration.Milliseconds(), m.Result.LeftReward, m.Result.RightReward); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
