package pong

import (
	"fmt"
	"math/rand"
	"time"

	"gopkg.in/ini.v1"
)

// Settings holds the [Pong] section of the training config file.
type Settings struct {
	Width              int     `ini:"width"`
	Height             int     `ini:"height"`
	HitCap             int     `ini:"hit_cap"`
	StayPenalty        float64 `ini:"stay_penalty"`
	InvalidMovePenalty float64 `ini:"invalid_move_penalty"`
	Generations        int     `ini:"generations"`
	Pairing            string  `ini:"pairing"`
	Seed               int64   `ini:"seed"`      // 0 seeds from the clock
	TickRate           int     `ini:"tick_rate"` // exhibition frames per second
	MaxTicks           int     `ini:"max_ticks"` // 0 = unbounded
}

// DefaultSettings returns the settings used when the file omits a key.
func DefaultSettings() Settings {
	return Settings{
		Width:              DefaultWidth,
		Height:             DefaultHeight,
		HitCap:             DefaultHitCap,
		StayPenalty:        DefaultStayPenalty,
		InvalidMovePenalty: DefaultInvalidMovePenalty,
		Generations:        30,
		Pairing:            string(PairUnique),
		TickRate:           50,
	}
}

// LoadSettings reads the [Pong] section from an INI file or byte slice.
// A missing section yields the defaults.
func LoadSettings(source interface{}) (Settings, error) {
	s := DefaultSettings()
	cfg, err := ini.Load(source)
	if err != nil {
		return s, fmt.Errorf("failed to load pong settings: %w", err)
	}
	if err := cfg.Section("Pong").MapTo(&s); err != nil {
		return s, fmt.Errorf("failed to map [Pong] section: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks the settings for values no match can run with.
func (s Settings) Validate() error {
	switch {
	case s.Width <= 2*(PaddleMargin+PaddleWidth):
		return fmt.Errorf("pong settings: width %d too small", s.Width)
	case s.Height <= PaddleHeight:
		return fmt.Errorf("pong settings: height %d must exceed paddle height %.0f", s.Height, PaddleHeight)
	case s.HitCap <= 0:
		return fmt.Errorf("pong settings: hit_cap must be positive")
	case s.StayPenalty < 0 || s.InvalidMovePenalty < 0:
		return fmt.Errorf("pong settings: penalties cannot be negative")
	case s.Generations <= 0:
		return fmt.Errorf("pong settings: generations must be positive")
	case s.TickRate <= 0:
		return fmt.Errorf("pong settings: tick_rate must be positive")
	case s.MaxTicks < 0:
		return fmt.Errorf("pong settings: max_ticks cannot be negative")
	}
	if _, err := ParsePairing(s.Pairing); err != nil {
		return fmt.Errorf("pong settings: %w", err)
	}
	return nil
}

// Rand returns the random source for serves.
func (s Settings) Rand() *rand.Rand {
	seed := s.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Evaluator builds a training evaluator from the settings.
func (s Settings) Evaluator() *Evaluator {
	return &Evaluator{
		Width:              s.Width,
		Height:             s.Height,
		HitCap:             s.HitCap,
		StayPenalty:        s.StayPenalty,
		InvalidMovePenalty: s.InvalidMovePenalty,
		MaxTicks:           s.MaxTicks,
		Rand:               s.Rand(),
	}
}

// Tournament builds a tournament from the settings.
func (s Settings) Tournament() (*Tournament, error) {
	pairing, err := ParsePairing(s.Pairing)
	if err != nil {
		return nil, err
	}
	t := NewTournament(s.Evaluator())
	t.Pairing = pairing
	return t, nil
}
