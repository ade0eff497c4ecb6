// Package config loads the enumerated tunables of spec §6 from a YAML
// deployment file, grounded on firestige-Otus's use of gopkg.in/yaml.v3
// for its own session configuration (see SPEC_FULL.md §2.3).
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/arenic/timelinecore/internal/clock"
)

// Config holds every tunable spec §6 enumerates.
type Config struct {
	// CycleDurationSeconds is T, fixed at 120.0 per spec but kept
	// configurable here since nothing downstream assumes the literal
	// constant — only that FixedTimestepSeconds evenly divides it.
	CycleDurationSeconds float64 `yaml:"cycle_duration_seconds"`

	// CountdownDurationSeconds must be in [0.5, 5.0].
	CountdownDurationSeconds float64 `yaml:"countdown_duration_seconds"`

	// Arenas is fixed at 8 by spec; validated, not just trusted.
	Arenas int `yaml:"arenas"`

	// MaxCharactersPerArena is fixed at 40 by spec.
	MaxCharactersPerArena int `yaml:"max_characters_per_arena"`

	// DedupeWindowSeconds bounds the ability-trigger dedupe window
	// (spec §4.5 step 1), fixed at 1.0s by spec.
	DedupeWindowSeconds float64 `yaml:"dedupe_window_seconds"`

	// FixedTimestepSeconds is the simulation step; must evenly divide
	// CycleDurationSeconds for bit-exact wrap (spec §6).
	FixedTimestepSeconds float64 `yaml:"fixed_timestep_seconds"`
}

// Default returns spec §6's literal default configuration.
func Default() Config {
	return Config{
		CycleDurationSeconds:     120.0,
		CountdownDurationSeconds: 3.0,
		Arenas:                   8,
		MaxCharactersPerArena:    40,
		DedupeWindowSeconds:      1.0,
		FixedTimestepSeconds:     0.02,
	}
}

// Load parses a YAML document into a Config and validates it.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every range spec §6 states.
func (c Config) Validate() error {
	if c.CycleDurationSeconds <= 0 {
		return fmt.Errorf("config: cycle_duration_seconds must be positive, got %v", c.CycleDurationSeconds)
	}
	if c.CountdownDurationSeconds < 0.5 || c.CountdownDurationSeconds > 5.0 {
		return fmt.Errorf("config: countdown_duration_seconds must be in [0.5, 5.0], got %v", c.CountdownDurationSeconds)
	}
	if c.Arenas <= 0 {
		return fmt.Errorf("config: arenas must be positive, got %d", c.Arenas)
	}
	if c.MaxCharactersPerArena <= 0 {
		return fmt.Errorf("config: max_characters_per_arena must be positive, got %d", c.MaxCharactersPerArena)
	}
	if c.DedupeWindowSeconds < 0 {
		return fmt.Errorf("config: dedupe_window_seconds must be non-negative, got %v", c.DedupeWindowSeconds)
	}
	if c.FixedTimestepSeconds <= 0 {
		return fmt.Errorf("config: fixed_timestep_seconds must be positive, got %v", c.FixedTimestepSeconds)
	}

	// Divisibility must hold in the millisecond units the simulation
	// actually runs in, not in float64 seconds: FromSeconds quantizes
	// each duration to the nearest millisecond before anything downstream
	// ever sees it, and a pair that divides evenly in seconds can still
	// fail to divide evenly once independently rounded to milliseconds
	// (e.g. 1/60 s quantizes to 17ms, which does not divide 120000ms) —
	// spec §6's bit-exact-wrap invariant is about the ms-quantized
	// values, so that is what must be checked.
	period := clock.FromSeconds(c.CycleDurationSeconds)
	step := clock.FromSeconds(c.FixedTimestepSeconds)
	if step <= 0 {
		return fmt.Errorf("config: fixed_timestep_seconds (%v) quantizes to zero milliseconds", c.FixedTimestepSeconds)
	}
	if period%step != 0 {
		return fmt.Errorf("config: fixed_timestep_seconds (%v = %dms) must evenly divide cycle_duration_seconds (%v = %dms) in millisecond units", c.FixedTimestepSeconds, step.Millis(), c.CycleDurationSeconds, period.Millis())
	}
	return nil
}

// CyclePeriod returns the configured cycle duration as a TimeStamp.
func (c Config) CyclePeriod() clock.TimeStamp {
	return clock.FromSeconds(c.CycleDurationSeconds)
}

// CountdownDuration returns the countdown duration as a TimeStamp.
func (c Config) CountdownDuration() clock.TimeStamp {
	return clock.FromSeconds(c.CountdownDurationSeconds)
}

// DedupeWindow returns the ability-trigger dedupe window as a TimeStamp.
func (c Config) DedupeWindow() clock.TimeStamp {
	return clock.FromSeconds(c.DedupeWindowSeconds)
}

// FixedTimestep returns the simulation step as a TimeStamp.
func (c Config) FixedTimestep() clock.TimeStamp {
	return clock.FromSeconds(c.FixedTimestepSeconds)
}
