// Package config loads the processor's CC mode and pool-sizing knobs from
// TOML via github.com/BurntSushi/toml, so the thread/queue counts the
// original C++ source hard-coded as #define THREAD_COUNT/QUEUE_COUNT, and
// the P_OCC per-iteration drain bounds (n/m in that source), are data
// instead of constants.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Mode is the concurrency-control policy a Config selects.
type Mode string

const (
	Serial               Mode = "SERIAL"
	Locking              Mode = "LOCKING"
	LockingExclusiveOnly Mode = "LOCKING_EXCLUSIVE_ONLY"
	OCC                  Mode = "OCC"
	POCC                 Mode = "P_OCC"
)

func (m Mode) valid() bool {
	switch m {
	case Serial, Locking, LockingExclusiveOnly, OCC, POCC:
		return true
	default:
		return false
	}
}

// Config is the processor's full set of tunables.
type Config struct {
	// Mode selects the scheduler variant.
	Mode Mode `toml:"mode"`
	// Workers is the worker pool's goroutine count. The scheduler's
	// control loop occupies one of them for its own lifetime.
	Workers int `toml:"workers"`
	// QueueCapacity bounds each handoff queue (ingress/completion/result,
	// and validated under P_OCC).
	QueueCapacity int `toml:"queue_capacity"`
	// CompletionDrainLimit bounds how many completion-queue pops a P_OCC
	// scheduler iteration performs before moving on, preserving the
	// original source's `n` literal as a tunable (§11 of SPEC_FULL.md).
	CompletionDrainLimit int `toml:"completion_drain_limit"`
	// ValidatedDrainLimit is CompletionDrainLimit's validated-queue
	// counterpart (`m` in the original source).
	ValidatedDrainLimit int `toml:"validated_drain_limit"`
}

// Default returns a Config for mode with reasonable pool sizing.
func Default(mode Mode) Config {
	return Config{
		Mode:                 mode,
		Workers:              8,
		QueueCapacity:        1024,
		CompletionDrainLimit: 50,
		ValidatedDrainLimit:  50,
	}
}

// Load decodes a Config from TOML text, applying Default(Serial)'s sizing
// for any field left unset, then validates Mode.
func Load(data []byte) (Config, error) {
	cfg := Default(Serial)
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if !cfg.Mode.valid() {
		return Config{}, fmt.Errorf("config: unknown mode %q", cfg.Mode)
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("config: workers must be >= 1, got %d", cfg.Workers)
	}
	return cfg, nil
}
