package machine

import "github.com/caarlos0/env/v6"

// Limits bounds a run of the machine. Exceeding MaxSteps or MaxRecursion
// raises the one fatal runtime failure path (spec.md §7): the run stops
// with a non-nil error, like a program-level Panic would. MaxHeapObjects
// is not fatal: reaching it triggers a heap collection, and a heap still
// at the limit afterwards logs a warning and keeps allocating.
type Limits struct {
	MaxSteps       int `env:"GIB_MAX_STEPS" envDefault:"10000000"`
	MaxRecursion   int `env:"GIB_MAX_RECURSION" envDefault:"1000"`
	MaxHeapObjects int `env:"GIB_MAX_HEAP_OBJECTS" envDefault:"1000000"`
}

// DefaultLimits are the limits used when the environment sets none.
func DefaultLimits() Limits {
	return Limits{MaxSteps: 10_000_000, MaxRecursion: 1000, MaxHeapObjects: 1_000_000}
}

// LimitsFromEnv reads Limits from the GIB_* environment variables, falling
// back to the struct-tag defaults.
func LimitsFromEnv() (Limits, error) {
	var l Limits
	if err := env.Parse(&l); err != nil {
		return DefaultLimits(), err
	}
	return l, nil
}
