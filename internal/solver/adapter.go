// Package solver defines the contract every solving engine must satisfy to
// take part in a benchmark, plus the registry that keeps adapters in a
// stable, deterministic order.
package solver

import (
	"context"
	"time"

	"vrpbench/internal/model"
)

// Adapter is the uniform interface over heterogeneous solving engines. The
// orchestrator never inspects which concrete adapter it holds.
//
// Solve must attempt to honor timeLimit by cooperating with the underlying
// engine's own budget mechanism; the ctx carries the same deadline. Adapters
// must not retain or mutate the instance: they return fresh solutions.
type Adapter interface {
	Solve(ctx context.Context, inst *model.VRPInstance, timeLimit time.Duration, opts Options) (*model.VRPSolution, error)

	// Name returns the stable, non-empty identity used as the key in all
	// results and comparisons.
	Name() string

	// Available reports whether the engine can run right now. It must be
	// side-effect free and must not fail.
	Available() bool
}

// Options is an adapter-specific configuration map. Unrecognized keys are
// ignored, never an error.
type Options map[string]any

// Int reads an integer option, accepting the numeric types that survive a
// JSON round trip.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Float reads a float option.
func (o Options) Float(key string, def float64) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// String reads a string option.
func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

// Bool reads a boolean option.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}
