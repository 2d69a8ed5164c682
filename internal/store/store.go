// Package store persists benchmark history. The in-memory implementation is
// the default; Postgres is used when a DSN is configured.
package store

import (
	"context"
	"errors"

	"vrpbench/internal/model"
)

// Store is the persistence interface used by the orchestrator.
type Store interface {
	// Instances
	SaveInstance(ctx context.Context, inst *model.VRPInstance) error
	GetInstance(ctx context.Context, name string) (*model.VRPInstance, error)
	ListInstances(ctx context.Context) ([]string, error)

	// Benchmark results
	SaveResult(ctx context.Context, res *model.BenchmarkResult) error
	ListResults(ctx context.Context, instanceName string, limit int) ([]*model.BenchmarkResult, error)
}

var ErrNotFound = errors.New("not found")
