package store

import (
	"context"
	"sort"
	"sync"

	"vrpbench/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu        sync.Mutex
	instances map[string]*model.VRPInstance
	results   map[string][]*model.BenchmarkResult // instance name -> runs, oldest first
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		instances: map[string]*model.VRPInstance{},
		results:   map[string][]*model.BenchmarkResult{},
	}
}

func (m *Memory) SaveInstance(ctx context.Context, inst *model.VRPInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[inst.Name] = inst
	return nil
}

func (m *Memory) GetInstance(ctx context.Context, name string) (*model.VRPInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[name]
	if !ok {
		return nil, ErrNotFound
	}
	return inst, nil
}

func (m *Memory) ListInstances(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.instances))
	for name := range m.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) SaveResult(ctx context.Context, res *model.BenchmarkResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[res.InstanceName] = append(m.results[res.InstanceName], res)
	return nil
}

// ListResults returns the most recent runs first. A limit of 0 means all.
func (m *Memory) ListResults(ctx context.Context, instanceName string, limit int) ([]*model.BenchmarkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := m.results[instanceName]
	out := make([]*model.BenchmarkResult, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		out = append(out, runs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
