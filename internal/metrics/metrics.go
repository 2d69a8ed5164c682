package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the benchmark harness.
	Registry = prometheus.NewRegistry()
	// SolveRuns counts adapter runs by solver and outcome (ok, infeasible, failed, timeout).
	SolveRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrpbench_solve_runs_total", Help: "Solver runs by outcome."},
		[]string{"solver", "status"},
	)
	// SolveDuration records wall-clock solve durations in seconds per solver.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "vrpbench_solve_duration_seconds", Help: "Solve wall-clock duration in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120}},
		[]string{"solver"},
	)
	// BenchmarkRuns counts completed multi-solver benchmark runs by final state.
	BenchmarkRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrpbench_benchmark_runs_total", Help: "Benchmark runs by final state."},
		[]string{"state"},
	)
)

// RegisterDefault registers all collectors on the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(SolveRuns)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(BenchmarkRuns)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
