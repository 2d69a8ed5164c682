// Package bench coordinates benchmark runs: it owns the instance registry,
// the solver registry, run history and the comparison logic. One orchestrator
// per process is typical but nothing here is process-global.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"vrpbench/internal/events"
	"vrpbench/internal/export"
	"vrpbench/internal/gen"
	"vrpbench/internal/metrics"
	"vrpbench/internal/model"
	"vrpbench/internal/solver"
	"vrpbench/internal/store"
	"vrpbench/internal/validate"
)

// InstanceState tracks where an instance is in its benchmark lifecycle.
type InstanceState string

const (
	StateRegistered      InstanceState = "registered"
	StateSolving         InstanceState = "solving"
	StateCompleted       InstanceState = "completed"
	StatePartiallyFailed InstanceState = "partially_failed"
)

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithStore persists instances and results to s in addition to keeping them
// in memory.
func WithStore(s store.Store) Option { return func(o *Orchestrator) { o.store = s } }

// WithBroker publishes run progress events to b.
func WithBroker(b events.Broker) Option { return func(o *Orchestrator) { o.broker = b } }

// WithRateLimit paces the start of benchmark runs in RunFullBenchmark.
func WithRateLimit(l *rate.Limiter) Option { return func(o *Orchestrator) { o.limiter = l } }

// WithLogger overrides the default process logger.
func WithLogger(l *log.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// Orchestrator runs registered solvers against registered instances and keeps
// the latest benchmark result per instance.
type Orchestrator struct {
	mu        sync.Mutex
	registry  *solver.Registry
	instances map[string]*model.VRPInstance
	order     []string // instance registration order
	states    map[string]InstanceState
	history   map[string]*model.BenchmarkResult

	store   store.Store
	broker  events.Broker
	limiter *rate.Limiter
	logger  *log.Logger
}

// New returns an orchestrator with an empty solver registry and no instances.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:  solver.NewRegistry(),
		instances: map[string]*model.VRPInstance{},
		states:    map[string]InstanceState{},
		history:   map[string]*model.BenchmarkResult{},
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterSolver adds an adapter to the registry. Registration order fixes
// the invocation order of every subsequent benchmark run.
func (o *Orchestrator) RegisterSolver(a solver.Adapter) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.registry.Register(a); err != nil {
		return err
	}
	o.logger.Printf("registered solver %s (available=%v)", a.Name(), a.Available())
	return nil
}

// Solvers returns all registered solver names in registration order.
func (o *Orchestrator) Solvers() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.registry.Names()
}

// AvailableSolvers returns the registered solvers whose engines are ready.
func (o *Orchestrator) AvailableSolvers() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.registry.Available()
}

// LoadInstance validates and registers an instance. Structural violations or
// a duplicate name reject the instance before any solver can see it.
func (o *Orchestrator) LoadInstance(ctx context.Context, inst *model.VRPInstance) error {
	if inst == nil {
		return fmt.Errorf("bench: nil instance")
	}
	if violations := validate.Instance(inst); len(violations) > 0 {
		return &InvalidInstanceError{Name: inst.Name, Violations: violations}
	}

	o.mu.Lock()
	if _, exists := o.instances[inst.Name]; exists {
		o.mu.Unlock()
		return &DuplicateInstanceError{Name: inst.Name}
	}
	o.instances[inst.Name] = inst
	o.order = append(o.order, inst.Name)
	o.states[inst.Name] = StateRegistered
	o.mu.Unlock()

	if validate.LikelyInfeasible(inst) {
		o.logger.Printf("instance %s: total demand exceeds fleet capacity, likely infeasible", inst.Name)
	}
	if o.store != nil {
		if err := o.store.SaveInstance(ctx, inst); err != nil {
			return fmt.Errorf("bench: persist instance %s: %w", inst.Name, err)
		}
	}
	o.logger.Printf("loaded instance %s: %d customers, %d vehicles", inst.Name, inst.NumCustomers(), len(inst.Vehicles))
	return nil
}

// CreateSampleInstance generates a reproducible instance and registers it.
func (o *Orchestrator) CreateSampleInstance(ctx context.Context, name string, customers int, layout gen.Layout, seed int64, params gen.Params) (*model.VRPInstance, error) {
	inst, err := gen.Sample(name, customers, layout, seed, params)
	if err != nil {
		return nil, err
	}
	if err := o.LoadInstance(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// LoadInstanceFromFile reads a JSON instance written by
// export.MarshalInstance and registers it.
func (o *Orchestrator) LoadInstanceFromFile(ctx context.Context, path string) (*model.VRPInstance, error) {
	inst, err := export.ReadInstance(path)
	if err != nil {
		return nil, fmt.Errorf("bench: load instance from %s: %w", path, err)
	}
	if err := o.LoadInstance(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// ImportReport replays a previously exported report. Its instances are
// registered (names already taken keep their current instance) and its
// results seed the run history, so summaries and comparisons cover earlier
// runs. Results for instances the orchestrator does not know are skipped.
// Returns the number of results imported.
func (o *Orchestrator) ImportReport(ctx context.Context, rep *export.Report) (int, error) {
	if rep == nil {
		return 0, fmt.Errorf("bench: nil report")
	}
	for _, inst := range rep.Instances {
		err := o.LoadInstance(ctx, inst)
		var dup *DuplicateInstanceError
		if err != nil && !errors.As(err, &dup) {
			return 0, err
		}
	}

	imported := 0
	for _, res := range rep.Results {
		if res == nil || res.InstanceName == "" {
			continue
		}
		o.mu.Lock()
		_, known := o.instances[res.InstanceName]
		if known {
			state := StateCompleted
			if res.Succeeded() < len(res.Entries) {
				state = StatePartiallyFailed
			}
			o.states[res.InstanceName] = state
			o.history[res.InstanceName] = res
		}
		o.mu.Unlock()
		if !known {
			o.logger.Printf("import: skipping result for unknown instance %s", res.InstanceName)
			continue
		}
		imported++
		if o.store != nil {
			if err := o.store.SaveResult(ctx, res); err != nil {
				o.logger.Printf("import: persist result for %s: %v", res.InstanceName, err)
			}
		}
	}
	return imported, nil
}

// Instance returns the registered instance with the given name.
func (o *Orchestrator) Instance(name string) (*model.VRPInstance, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	inst, ok := o.instances[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstance, name)
	}
	return inst, nil
}

// Instances returns registered instance names in registration order.
func (o *Orchestrator) Instances() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// State returns the lifecycle state of a registered instance.
func (o *Orchestrator) State(name string) (InstanceState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.states[name]
	return st, ok
}

// Solve runs a single named solver against a single named instance. The
// returned solution may be infeasible; that is recorded on the solution
// itself, not as an error. Adapter errors come back as a *solver.Failure.
func (o *Orchestrator) Solve(ctx context.Context, instanceName, solverName string, timeLimit time.Duration, opts solver.Options) (*model.VRPSolution, error) {
	inst, err := o.Instance(instanceName)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	adapter, ok := o.registry.Get(solverName)
	o.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, solverName)
	}
	run := o.runAdapter(ctx, adapter, inst, timeLimit, opts)
	if run.Failure != nil {
		return nil, &solver.Failure{
			Solver:   solverName,
			Err:      errors.New(run.Failure.Message),
			Elapsed:  run.Elapsed,
			TimedOut: run.Failure.TimedOut,
		}
	}
	return run.Solution, nil
}

// Benchmark runs the given solvers against one instance; when none are
// named it runs every available adapter. Each adapter is isolated: a
// failure, panic or timeout in one produces a failure entry and the rest
// still run. Entries keep invocation order. Explicitly requesting a
// registered but unavailable solver records an unavailable failure entry
// rather than dropping it.
func (o *Orchestrator) Benchmark(ctx context.Context, instanceName string, timeLimit time.Duration, opts solver.Options, solvers ...string) (*model.BenchmarkResult, error) {
	inst, err := o.Instance(instanceName)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	names := solvers
	if len(names) == 0 {
		names = o.registry.Available()
	} else {
		for _, name := range names {
			if _, ok := o.registry.Get(name); !ok {
				o.mu.Unlock()
				return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, name)
			}
		}
	}
	if len(names) == 0 {
		o.mu.Unlock()
		return nil, fmt.Errorf("bench: no available solvers")
	}
	adapters := make([]solver.Adapter, len(names))
	for i, name := range names {
		adapters[i], _ = o.registry.Get(name)
	}
	o.states[instanceName] = StateSolving
	o.mu.Unlock()

	res := &model.BenchmarkResult{
		RunID:        uuid.New().String(),
		InstanceName: instanceName,
		TimeLimit:    timeLimit,
		StartedAt:    time.Now().UTC(),
	}
	o.publish(instanceName, events.Event{Type: events.RunStarted, Instance: instanceName, Data: map[string]any{
		"run_id":  res.RunID,
		"solvers": names,
	}})

	for i, adapter := range adapters {
		name := names[i]
		var run model.SolverRun
		if !adapter.Available() {
			run = model.SolverRun{Solver: name, Failure: &model.FailureRecord{
				Kind:    "unavailable",
				Message: fmt.Sprintf("solver %s is not available", name),
			}}
			metrics.SolveRuns.WithLabelValues(name, "unavailable").Inc()
			o.logger.Printf("benchmark %s: solver %s unavailable, skipping", instanceName, name)
		} else {
			run = o.runAdapter(ctx, adapter, inst, timeLimit, opts)
		}
		res.Entries = append(res.Entries, run)
		o.publishRun(instanceName, res.RunID, &run)
	}

	state := StateCompleted
	if res.Succeeded() < len(res.Entries) {
		state = StatePartiallyFailed
	}
	o.mu.Lock()
	o.states[instanceName] = state
	o.history[instanceName] = res
	o.mu.Unlock()
	metrics.BenchmarkRuns.WithLabelValues(string(state)).Inc()

	o.publish(instanceName, events.Event{Type: events.RunCompleted, Instance: instanceName, Data: map[string]any{
		"run_id":    res.RunID,
		"state":     string(state),
		"succeeded": res.Succeeded(),
		"attempted": len(res.Entries),
	}})

	if o.store != nil {
		if err := o.store.SaveResult(ctx, res); err != nil {
			o.logger.Printf("benchmark %s: persist result: %v", instanceName, err)
		}
	}
	o.logger.Printf("benchmark %s: %d/%d solvers succeeded (%s)", instanceName, res.Succeeded(), len(res.Entries), state)
	return res, nil
}

// RunFullBenchmark benchmarks the named instances sequentially and returns
// the results keyed by instance name; a repeated name reruns and overwrites
// its earlier entry. An empty list means every registered instance in
// registration order. A configured rate limiter paces the start of each run.
func (o *Orchestrator) RunFullBenchmark(ctx context.Context, instanceNames []string, timeLimit time.Duration, opts solver.Options, solvers ...string) (map[string]*model.BenchmarkResult, error) {
	if len(instanceNames) == 0 {
		instanceNames = o.Instances()
	}
	results := map[string]*model.BenchmarkResult{}
	for _, name := range instanceNames {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return results, err
			}
		}
		res, err := o.Benchmark(ctx, name, timeLimit, opts, solvers...)
		if err != nil {
			return results, err
		}
		results[name] = res
	}
	return results, nil
}

// LastResult returns the most recent benchmark result for an instance.
func (o *Orchestrator) LastResult(instanceName string) (*model.BenchmarkResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	res, ok := o.history[instanceName]
	return res, ok
}

// History returns the latest result per instance, in instance registration
// order, skipping instances that have not been benchmarked yet.
func (o *Orchestrator) History() []*model.BenchmarkResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*model.BenchmarkResult, 0, len(o.history))
	for _, name := range o.order {
		if res, ok := o.history[name]; ok {
			out = append(out, res)
		}
	}
	return out
}

// ResultsSummary aggregates the run history per solver, sorted by solver
// name. Average and best distances consider feasible solutions only; average
// solve time covers every attempt.
func (o *Orchestrator) ResultsSummary() []model.SolverSummary {
	type acc struct {
		attempted int
		elapsed   []float64 // seconds, every attempt
		distances []float64 // feasible solutions only
	}
	byName := map[string]*acc{}
	for _, res := range o.History() {
		for i := range res.Entries {
			e := &res.Entries[i]
			a := byName[e.Solver]
			if a == nil {
				a = &acc{}
				byName[e.Solver] = a
			}
			a.attempted++
			a.elapsed = append(a.elapsed, e.Elapsed.Seconds())
			if e.Succeeded() {
				a.distances = append(a.distances, e.Solution.TotalDistance)
			}
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.SolverSummary, 0, len(names))
	for _, name := range names {
		a := byName[name]
		timeStats := CalcStats(a.elapsed)
		distStats := CalcStats(a.distances)
		s := model.SolverSummary{
			Solver:       name,
			Attempted:    a.attempted,
			Succeeded:    distStats.Count,
			SuccessRate:  float64(distStats.Count) / float64(a.attempted),
			AvgSolveTime: time.Duration(timeStats.Mean * float64(time.Second)),
		}
		if distStats.Count > 0 {
			s.AvgDistance = distStats.Mean
			s.BestDistance = distStats.Min
		}
		out = append(out, s)
	}
	return out
}

// runAdapter invokes one adapter with a cooperative deadline, recovers any
// panic, validates the returned solution and records metrics. The returned
// run always carries the measured wall-clock time.
func (o *Orchestrator) runAdapter(ctx context.Context, a solver.Adapter, inst *model.VRPInstance, timeLimit time.Duration, opts solver.Options) model.SolverRun {
	name := a.Name()
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeLimit > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeLimit)
	}
	defer cancel()

	start := time.Now()
	sol, err := func() (s *model.VRPSolution, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return a.Solve(runCtx, inst, timeLimit, opts)
	}()
	elapsed := time.Since(start)
	metrics.SolveDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err == nil && sol == nil {
		err = fmt.Errorf("solver returned no solution and no error")
	}
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded) ||
			(timeLimit > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded))
		status := "failed"
		if timedOut {
			status = "timeout"
		}
		metrics.SolveRuns.WithLabelValues(name, status).Inc()
		o.logger.Printf("solver %s on %s: %v (elapsed %s)", name, inst.Name, err, elapsed.Round(time.Millisecond))
		return model.SolverRun{
			Solver:  name,
			Elapsed: elapsed,
			Failure: &model.FailureRecord{Kind: "solver_failure", Message: err.Error(), TimedOut: timedOut},
		}
	}

	sol.InstanceName = inst.Name
	sol.Solver = name
	sol.SolveTime = elapsed

	feasible, violations := validate.Solution(sol, inst)
	sol.Feasible = feasible
	if !feasible {
		sol.Status = "INFEASIBLE: " + strings.Join(violations, "; ")
		metrics.SolveRuns.WithLabelValues(name, "infeasible").Inc()
		o.logger.Printf("solver %s on %s: infeasible solution: %s", name, inst.Name, strings.Join(violations, "; "))
	} else {
		if sol.Status == "" {
			sol.Status = "FEASIBLE"
		}
		metrics.SolveRuns.WithLabelValues(name, "ok").Inc()
		o.logger.Printf("solver %s on %s: distance %.2f in %s", name, inst.Name, sol.TotalDistance, elapsed.Round(time.Millisecond))
	}
	return model.SolverRun{Solver: name, Solution: sol, Elapsed: elapsed}
}

func (o *Orchestrator) publish(instance string, evt events.Event) {
	if o.broker != nil {
		o.broker.Publish(instance, evt)
	}
}

func (o *Orchestrator) publishRun(instance, runID string, run *model.SolverRun) {
	if o.broker == nil {
		return
	}
	data := map[string]any{
		"run_id":     runID,
		"solver":     run.Solver,
		"elapsed_ms": run.Elapsed.Milliseconds(),
	}
	typ := events.SolverFailed
	if run.Succeeded() {
		typ = events.SolverSucceeded
		data["distance"] = run.Solution.TotalDistance
	} else if run.Failure != nil {
		data["error"] = run.Failure.Message
	} else if run.Solution != nil {
		data["error"] = run.Solution.Status
	}
	o.broker.Publish(instance, events.Event{Type: typ, Instance: instance, Data: data})
}
