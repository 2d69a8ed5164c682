package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vrpbench/internal/events"
	"vrpbench/internal/export"
	"vrpbench/internal/gen"
	"vrpbench/internal/model"
	"vrpbench/internal/solver"
	"vrpbench/internal/store"
)

type fakeAdapter struct {
	name      string
	available bool
	solve     func(ctx context.Context, inst *model.VRPInstance) (*model.VRPSolution, error)
}

func (f *fakeAdapter) Solve(ctx context.Context, inst *model.VRPInstance, timeLimit time.Duration, opts solver.Options) (*model.VRPSolution, error) {
	return f.solve(ctx, inst)
}
func (f *fakeAdapter) Name() string    { return f.name }
func (f *fakeAdapter) Available() bool { return f.available }

func tinyInstance() *model.VRPInstance {
	locs := []model.Location{
		{ID: model.DepotID, X: 0, Y: 0},
		{ID: 1, X: 10, Y: 0, Demand: 5},
		{ID: 2, X: 0, Y: 10, Demand: 5},
		{ID: 3, X: 10, Y: 10, Demand: 5},
	}
	return &model.VRPInstance{
		Name:           "tiny",
		Locations:      locs,
		Vehicles:       []model.Vehicle{{ID: 0, Capacity: 20}, {ID: 1, Capacity: 20}},
		DistanceMatrix: model.BuildDistanceMatrix(locs, nil),
	}
}

// goodSolve returns a correct two-route solution for tinyInstance.
func goodSolve(ctx context.Context, inst *model.VRPInstance) (*model.VRPSolution, error) {
	return &model.VRPSolution{
		InstanceName: inst.Name,
		Routes: []model.Route{
			{VehicleID: 0, Stops: []int{0, 1, 3, 0}, Demand: 10},
			{VehicleID: 1, Stops: []int{0, 2, 0}, Demand: 5},
		},
		TotalDistance: 54.14,
	}, nil
}

func quietOrchestrator(opts ...Option) *Orchestrator {
	opts = append(opts, WithLogger(log.New(io.Discard, "", 0)))
	return New(opts...)
}

func TestLoadInstanceDuplicate(t *testing.T) {
	o := quietOrchestrator()
	ctx := context.Background()
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := o.LoadInstance(ctx, tinyInstance())
	var dup *DuplicateInstanceError
	if !errors.As(err, &dup) {
		t.Fatalf("want DuplicateInstanceError, got %v", err)
	}
	if dup.Name != "tiny" {
		t.Fatalf("duplicate name: %q", dup.Name)
	}
}

func TestLoadInstanceInvalid(t *testing.T) {
	o := quietOrchestrator()
	bad := tinyInstance()
	bad.Vehicles = nil
	err := o.LoadInstance(context.Background(), bad)
	var inv *InvalidInstanceError
	if !errors.As(err, &inv) {
		t.Fatalf("want InvalidInstanceError, got %v", err)
	}
	if len(inv.Violations) == 0 {
		t.Fatalf("no violations recorded")
	}
	if len(o.Instances()) != 0 {
		t.Fatalf("invalid instance was registered")
	}
}

func TestUnknownReferences(t *testing.T) {
	o := quietOrchestrator()
	ctx := context.Background()
	if _, err := o.Solve(ctx, "ghost", "any", 0, nil); !errors.Is(err, ErrUnknownInstance) {
		t.Fatalf("want ErrUnknownInstance, got %v", err)
	}
	if _, err := o.Benchmark(ctx, "ghost", 0, nil); !errors.Is(err, ErrUnknownInstance) {
		t.Fatalf("want ErrUnknownInstance, got %v", err)
	}
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := o.Solve(ctx, "tiny", "ghost", 0, nil); !errors.Is(err, ErrUnknownSolver) {
		t.Fatalf("want ErrUnknownSolver, got %v", err)
	}
	if _, err := o.Benchmark(ctx, "tiny", 0, nil, "ghost"); !errors.Is(err, ErrUnknownSolver) {
		t.Fatalf("want ErrUnknownSolver, got %v", err)
	}
}

func TestBenchmarkIsolation(t *testing.T) {
	o := quietOrchestrator()
	ctx := context.Background()
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	adapters := []*fakeAdapter{
		{name: "good", available: true, solve: goodSolve},
		{name: "broken", available: true, solve: func(ctx context.Context, inst *model.VRPInstance) (*model.VRPSolution, error) {
			return nil, fmt.Errorf("engine exploded")
		}},
		{name: "panicky", available: true, solve: func(ctx context.Context, inst *model.VRPInstance) (*model.VRPSolution, error) {
			panic("index out of range")
		}},
	}
	for _, a := range adapters {
		if err := o.RegisterSolver(a); err != nil {
			t.Fatalf("register %s: %v", a.name, err)
		}
	}

	res, err := o.Benchmark(ctx, "tiny", time.Second, nil)
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("entries: got %d, want 3", len(res.Entries))
	}
	if res.RunID == "" {
		t.Fatalf("run id not set")
	}

	good, _ := res.Entry("good")
	if good == nil || !good.Succeeded() {
		t.Fatalf("good entry: %+v", good)
	}
	if good.Solution.Solver != "good" || good.Solution.InstanceName != "tiny" {
		t.Fatalf("solution not stamped: %+v", good.Solution)
	}

	broken, _ := res.Entry("broken")
	if broken == nil || broken.Failure == nil {
		t.Fatalf("broken entry: %+v", broken)
	}
	if broken.Failure.Kind != "solver_failure" {
		t.Fatalf("broken failure kind: %q", broken.Failure.Kind)
	}

	panicky, _ := res.Entry("panicky")
	if panicky == nil || panicky.Failure == nil {
		t.Fatalf("panic not recovered: %+v", panicky)
	}

	state, _ := o.State("tiny")
	if state != StatePartiallyFailed {
		t.Fatalf("state: got %s", state)
	}
}

func TestBenchmarkAllSucceed(t *testing.T) {
	o := quietOrchestrator()
	ctx := context.Background()
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := o.RegisterSolver(&fakeAdapter{name: "good", available: true, solve: goodSolve}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := o.Benchmark(ctx, "tiny", 0, nil)
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if res.Succeeded() != 1 {
		t.Fatalf("succeeded: got %d", res.Succeeded())
	}
	state, _ := o.State("tiny")
	if state != StateCompleted {
		t.Fatalf("state: got %s", state)
	}
	last, ok := o.LastResult("tiny")
	if !ok || last.RunID != res.RunID {
		t.Fatalf("history not updated")
	}

	// A second run overwrites the history entry.
	res2, err := o.Benchmark(ctx, "tiny", 0, nil)
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	last, _ = o.LastResult("tiny")
	if last.RunID != res2.RunID {
		t.Fatalf("history kept stale run")
	}
}

func TestBenchmarkUnavailableSolver(t *testing.T) {
	o := quietOrchestrator()
	ctx := context.Background()
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = o.RegisterSolver(&fakeAdapter{name: "down", solve: goodSolve})
	_ = o.RegisterSolver(&fakeAdapter{name: "good", available: true, solve: goodSolve})

	// Default solver set is the available adapters only.
	res, err := o.Benchmark(ctx, "tiny", 0, nil)
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].Solver != "good" {
		t.Fatalf("default entries: %+v", res.Entries)
	}

	// Explicitly requesting an unavailable solver records a failure entry.
	res, err = o.Benchmark(ctx, "tiny", 0, nil, "down", "good")
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	entry, _ := res.Entry("down")
	if entry == nil || entry.Failure == nil || entry.Failure.Kind != "unavailable" {
		t.Fatalf("unavailable entry: %+v", entry)
	}
	if good, _ := res.Entry("good"); good == nil || !good.Succeeded() {
		t.Fatalf("sibling solver dropped: %+v", good)
	}
}

func TestBenchmarkRecordsInfeasible(t *testing.T) {
	o := quietOrchestrator()
	ctx := context.Background()
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = o.RegisterSolver(&fakeAdapter{name: "sloppy", available: true,
		solve: func(ctx context.Context, inst *model.VRPInstance) (*model.VRPSolution, error) {
			// Leaves customer 2 unvisited.
			return &model.VRPSolution{
				InstanceName: inst.Name,
				Routes:       []model.Route{{VehicleID: 0, Stops: []int{0, 1, 3, 0}, Demand: 10}},
			}, nil
		}})
	res, err := o.Benchmark(ctx, "tiny", 0, nil)
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	entry, _ := res.Entry("sloppy")
	if entry.Failure != nil {
		t.Fatalf("infeasible solution recorded as failure: %+v", entry.Failure)
	}
	if entry.Solution == nil || entry.Solution.Feasible {
		t.Fatalf("infeasible solution not flagged: %+v", entry.Solution)
	}
	if entry.Succeeded() {
		t.Fatalf("infeasible entry counted as success")
	}
}

func TestSolveSingle(t *testing.T) {
	o := quietOrchestrator()
	ctx := context.Background()
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = o.RegisterSolver(&fakeAdapter{name: "good", available: true, solve: goodSolve})
	_ = o.RegisterSolver(&fakeAdapter{name: "broken", available: true,
		solve: func(ctx context.Context, inst *model.VRPInstance) (*model.VRPSolution, error) {
			return nil, fmt.Errorf("no license")
		}})

	sol, err := o.Solve(ctx, "tiny", "good", time.Second, nil)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !sol.Feasible || sol.SolveTime < 0 {
		t.Fatalf("solution: %+v", sol)
	}

	_, err = o.Solve(ctx, "tiny", "broken", time.Second, nil)
	var failure *solver.Failure
	if !errors.As(err, &failure) {
		t.Fatalf("want *solver.Failure, got %v", err)
	}
	if failure.Solver != "broken" {
		t.Fatalf("failure solver: %q", failure.Solver)
	}
}

func TestEventsPublished(t *testing.T) {
	broker := events.NewMemoryBroker()
	o := quietOrchestrator(WithBroker(broker))
	ctx := context.Background()
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = o.RegisterSolver(&fakeAdapter{name: "good", available: true, solve: goodSolve})

	ch := broker.Subscribe("tiny")
	if _, err := o.Benchmark(ctx, "tiny", 0, nil); err != nil {
		t.Fatalf("benchmark: %v", err)
	}

	var types []string
	for len(ch) > 0 {
		evt := <-ch
		types = append(types, evt.Type)
	}
	if len(types) != 3 {
		t.Fatalf("events: got %v", types)
	}
	if types[0] != events.RunStarted || types[1] != events.SolverSucceeded || types[2] != events.RunCompleted {
		t.Fatalf("event order: %v", types)
	}
}

func TestStorePersistence(t *testing.T) {
	st := store.NewMemory()
	o := quietOrchestrator(WithStore(st))
	ctx := context.Background()
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = o.RegisterSolver(&fakeAdapter{name: "good", available: true, solve: goodSolve})
	if _, err := o.Benchmark(ctx, "tiny", 0, nil); err != nil {
		t.Fatalf("benchmark: %v", err)
	}

	if _, err := st.GetInstance(ctx, "tiny"); err != nil {
		t.Fatalf("instance not persisted: %v", err)
	}
	results, err := st.ListResults(ctx, "tiny", 0)
	if err != nil || len(results) != 1 {
		t.Fatalf("results not persisted: %v %d", err, len(results))
	}
}

func TestRunFullBenchmark(t *testing.T) {
	o := quietOrchestrator()
	ctx := context.Background()
	_ = o.RegisterSolver(&fakeAdapter{name: "good", available: true, solve: goodSolve})
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	second := tinyInstance()
	second.Name = "tiny2"
	if err := o.LoadInstance(ctx, second); err != nil {
		t.Fatalf("load: %v", err)
	}

	results, err := o.RunFullBenchmark(ctx, nil, 0, nil)
	if err != nil {
		t.Fatalf("full benchmark: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results: got %d", len(results))
	}
	if len(o.History()) != 2 {
		t.Fatalf("history: got %d", len(o.History()))
	}

	// An explicit list limits the run; a repeated name reruns that instance.
	results, err = o.RunFullBenchmark(ctx, []string{"tiny2", "tiny2"}, 0, nil)
	if err != nil {
		t.Fatalf("full benchmark: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("explicit list results: got %d", len(results))
	}
}

func TestResultsSummary(t *testing.T) {
	o := quietOrchestrator()
	ctx := context.Background()
	if err := o.LoadInstance(ctx, tinyInstance()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = o.RegisterSolver(&fakeAdapter{name: "good", available: true, solve: goodSolve})
	_ = o.RegisterSolver(&fakeAdapter{name: "broken", available: true,
		solve: func(ctx context.Context, inst *model.VRPInstance) (*model.VRPSolution, error) {
			return nil, fmt.Errorf("boom")
		}})
	if _, err := o.Benchmark(ctx, "tiny", 0, nil); err != nil {
		t.Fatalf("benchmark: %v", err)
	}

	summary := o.ResultsSummary()
	if len(summary) != 2 {
		t.Fatalf("summary: got %d entries", len(summary))
	}
	// Sorted by name: broken before good.
	if summary[0].Solver != "broken" || summary[0].Succeeded != 0 || summary[0].Attempted != 1 {
		t.Fatalf("broken summary: %+v", summary[0])
	}
	if summary[1].Solver != "good" || summary[1].SuccessRate != 1 {
		t.Fatalf("good summary: %+v", summary[1])
	}
	if summary[1].AvgDistance != 54.14 {
		t.Fatalf("good avg distance: %v", summary[1].AvgDistance)
	}
}

func TestCreateSampleInstance(t *testing.T) {
	o := quietOrchestrator()
	inst, err := o.CreateSampleInstance(context.Background(), "gen-20", 20, gen.Uniform, 42, gen.Params{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.NumCustomers() != 20 {
		t.Fatalf("customers: got %d", inst.NumCustomers())
	}
	if got, err := o.Instance("gen-20"); err != nil || got != inst {
		t.Fatalf("instance not registered: %v", err)
	}
	if _, err := o.CreateSampleInstance(context.Background(), "bad", 0, gen.Uniform, 1, gen.Params{}); err == nil {
		t.Fatalf("invalid generation accepted")
	}
}

func TestLoadInstanceFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.json")
	data, err := export.MarshalInstance(tinyInstance())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	o := quietOrchestrator()
	ctx := context.Background()
	inst, err := o.LoadInstanceFromFile(ctx, path)
	if err != nil {
		t.Fatalf("load from file: %v", err)
	}
	if inst.Name != "tiny" || inst.NumCustomers() != 3 {
		t.Fatalf("loaded instance: %+v", inst)
	}
	if _, err := o.Instance("tiny"); err != nil {
		t.Fatalf("instance not registered: %v", err)
	}

	if _, err := o.LoadInstanceFromFile(ctx, filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("missing file accepted")
	}
	var dup *DuplicateInstanceError
	if _, err := o.LoadInstanceFromFile(ctx, path); !errors.As(err, &dup) {
		t.Fatalf("want DuplicateInstanceError, got %v", err)
	}
}

func TestImportReport(t *testing.T) {
	mem := store.NewMemory()
	o := quietOrchestrator(WithStore(mem))
	ctx := context.Background()

	rep := &export.Report{
		Instances: []*model.VRPInstance{tinyInstance()},
		Results: []*model.BenchmarkResult{
			{
				RunID:        "imported-run",
				InstanceName: "tiny",
				Entries: []model.SolverRun{{
					Solver:  "good",
					Elapsed: 10 * time.Millisecond,
					Solution: &model.VRPSolution{
						InstanceName:  "tiny",
						Solver:        "good",
						TotalDistance: 54.14,
						Feasible:      true,
					},
				}},
			},
			{RunID: "orphan", InstanceName: "ghost"},
		},
	}

	n, err := o.ImportReport(ctx, rep)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported: got %d, want 1", n)
	}
	res, ok := o.LastResult("tiny")
	if !ok || res.RunID != "imported-run" {
		t.Fatalf("history not seeded: %v %+v", ok, res)
	}
	if st, _ := o.State("tiny"); st != StateCompleted {
		t.Fatalf("state: %q", st)
	}
	summary := o.ResultsSummary()
	if len(summary) != 1 || summary[0].Solver != "good" || summary[0].Succeeded != 1 {
		t.Fatalf("summary: %+v", summary)
	}
	if saved, err := mem.ListResults(ctx, "tiny", 0); err != nil || len(saved) != 1 {
		t.Fatalf("result not persisted: %v %d", err, len(saved))
	}

	// Re-importing tolerates the already registered instance.
	if n, err := o.ImportReport(ctx, rep); err != nil || n != 1 {
		t.Fatalf("re-import: %d %v", n, err)
	}
	if _, err := o.ImportReport(ctx, nil); err == nil {
		t.Fatalf("nil report accepted")
	}
}
