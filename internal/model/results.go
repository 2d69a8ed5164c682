package model

import "time"

// FailureRecord captures why a solver produced no usable solution.
type FailureRecord struct {
	Kind     string `json:"kind"` // e.g. "solver_failure", "infeasible_solution"
	Message  string `json:"message"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

// SolverRun is one adapter's outcome within a benchmark run: exactly one of
// Solution or Failure is set. Elapsed wall-clock time is recorded either way.
type SolverRun struct {
	Solver   string         `json:"solver"`
	Solution *VRPSolution   `json:"solution,omitempty"`
	Failure  *FailureRecord `json:"failure,omitempty"`
	Elapsed  time.Duration  `json:"elapsed"`
}

// Succeeded reports whether the run yielded a feasible solution.
func (r *SolverRun) Succeeded() bool {
	return r.Failure == nil && r.Solution != nil && r.Solution.Feasible
}

// BenchmarkResult maps every requested solver to a solution or a failure
// record for one instance run. Entries keep adapter invocation order, which
// is the registry's registration order.
type BenchmarkResult struct {
	RunID        string        `json:"run_id"`
	InstanceName string        `json:"instance_name"`
	TimeLimit    time.Duration `json:"time_limit"`
	StartedAt    time.Time     `json:"started_at"`
	Entries      []SolverRun   `json:"entries"`
}

// Entry returns the run recorded for the named solver.
func (b *BenchmarkResult) Entry(solver string) (*SolverRun, bool) {
	for i := range b.Entries {
		if b.Entries[i].Solver == solver {
			return &b.Entries[i], true
		}
	}
	return nil, false
}

// Succeeded counts entries with feasible solutions.
func (b *BenchmarkResult) Succeeded() int {
	n := 0
	for i := range b.Entries {
		if b.Entries[i].Succeeded() {
			n++
		}
	}
	return n
}

// ComparisonReport ranks the feasible solutions of one benchmark run.
// BestSolver is empty when no solution was feasible; Gaps holds each
// solver's relative gap to the best distance, nil when the gap is undefined
// (best distance of zero).
type ComparisonReport struct {
	InstanceName string              `json:"instance_name"`
	BestSolver   string              `json:"best_solver,omitempty"`
	BestDistance float64             `json:"best_distance,omitempty"`
	Gaps         map[string]*float64 `json:"gaps,omitempty"`
	Attempted    int                 `json:"attempted"`
	Succeeded    int                 `json:"succeeded"`
	Failures     map[string]string   `json:"failures,omitempty"`
}

// SolverSummary aggregates one solver's results across many benchmark runs.
type SolverSummary struct {
	Solver       string        `json:"solver"`
	Attempted    int           `json:"attempted"`
	Succeeded    int           `json:"succeeded"`
	SuccessRate  float64       `json:"success_rate"`
	AvgSolveTime time.Duration `json:"avg_solve_time"`
	AvgDistance  float64       `json:"avg_distance"` // among feasible solutions
	BestDistance float64       `json:"best_distance,omitempty"`
}
