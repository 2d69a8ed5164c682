package bench

import (
	"fmt"

	"vrpbench/internal/model"
)

// Compare ranks the feasible solutions of one benchmark run by total
// distance. Ties break on solve time, then lexicographically on solver name,
// so the winner is deterministic for identical inputs. Gaps are relative to
// the best distance; a gap is nil when the best distance is zero. Entries
// without a feasible solution appear in Failures with a reason.
func Compare(res *model.BenchmarkResult) *model.ComparisonReport {
	report := &model.ComparisonReport{
		InstanceName: res.InstanceName,
		Attempted:    len(res.Entries),
		Succeeded:    res.Succeeded(),
	}

	var best *model.SolverRun
	for i := range res.Entries {
		e := &res.Entries[i]
		if !e.Succeeded() {
			if report.Failures == nil {
				report.Failures = map[string]string{}
			}
			report.Failures[e.Solver] = failureReason(e)
			continue
		}
		if best == nil || better(e, best) {
			best = e
		}
	}
	if best == nil {
		return report
	}

	report.BestSolver = best.Solver
	report.BestDistance = best.Solution.TotalDistance
	report.Gaps = map[string]*float64{}
	for i := range res.Entries {
		e := &res.Entries[i]
		if !e.Succeeded() {
			continue
		}
		if report.BestDistance == 0 {
			report.Gaps[e.Solver] = nil
			continue
		}
		gap := (e.Solution.TotalDistance - report.BestDistance) / report.BestDistance
		report.Gaps[e.Solver] = &gap
	}
	return report
}

// better reports whether a beats b under the (distance, solve time, name)
// ordering.
func better(a, b *model.SolverRun) bool {
	if a.Solution.TotalDistance != b.Solution.TotalDistance {
		return a.Solution.TotalDistance < b.Solution.TotalDistance
	}
	if a.Elapsed != b.Elapsed {
		return a.Elapsed < b.Elapsed
	}
	return a.Solver < b.Solver
}

func failureReason(e *model.SolverRun) string {
	switch {
	case e.Failure != nil:
		return e.Failure.Message
	case e.Solution != nil:
		return e.Solution.Status
	default:
		return fmt.Sprintf("solver %s produced no result", e.Solver)
	}
}
