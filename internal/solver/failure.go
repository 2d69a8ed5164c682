package solver

import (
	"fmt"
	"time"
)

// Failure wraps anything that went wrong inside an adapter run: an engine
// error, a recovered panic, malformed output, or a cooperative timeout. The
// elapsed wall-clock time is recorded even on failure.
type Failure struct {
	Solver   string
	Err      error
	Elapsed  time.Duration
	TimedOut bool
}

func (f *Failure) Error() string {
	if f.TimedOut {
		return fmt.Sprintf("solver %s: timed out after %s: %v", f.Solver, f.Elapsed, f.Err)
	}
	return fmt.Sprintf("solver %s: %v", f.Solver, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure builds a failure record for the named solver.
func NewFailure(solver string, elapsed time.Duration, err error) *Failure {
	return &Failure{Solver: solver, Err: err, Elapsed: elapsed}
}
