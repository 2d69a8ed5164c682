package bench

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for bad references by name. Callers match them with
// errors.Is; the wrapped message carries the offending name.
var (
	ErrUnknownInstance = errors.New("unknown instance")
	ErrUnknownSolver   = errors.New("unknown solver")
)

// DuplicateInstanceError reports a registration under a name that already
// exists in the registry.
type DuplicateInstanceError struct {
	Name string
}

func (e *DuplicateInstanceError) Error() string {
	return fmt.Sprintf("instance %q already registered", e.Name)
}

// InvalidInstanceError reports structural violations found before any
// solver was allowed to run.
type InvalidInstanceError struct {
	Name       string
	Violations []string
}

func (e *InvalidInstanceError) Error() string {
	return fmt.Sprintf("instance %q is structurally invalid: %s", e.Name, strings.Join(e.Violations, "; "))
}
