// Package validate checks instances for structural well-formedness and
// solutions for feasibility. All checks are pure: malformed input is a
// normal, reportable outcome, never a panic.
package validate

import (
	"fmt"
	"math"

	"vrpbench/internal/model"
)

// Instance returns the list of structural violations for an instance. An
// empty list means the instance is valid and may be handed to solvers.
func Instance(in *model.VRPInstance) []string {
	var violations []string
	if in == nil {
		return []string{"instance is nil"}
	}
	if in.Name == "" {
		violations = append(violations, "instance name is empty")
	}
	if len(in.Locations) == 0 {
		violations = append(violations, "instance has no locations")
		return violations
	}

	seenLoc := make(map[int]bool, len(in.Locations))
	depotFound := false
	for _, loc := range in.Locations {
		if seenLoc[loc.ID] {
			violations = append(violations, fmt.Sprintf("duplicate location id %d", loc.ID))
		}
		seenLoc[loc.ID] = true
		if loc.Demand < 0 {
			violations = append(violations, fmt.Sprintf("location %d has negative demand %d", loc.ID, loc.Demand))
		}
		if loc.ServiceTime < 0 {
			violations = append(violations, fmt.Sprintf("location %d has negative service time", loc.ID))
		}
		if tw := loc.TimeWindow; tw != nil && tw.Latest < tw.Earliest {
			violations = append(violations, fmt.Sprintf("location %d time window ends before it starts", loc.ID))
		}
		if loc.ID == model.DepotID {
			depotFound = true
			if loc.Demand != 0 {
				violations = append(violations, fmt.Sprintf("depot demand must be 0 (got %d)", loc.Demand))
			}
		}
	}
	if !depotFound {
		violations = append(violations, fmt.Sprintf("no depot found (location with id %d)", model.DepotID))
	}

	if len(in.Vehicles) == 0 {
		violations = append(violations, "instance has no vehicles")
	}
	seenVeh := make(map[int]bool, len(in.Vehicles))
	for _, v := range in.Vehicles {
		if seenVeh[v.ID] {
			violations = append(violations, fmt.Sprintf("duplicate vehicle id %d", v.ID))
		}
		seenVeh[v.ID] = true
		if v.Capacity <= 0 {
			violations = append(violations, fmt.Sprintf("vehicle %d capacity must be positive (got %d)", v.ID, v.Capacity))
		}
		if v.MaxDuration < 0 {
			violations = append(violations, fmt.Sprintf("vehicle %d has negative max duration", v.ID))
		}
	}

	violations = append(violations, matrixViolations(in)...)
	return violations
}

func matrixViolations(in *model.VRPInstance) []string {
	var violations []string
	n := len(in.Locations)
	if len(in.DistanceMatrix) != n {
		violations = append(violations, fmt.Sprintf("distance matrix has %d rows, want %d", len(in.DistanceMatrix), n))
		return violations
	}
	for i, row := range in.DistanceMatrix {
		if len(row) != n {
			violations = append(violations, fmt.Sprintf("distance matrix row %d has %d columns, want %d", i, len(row), n))
			continue
		}
		if row[i] != 0 {
			violations = append(violations, fmt.Sprintf("distance matrix diagonal [%d][%d] must be 0 (got %g)", i, i, row[i]))
		}
		for j, d := range row {
			if d < 0 {
				violations = append(violations, fmt.Sprintf("distance matrix [%d][%d] is negative (%g)", i, j, d))
			}
			if math.IsNaN(d) || math.IsInf(d, 0) {
				violations = append(violations, fmt.Sprintf("distance matrix [%d][%d] is not finite", i, j))
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if in.DistanceMatrix[i][j] != in.DistanceMatrix[j][i] {
				violations = append(violations, fmt.Sprintf("distance matrix is asymmetric at [%d][%d]", i, j))
			}
		}
	}
	return violations
}

// LikelyInfeasible reports whether total demand exceeds total fleet
// capacity. Such instances are legal but no solution can cover every
// customer, so benchmark reports flag them up front.
func LikelyInfeasible(in *model.VRPInstance) bool {
	return in.TotalDemand() > in.TotalCapacity()
}
