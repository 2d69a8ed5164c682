package validate

import (
	"fmt"
	"sort"

	"vrpbench/internal/model"
)

// Solution checks a proposed solution against its instance and returns the
// feasibility verdict together with an ordered list of violations. The
// checks cover customer coverage, route structure, vehicle capacity and
// assignment, time windows, and max route duration.
func Solution(sol *model.VRPSolution, in *model.VRPInstance) (bool, []string) {
	var violations []string
	if sol == nil {
		return false, []string{"solution is nil"}
	}
	if in == nil {
		return false, []string{"instance is nil"}
	}
	if sol.InstanceName != in.Name {
		violations = append(violations, fmt.Sprintf("solution targets instance %q, not %q", sol.InstanceName, in.Name))
	}

	index := locationIndex(in)

	if len(sol.Routes) > len(in.Vehicles) {
		violations = append(violations, fmt.Sprintf("solution uses %d routes but only %d vehicles exist", len(sol.Routes), len(in.Vehicles)))
	}

	visited := map[int]int{} // customer id -> visit count
	usedVehicles := map[int]bool{}
	for ri := range sol.Routes {
		route := &sol.Routes[ri]
		violations = append(violations, routeViolations(route, in, index, visited, usedVehicles)...)
	}

	// Every customer must be visited exactly once across all routes.
	var missing []int
	for _, loc := range in.Locations {
		if loc.ID == model.DepotID {
			continue
		}
		switch visited[loc.ID] {
		case 0:
			missing = append(missing, loc.ID)
		case 1:
		default:
			violations = append(violations, fmt.Sprintf("customer %d visited %d times", loc.ID, visited[loc.ID]))
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		violations = append(violations, fmt.Sprintf("customers not visited: %v", missing))
	}

	return len(violations) == 0, violations
}

func routeViolations(route *model.Route, in *model.VRPInstance, index map[int]int, visited map[int]int, usedVehicles map[int]bool) []string {
	var violations []string

	vehicle, ok := in.VehicleByID(route.VehicleID)
	if !ok {
		violations = append(violations, fmt.Sprintf("route references unknown vehicle %d", route.VehicleID))
	} else if usedVehicles[route.VehicleID] {
		violations = append(violations, fmt.Sprintf("vehicle %d assigned to more than one route", route.VehicleID))
	}
	usedVehicles[route.VehicleID] = true

	if !route.StartsAndEndsAtDepot() {
		violations = append(violations, fmt.Sprintf("route for vehicle %d does not start and end at the depot", route.VehicleID))
	}

	demand := 0
	for pos, id := range route.Stops {
		if id == model.DepotID {
			if pos != 0 && pos != len(route.Stops)-1 {
				violations = append(violations, fmt.Sprintf("route for vehicle %d revisits the depot mid-route", route.VehicleID))
			}
			continue
		}
		loc, known := in.LocationByID(id)
		if !known {
			violations = append(violations, fmt.Sprintf("route for vehicle %d visits unknown location %d", route.VehicleID, id))
			continue
		}
		visited[id]++
		demand += loc.Demand
	}
	if ok && demand > vehicle.Capacity {
		violations = append(violations, fmt.Sprintf("route for vehicle %d demand %d exceeds capacity %d", route.VehicleID, demand, vehicle.Capacity))
	}

	elapsed, twViolations := propagateArrivals(route, in, index)
	violations = append(violations, twViolations...)
	if ok && vehicle.MaxDuration > 0 && elapsed > vehicle.MaxDuration {
		violations = append(violations, fmt.Sprintf("route for vehicle %d duration %.2f exceeds max %.2f", route.VehicleID, elapsed, vehicle.MaxDuration))
	}

	return violations
}

// propagateArrivals walks the route accumulating travel and service time,
// waiting when arriving before a window opens. It returns total elapsed
// time and any window violations.
func propagateArrivals(route *model.Route, in *model.VRPInstance, index map[int]int) (float64, []string) {
	var violations []string
	t := 0.0
	if len(route.Stops) == 0 {
		return 0, nil
	}
	if depot, ok := in.LocationByID(model.DepotID); ok && depot.TimeWindow != nil {
		t = depot.TimeWindow.Earliest
	}
	prev, ok := index[route.Stops[0]]
	if !ok {
		return 0, nil
	}
	start := t
	for _, id := range route.Stops[1:] {
		cur, known := index[id]
		if !known {
			continue // reported by routeViolations already
		}
		t += in.DistanceMatrix[prev][cur]
		loc := in.Locations[cur]
		if tw := loc.TimeWindow; tw != nil {
			if t < tw.Earliest {
				t = tw.Earliest // wait for the window to open
			}
			if t > tw.Latest {
				violations = append(violations, fmt.Sprintf(
					"route for vehicle %d arrives at location %d at %.2f, after window [%.2f, %.2f]",
					route.VehicleID, id, t, tw.Earliest, tw.Latest))
			}
		}
		t += loc.ServiceTime
		prev = cur
	}
	return t - start, violations
}

// locationIndex maps location IDs to their position in the Locations slice,
// which is the index used by the distance matrix.
func locationIndex(in *model.VRPInstance) map[int]int {
	idx := make(map[int]int, len(in.Locations))
	for i, loc := range in.Locations {
		idx[loc.ID] = i
	}
	return idx
}
