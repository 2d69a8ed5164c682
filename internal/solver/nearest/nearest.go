// Package nearest is a deterministic greedy baseline adapter. It minimizes
// immediate travel distance at each step and makes no attempt at global
// optimization; its value is as a fast, always-available reference point.
package nearest

import (
	"context"
	"fmt"
	"time"

	"vrpbench/internal/model"
	"vrpbench/internal/solver"
)

const solverName = "nearest-neighbor"

// Adapter implements solver.Adapter with a nearest-neighbor construction.
type Adapter struct{}

// New returns the baseline adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return solverName }

// Available always reports true: the engine is in-process and has no
// external requirements.
func (a *Adapter) Available() bool { return true }

// Solve builds one route per vehicle in vehicle-ID order, repeatedly
// appending the closest unrouted customer that still fits the vehicle's
// remaining capacity. Ties resolve to the lower location ID so output is
// deterministic. Time windows are not considered; on VRPTW instances the
// result may be reported infeasible by validation.
func (a *Adapter) Solve(ctx context.Context, inst *model.VRPInstance, timeLimit time.Duration, opts solver.Options) (*model.VRPSolution, error) {
	start := time.Now()

	index := make(map[int]int, len(inst.Locations))
	for i, loc := range inst.Locations {
		index[loc.ID] = i
	}
	depotIdx, ok := index[model.DepotID]
	if !ok {
		return nil, fmt.Errorf("nearest: instance has no depot")
	}

	remaining := make(map[int]model.Location, len(inst.Locations))
	for _, loc := range inst.Locations {
		if loc.ID != model.DepotID {
			remaining[loc.ID] = loc
		}
	}

	routes := make([]model.Route, 0, len(inst.Vehicles))
	for _, vehicle := range inst.Vehicles {
		if len(remaining) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("nearest: cancelled: %w", err)
		}

		stops := []int{model.DepotID}
		load := 0
		current := depotIdx
		for {
			next, found := closestFit(inst, index, remaining, current, vehicle.Capacity-load)
			if !found {
				break
			}
			stops = append(stops, next)
			load += remaining[next].Demand
			current = index[next]
			delete(remaining, next)
		}
		if len(stops) == 1 {
			continue // vehicle could not take any customer
		}
		stops = append(stops, model.DepotID)

		dist := stopsDistance(inst, index, stops)
		routes = append(routes, model.Route{
			VehicleID: vehicle.ID,
			Stops:     stops,
			Distance:  dist,
			Demand:    load,
			Duration:  dist + serviceTime(inst, stops),
		})
	}

	if len(remaining) > 0 {
		return nil, fmt.Errorf("nearest: %d customers do not fit the fleet capacity", len(remaining))
	}

	total := 0.0
	for i := range routes {
		total += routes[i].Distance
	}
	return &model.VRPSolution{
		InstanceName:  inst.Name,
		Solver:        solverName,
		Routes:        routes,
		TotalDistance: total,
		SolveTime:     time.Since(start),
		Feasible:      true,
		Status:        "FEASIBLE",
	}, nil
}

// closestFit picks the nearest remaining customer whose demand fits the
// available capacity, breaking distance ties on the lower location ID.
func closestFit(inst *model.VRPInstance, index map[int]int, remaining map[int]model.Location, from int, capacity int) (int, bool) {
	bestID := -1
	bestDist := 0.0
	for id, loc := range remaining {
		if loc.Demand > capacity {
			continue
		}
		d := inst.DistanceMatrix[from][index[id]]
		if bestID == -1 || d < bestDist || (d == bestDist && id < bestID) {
			bestID = id
			bestDist = d
		}
	}
	return bestID, bestID != -1
}

func stopsDistance(inst *model.VRPInstance, index map[int]int, stops []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(stops); i++ {
		total += inst.DistanceMatrix[index[stops[i]]][index[stops[i+1]]]
	}
	return total
}

func serviceTime(inst *model.VRPInstance, stops []int) float64 {
	total := 0.0
	for _, id := range stops {
		if loc, ok := inst.LocationByID(id); ok {
			total += loc.ServiceTime
		}
	}
	return total
}
