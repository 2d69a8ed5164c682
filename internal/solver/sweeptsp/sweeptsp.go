// Package sweeptsp adapts the lvlath Christofides engine to the solver
// contract. Customers are partitioned into capacity-respecting clusters by a
// polar sweep around the depot, and each cluster's tour is delegated to
// tsp.TSPApprox on the cluster's sub-matrix.
package sweeptsp

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/katalvlaran/lvlath/tsp"

	"vrpbench/internal/model"
	"vrpbench/internal/solver"
)

const solverName = "sweep-christofides"

// Adapter implements solver.Adapter on top of lvlath's TSP engine.
type Adapter struct{}

// New returns the lvlath-backed adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return solverName }

// Available always reports true: lvlath is pure Go, compiled in.
func (a *Adapter) Available() bool { return true }

// Solve partitions customers by sweep and routes each cluster with
// Christofides. Recognized options: "matching" ("greedy" or "blossom").
// Unrecognized keys are ignored.
func (a *Adapter) Solve(ctx context.Context, inst *model.VRPInstance, timeLimit time.Duration, opts solver.Options) (*model.VRPSolution, error) {
	start := time.Now()

	matching := tsp.GreedyMatch
	if opts.String("matching", "greedy") == "blossom" {
		matching = tsp.BlossomMatch
	}

	index := make(map[int]int, len(inst.Locations))
	for i, loc := range inst.Locations {
		index[loc.ID] = i
	}
	depot, ok := inst.LocationByID(model.DepotID)
	if !ok {
		return nil, fmt.Errorf("sweeptsp: instance has no depot")
	}

	clusters, err := sweepPartition(inst, depot)
	if err != nil {
		return nil, err
	}

	routes := make([]model.Route, 0, len(clusters))
	for ci, cluster := range clusters {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sweeptsp: cancelled after %d of %d clusters: %w", ci, len(clusters), err)
		}

		stops, err := tourStops(inst, index, cluster.members, matching)
		if err != nil {
			return nil, fmt.Errorf("sweeptsp: cluster %d: %w", ci, err)
		}
		dist := model.RouteDistance(indices(index, stops), inst.DistanceMatrix)
		routes = append(routes, model.Route{
			VehicleID: cluster.vehicleID,
			Stops:     stops,
			Distance:  dist,
			Demand:    cluster.demand,
			Duration:  dist + serviceTime(inst, stops),
		})
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

type cluster struct {
	vehicleID int
	members   []int // location IDs, no depot
	demand    int
}

// sweepPartition orders customers by polar angle around the depot and fills
// vehicles in ID order until each one's capacity is exhausted. Angle ties
// resolve to the lower location ID for determinism.
func sweepPartition(inst *model.VRPInstance, depot model.Location) ([]cluster, error) {
	type polar struct {
		id     int
		angle  float64
		demand int
	}
	customers := make([]polar, 0, len(inst.Locations))
	for _, loc := range inst.Locations {
		if loc.ID == model.DepotID {
			continue
		}
		customers = append(customers, polar{
			id:     loc.ID,
			angle:  math.Atan2(loc.Y-depot.Y, loc.X-depot.X),
			demand: loc.Demand,
		})
	}
	sort.Slice(customers, func(i, j int) bool {
		if customers[i].angle != customers[j].angle {
			return customers[i].angle < customers[j].angle
		}
		return customers[i].id < customers[j].id
	})

	vehicles := append([]model.Vehicle(nil), inst.Vehicles...)
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })

	clusters := make([]cluster, 0, len(vehicles))
	ci := 0
	cur := cluster{vehicleID: vehicles[0].ID}
	for _, c := range customers {
		if cur.demand+c.demand > vehicles[ci].Capacity && len(cur.members) > 0 {
			clusters = append(clusters, cur)
			ci++
			if ci >= len(vehicles) {
				return nil, fmt.Errorf("sweeptsp: demand exceeds fleet capacity under sweep order")
			}
			cur = cluster{vehicleID: vehicles[ci].ID}
		}
		if c.demand > vehicles[ci].Capacity {
			return nil, fmt.Errorf("sweeptsp: customer %d demand %d exceeds vehicle %d capacity", c.id, c.demand, vehicles[ci].ID)
		}
		cur.members = append(cur.members, c.id)
		cur.demand += c.demand
	}
	if len(cur.members) > 0 {
		clusters = append(clusters, cur)
	}
	return clusters, nil
}

// tourStops routes depot + members with the external engine and maps the
// tour back to location IDs.
func tourStops(inst *model.VRPInstance, index map[int]int, members []int, matching tsp.MatchingAlgo) ([]int, error) {
	if len(members) == 1 {
		// Out-and-back; no engine call needed.
		return []int{model.DepotID, members[0], model.DepotID}, nil
	}

	// Sub-matrix over depot (index 0) followed by the cluster members.
	ids := append([]int{model.DepotID}, members...)
	n := len(ids)
	sub := make([][]float64, n)
	for i := range sub {
		sub[i] = make([]float64, n)
		for j := range sub[i] {
			sub[i][j] = inst.DistanceMatrix[index[ids[i]]][index[ids[j]]]
		}
	}

	res, err := tsp.TSPApprox(sub, tsp.Options{
		StartVertex:  0,
		MatchingAlgo: matching,
	})
	if err != nil {
		return nil, fmt.Errorf("christofides engine: %w", err)
	}
	if len(res.Tour) != n+1 {
		return nil, fmt.Errorf("christofides engine returned tour of length %d, want %d", len(res.Tour), n+1)
	}

	stops := make([]int, 0, len(res.Tour))
	for _, idx := range res.Tour {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("christofides engine returned out-of-range vertex %d", idx)
		}
		stops = append(stops, ids[idx])
	}
	return stops, nil
}

func indices(index map[int]int, stops []int) []int {
	out := make([]int, len(stops))
	for i, id := range stops {
		out[i] = index[id]
	}
	return out
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
