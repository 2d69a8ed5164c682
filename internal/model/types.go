package model

import (
	"fmt"
	"time"
)

// DepotID is the conventional identifier of the depot location. Every route
// starts and ends there and its demand must be zero.
const DepotID = 0

// TimeWindow is the interval during which service at a location may begin.
// Units are the same abstract time units as the distance matrix.
type TimeWindow struct {
	Earliest float64 `json:"earliest"`
	Latest   float64 `json:"latest"`
}

// Location is one node of a routing instance. The location with ID 0 is the
// depot; all other locations are customers.
type Location struct {
	ID          int         `json:"id"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Demand      int         `json:"demand"`
	ServiceTime float64     `json:"service_time,omitempty"`
	TimeWindow  *TimeWindow `json:"time_window,omitempty"`
}

// Vehicle is one vehicle of the fleet. Capacity must be positive.
// MaxDuration of 0 means unconstrained.
type Vehicle struct {
	ID          int     `json:"id"`
	Capacity    int     `json:"capacity"`
	FixedCost   float64 `json:"fixed_cost,omitempty"`
	MaxDuration float64 `json:"max_duration,omitempty"`
}

// VRPInstance is a complete routing problem: locations, fleet, and the
// distance matrix aligned index-for-index with Locations. Instances are
// treated as read-only once registered with an orchestrator, so concurrent
// reads by multiple adapters are safe.
type VRPInstance struct {
	Name           string      `json:"name"`
	Locations      []Location  `json:"locations"`
	Vehicles       []Vehicle   `json:"vehicles"`
	DistanceMatrix [][]float64 `json:"distance_matrix"`
}

// NumCustomers returns the number of non-depot locations.
func (in *VRPInstance) NumCustomers() int {
	n := 0
	for _, loc := range in.Locations {
		if loc.ID != DepotID {
			n++
		}
	}
	return n
}

// TotalDemand sums customer demand across the instance.
func (in *VRPInstance) TotalDemand() int {
	total := 0
	for _, loc := range in.Locations {
		if loc.ID != DepotID {
			total += loc.Demand
		}
	}
	return total
}

// TotalCapacity sums the capacity of the fleet.
func (in *VRPInstance) TotalCapacity() int {
	total := 0
	for _, v := range in.Vehicles {
		total += v.Capacity
	}
	return total
}

// LocationByID returns the location with the given identifier.
func (in *VRPInstance) LocationByID(id int) (Location, bool) {
	for _, loc := range in.Locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return Location{}, false
}

// VehicleByID returns the vehicle with the given identifier.
func (in *VRPInstance) VehicleByID(id int) (Vehicle, bool) {
	for _, v := range in.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// Route is one vehicle's tour. Stops holds location IDs and must begin and
// end at the depot.
type Route struct {
	VehicleID int     `json:"vehicle_id"`
	Stops     []int   `json:"stops"`
	Distance  float64 `json:"distance"`
	Demand    int     `json:"demand"`
	Duration  float64 `json:"duration,omitempty"`
}

// Customers returns the visited location IDs without the depot endpoints.
func (r *Route) Customers() []int {
	out := make([]int, 0, len(r.Stops))
	for _, id := range r.Stops {
		if id != DepotID {
			out = append(out, id)
		}
	}
	return out
}

// StartsAndEndsAtDepot reports whether the route is structurally closed.
func (r *Route) StartsAndEndsAtDepot() bool {
	return len(r.Stops) >= 2 && r.Stops[0] == DepotID && r.Stops[len(r.Stops)-1] == DepotID
}

// VRPSolution is what a solver adapter returns for one instance.
type VRPSolution struct {
	InstanceName  string        `json:"instance_name"`
	Solver        string        `json:"solver"`
	Routes        []Route       `json:"routes"`
	TotalDistance float64       `json:"total_distance"`
	SolveTime     time.Duration `json:"solve_time"`
	Feasible      bool          `json:"feasible"`
	Status        string        `json:"status,omitempty"`
}

// VehiclesUsed counts routes that visit at least one customer.
func (s *VRPSolution) VehiclesUsed() int {
	n := 0
	for i := range s.Routes {
		if len(s.Routes[i].Customers()) > 0 {
			n++
		}
	}
	return n
}

// Summary formats a one-line description of the solution.
func (s *VRPSolution) Summary() string {
	return fmt.Sprintf("%s: %.2f (%d routes, %s)", s.Solver, s.TotalDistance, len(s.Routes), s.SolveTime)
}

// RouteDistance computes the travelled distance of a stop sequence. Stops are
// row and column indices into the matrix, not location IDs; callers holding
// non-contiguous IDs must map them to matrix positions first.
func RouteDistance(stops []int, matrix [][]float64) float64 {
	total := 0.0
	for i := 0; i+1 < len(stops); i++ {
		total += matrix[stops[i]][stops[i+1]]
	}
	return total
}
