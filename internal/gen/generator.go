// Package gen builds reproducible sample instances for benchmarking.
// All randomness comes from an explicit seed; there is no process-wide
// random state, so the same seed always yields the same instance.
package gen

import (
	"fmt"
	"math"
	"math/rand"

	"vrpbench/internal/model"
)

// Layout selects the spatial distribution of generated customers.
type Layout string

const (
	Uniform   Layout = "uniform"
	Clustered Layout = "clustered"
)

// Params controls instance generation. Zero values fall back to defaults
// mirroring the common benchmarking setup.
type Params struct {
	AreaSize        float64
	NumVehicles     int
	VehicleCapacity int
	DemandMin       int
	DemandMax       int
	ServiceMin      float64
	ServiceMax      float64

	// Clustered layout only.
	NumClusters   int
	ClusterRadius float64

	// TimeWindows adds a service window to every customer and gives the
	// depot the full working day.
	TimeWindows bool
	// WindowSize is the width of each customer window when TimeWindows is
	// set. DayStart/DayEnd bound the working day.
	WindowSize float64
	DayStart   float64
	DayEnd     float64
}

func (p *Params) applyDefaults() {
	if p.AreaSize <= 0 {
		p.AreaSize = 100
	}
	if p.NumVehicles <= 0 {
		p.NumVehicles = 3
	}
	if p.VehicleCapacity <= 0 {
		p.VehicleCapacity = 50
	}
	if p.DemandMax <= 0 {
		p.DemandMin, p.DemandMax = 1, 20
	}
	if p.DemandMin <= 0 {
		p.DemandMin = 1
	}
	if p.ServiceMax <= 0 {
		p.ServiceMin, p.ServiceMax = 5, 15
	}
	if p.NumClusters <= 0 {
		p.NumClusters = 3
	}
	if p.ClusterRadius <= 0 {
		p.ClusterRadius = 15
	}
	if p.WindowSize <= 0 {
		p.WindowSize = 60
	}
	if p.DayEnd <= 0 {
		p.DayStart, p.DayEnd = 480, 1080
	}
}

// Sample generates a reproducible randomized instance. The depot sits at the
// center of the area with zero demand; customer placement follows layout.
func Sample(name string, customers int, layout Layout, seed int64, params Params) (*model.VRPInstance, error) {
	if name == "" {
		return nil, fmt.Errorf("gen: instance name must be non-empty")
	}
	if customers <= 0 {
		return nil, fmt.Errorf("gen: customer count must be > 0 (got %d)", customers)
	}
	params.applyDefaults()
	rng := rand.New(rand.NewSource(seed))

	depot := model.Location{ID: model.DepotID, X: params.AreaSize / 2, Y: params.AreaSize / 2}
	locations := []model.Location{depot}

	switch layout {
	case Uniform:
		for id := 1; id <= customers; id++ {
			locations = append(locations, model.Location{
				ID:          id,
				X:           rng.Float64() * params.AreaSize,
				Y:           rng.Float64() * params.AreaSize,
				Demand:      intBetween(rng, params.DemandMin, params.DemandMax),
				ServiceTime: floatBetween(rng, params.ServiceMin, params.ServiceMax),
			})
		}
	case Clustered:
		locations = append(locations, clusteredCustomers(rng, customers, params)...)
	default:
		return nil, fmt.Errorf("gen: unknown layout %q", layout)
	}

	if params.TimeWindows {
		addTimeWindows(rng, locations, params)
	}

	vehicles := make([]model.Vehicle, 0, params.NumVehicles)
	for i := 0; i < params.NumVehicles; i++ {
		vehicles = append(vehicles, model.Vehicle{ID: i, Capacity: params.VehicleCapacity})
	}

	return &model.VRPInstance{
		Name:           name,
		Locations:      locations,
		Vehicles:       vehicles,
		DistanceMatrix: model.BuildDistanceMatrix(locations, nil),
	}, nil
}

// clusteredCustomers places customers around randomly drawn cluster centers
// with bounded jitter, splitting the remainder across the first clusters.
func clusteredCustomers(rng *rand.Rand, customers int, params Params) []model.Location {
	centers := make([][2]float64, params.NumClusters)
	for i := range centers {
		centers[i][0] = params.ClusterRadius + rng.Float64()*(params.AreaSize-2*params.ClusterRadius)
		centers[i][1] = params.ClusterRadius + rng.Float64()*(params.AreaSize-2*params.ClusterRadius)
	}

	perCluster := customers / params.NumClusters
	remainder := customers % params.NumClusters

	out := make([]model.Location, 0, customers)
	id := 1
	for ci, center := range centers {
		size := perCluster
		if ci < remainder {
			size++
		}
		for k := 0; k < size; k++ {
			angle := rng.Float64() * 2 * math.Pi
			dist := rng.Float64() * params.ClusterRadius
			x := clamp(center[0]+dist*math.Cos(angle), 0, params.AreaSize)
			y := clamp(center[1]+dist*math.Sin(angle), 0, params.AreaSize)
			out = append(out, model.Location{
				ID:          id,
				X:           x,
				Y:           y,
				Demand:      intBetween(rng, params.DemandMin, params.DemandMax),
				ServiceTime: floatBetween(rng, params.ServiceMin, params.ServiceMax),
			})
			id++
		}
	}
	return out
}

// addTimeWindows assigns each customer a window inside the working day and
// opens the depot for the whole day.
func addTimeWindows(rng *rand.Rand, locations []model.Location, params Params) {
	for i := range locations {
		loc := &locations[i]
		if loc.ID == model.DepotID {
			loc.TimeWindow = &model.TimeWindow{Earliest: params.DayStart, Latest: params.DayEnd}
			continue
		}
		latestStart := params.DayEnd - params.WindowSize - loc.ServiceTime
		if latestStart < params.DayStart {
			latestStart = params.DayStart
		}
		start := params.DayStart + rng.Float64()*(latestStart-params.DayStart)
		loc.TimeWindow = &model.TimeWindow{Earliest: start, Latest: start + params.WindowSize}
	}
}

func intBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func floatBetween(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
