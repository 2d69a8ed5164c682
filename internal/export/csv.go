package export

import (
	"encoding/csv"
	"os"
	"strings"
	"time"

	"vrpbench/internal/model"
)

// WriteSolutionsCSV writes one row per solver attempt across the given
// benchmark results.
func WriteSolutionsCSV(path string, results []*model.BenchmarkResult) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"instance", "solver", "feasible",
		"distance", "vehicles_used", "routes",
		"solve_time_ms", "error",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		for i := range res.Entries {
			e := &res.Entries[i]
			row := []string{
				res.InstanceName,
				e.Solver,
				btoa(e.Succeeded()),
				"", "", "",
				ftoa(float64(e.Elapsed) / float64(time.Millisecond)),
				"",
			}
			if e.Solution != nil {
				row[3] = ftoa(e.Solution.TotalDistance)
				row[4] = itoa(e.Solution.VehiclesUsed())
				row[5] = itoa(len(e.Solution.Routes))
				if !e.Solution.Feasible {
					row[7] = e.Solution.Status
				}
			}
			if e.Failure != nil {
				row[7] = e.Failure.Message
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

// WriteRoutesCSV writes one row per route across the given solutions. Stops
// are space-separated location IDs including the depot endpoints.
func WriteRoutesCSV(path string, sols []*model.VRPSolution) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"instance", "solver", "vehicle_id",
		"stops", "distance", "demand", "duration",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, sol := range sols {
		for _, r := range sol.Routes {
			stops := make([]string, len(r.Stops))
			for i, id := range r.Stops {
				stops[i] = itoa(id)
			}
			row := []string{
				sol.InstanceName,
				sol.Solver,
				itoa(r.VehicleID),
				strings.Join(stops, " "),
				ftoa(r.Distance),
				itoa(r.Demand),
				ftoa(r.Duration),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

func createFile(path string) (*os.File, error) {
	if dir := dirOf(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
