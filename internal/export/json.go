// Package export serializes instances, solutions and benchmark reports to
// JSON and CSV. JSON round trips are lossless: every field of the data model
// survives a marshal/unmarshal cycle.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"vrpbench/internal/buildinfo"
	"vrpbench/internal/model"
)

// Meta stamps an export with provenance.
type Meta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"version"`
	Commit      string    `json:"commit,omitempty"`
	BuiltAt     string    `json:"built_at,omitempty"`
}

// Report is the full benchmark export for one or more instances.
type Report struct {
	Meta        Meta                      `json:"meta"`
	Instances   []*model.VRPInstance      `json:"instances,omitempty"`
	Results     []*model.BenchmarkResult  `json:"results,omitempty"`
	Comparisons []*model.ComparisonReport `json:"comparisons,omitempty"`
	Summary     []model.SolverSummary     `json:"summary,omitempty"`
}

// NewReport returns an empty report stamped with the current build.
func NewReport() *Report {
	info := buildinfo.Info()
	return &Report{Meta: Meta{
		GeneratedAt: time.Now().UTC(),
		Version:     info["version"],
		Commit:      info["commit"],
		BuiltAt:     info["built_at"],
	}}
}

// MarshalInstance encodes an instance as indented JSON.
func MarshalInstance(inst *model.VRPInstance) ([]byte, error) {
	return json.MarshalIndent(inst, "", "  ")
}

// UnmarshalInstance decodes an instance previously produced by
// MarshalInstance.
func UnmarshalInstance(data []byte) (*model.VRPInstance, error) {
	var inst model.VRPInstance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("export: decode instance: %w", err)
	}
	return &inst, nil
}

// MarshalSolution encodes a solution as indented JSON.
func MarshalSolution(sol *model.VRPSolution) ([]byte, error) {
	return json.MarshalIndent(sol, "", "  ")
}

// UnmarshalSolution decodes a solution previously produced by
// MarshalSolution.
func UnmarshalSolution(data []byte) (*model.VRPSolution, error) {
	var sol model.VRPSolution
	if err := json.Unmarshal(data, &sol); err != nil {
		return nil, fmt.Errorf("export: decode solution: %w", err)
	}
	return &sol, nil
}

// ReadInstance loads an instance from a JSON file written by
// MarshalInstance.
func ReadInstance(path string) (*model.VRPInstance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalInstance(data)
}

// ReadReport loads a report previously written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("export: decode report %s: %w", path, err)
	}
	return &r, nil
}

// WriteReport writes the report as indented JSON at path, creating parent
// directories as needed.
func WriteReport(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if dir := dirOf(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
