package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts "30s" style values in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Config drives a benchmark run. It can come from a YAML file or be
// assembled from command-line flags.
type Config struct {
	TimeLimit     Duration       `yaml:"time_limit"`
	Seed          int64          `yaml:"seed"`
	Solvers       []string       `yaml:"solvers"`
	Instances     []InstanceSpec `yaml:"instances"`
	InstanceFiles []string       `yaml:"instance_files"`
	ImportReport  string         `yaml:"import_report"`
	Options       map[string]any `yaml:"options"`
	Output        OutputConfig   `yaml:"output"`
	MetricsAddr   string         `yaml:"metrics_addr"`
	RatePerSec    float64        `yaml:"rate_per_sec"`
}

// InstanceSpec describes one generated instance.
type InstanceSpec struct {
	Name        string `yaml:"name"`
	Customers   int    `yaml:"customers"`
	Layout      string `yaml:"layout"` // uniform or clustered
	Seed        int64  `yaml:"seed"`
	TimeWindows bool   `yaml:"time_windows"`
	Vehicles    int    `yaml:"vehicles"`
	Capacity    int    `yaml:"capacity"`
}

// OutputConfig names the export targets. Empty paths disable an export.
type OutputConfig struct {
	JSON         string `yaml:"json"`
	SolutionsCSV string `yaml:"solutions_csv"`
	RoutesCSV    string `yaml:"routes_csv"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// parseInstanceList turns "uniform:20,clustered:30" into instance specs named
// after their layout and size.
func parseInstanceList(s string, baseSeed int64) ([]InstanceSpec, error) {
	var specs []InstanceSpec
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		layout, sizeStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("instance %q: want layout:customers", part)
		}
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("instance %q: bad customer count", part)
		}
		specs = append(specs, InstanceSpec{
			Name:      fmt.Sprintf("%s-%d", layout, size),
			Customers: size,
			Layout:    layout,
			Seed:      baseSeed + int64(i),
		})
	}
	return specs, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
