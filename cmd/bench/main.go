package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"vrpbench/internal/bench"
	"vrpbench/internal/buildinfo"
	"vrpbench/internal/events"
	"vrpbench/internal/export"
	"vrpbench/internal/gen"
	"vrpbench/internal/metrics"
	"vrpbench/internal/model"
	"vrpbench/internal/solver/nearest"
	"vrpbench/internal/solver/remote"
	"vrpbench/internal/solver/sweeptsp"
	"vrpbench/internal/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML benchmark config; flags below are ignored when set")
		instances   = flag.String("instances", "uniform:20,clustered:30", "comma-separated layout:customers pairs")
		loadFiles   = flag.String("load", "", "comma-separated instance JSON files to load")
		importPath  = flag.String("import", "", "report JSON whose instances and results seed the run history")
		solvers     = flag.String("solvers", "", "comma-separated solver names; empty runs all registered")
		timeLimit   = flag.Duration("time-limit", 30*time.Second, "per-solver time limit")
		seed        = flag.Int64("seed", 42, "base seed for instance generation")
		timeWindows = flag.Bool("time-windows", false, "generate customer time windows")
		outJSON     = flag.String("out-json", "", "write the full report as JSON to this path")
		outCSV      = flag.String("out-csv", "", "write per-solver rows as CSV to this path")
		routesCSV   = flag.String("routes-csv", "", "write per-route rows as CSV to this path")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
		ratePerSec  = flag.Float64("rate", 0, "max benchmark runs started per second; 0 is unpaced")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		info := buildinfo.Info()
		fmt.Printf("vrpbench %s commit=%s built=%s\n", info["version"], info["commit"], info["built_at"])
		return
	}

	// Optional .env, same as everywhere else in this codebase.
	_ = godotenv.Load()

	cfg, err := buildConfig(*configPath, *instances, *solvers, *timeLimit, *seed, *timeWindows, *ratePerSec)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *loadFiles != "" {
		cfg.InstanceFiles = append(cfg.InstanceFiles, splitList(*loadFiles)...)
	}
	if *importPath != "" {
		cfg.ImportReport = *importPath
	}
	if *outJSON != "" {
		cfg.Output.JSON = *outJSON
	}
	if *outCSV != "" {
		cfg.Output.SolutionsCSV = *outCSV
	}
	if *routesCSV != "" {
		cfg.Output.RoutesCSV = *routesCSV
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	if err := run(cfg); err != nil {
		log.Fatalf("bench: %v", err)
	}
}

func buildConfig(path, instances, solvers string, timeLimit time.Duration, seed int64, timeWindows bool, ratePerSec float64) (*Config, error) {
	if path != "" {
		return loadConfig(path)
	}
	specs, err := parseInstanceList(instances, seed)
	if err != nil {
		return nil, err
	}
	for i := range specs {
		specs[i].TimeWindows = timeWindows
	}
	return &Config{
		TimeLimit:  Duration(timeLimit),
		Seed:       seed,
		Solvers:    splitList(solvers),
		Instances:  specs,
		RatePerSec: ratePerSec,
	}, nil
}

func run(cfg *Config) error {
	ctx := context.Background()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	opts := []bench.Option{bench.WithLogger(logger)}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pg, err := store.NewPostgres(dsn)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pg.Close()
		opts = append(opts, bench.WithStore(pg))
		logger.Printf("using postgres store")
	} else {
		opts = append(opts, bench.WithStore(store.NewMemory()))
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		broker, err := events.NewRedisBroker(url)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		opts = append(opts, bench.WithBroker(broker))
		logger.Printf("publishing run events to redis")
	} else {
		opts = append(opts, bench.WithBroker(events.NewMemoryBroker()))
	}

	if cfg.RatePerSec > 0 {
		opts = append(opts, bench.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)))
	}

	o := bench.New(opts...)

	if err := o.RegisterSolver(nearest.New()); err != nil {
		return err
	}
	if err := o.RegisterSolver(sweeptsp.New()); err != nil {
		return err
	}
	if url := os.Getenv("REMOTE_SOLVER_URL"); url != "" {
		if err := o.RegisterSolver(remote.New(remote.Config{URL: url})); err != nil {
			return err
		}
	}

	metrics.RegisterDefault()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			logger.Printf("metrics listening on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Printf("metrics server: %v", err)
			}
		}()
	}

	if cfg.ImportReport != "" {
		rep, err := export.ReadReport(cfg.ImportReport)
		if err != nil {
			return err
		}
		n, err := o.ImportReport(ctx, rep)
		if err != nil {
			return err
		}
		logger.Printf("imported %d results from %s", n, cfg.ImportReport)
	}
	for _, path := range cfg.InstanceFiles {
		if _, err := o.LoadInstanceFromFile(ctx, path); err != nil {
			return err
		}
	}

	for _, spec := range cfg.Instances {
		if _, err := o.Instance(spec.Name); err == nil {
			// already present, e.g. loaded from an imported report
			continue
		}
		params := gen.Params{
			TimeWindows:     spec.TimeWindows,
			NumVehicles:     spec.Vehicles,
			VehicleCapacity: spec.Capacity,
		}
		seed := spec.Seed
		if seed == 0 {
			seed = cfg.Seed
		}
		if _, err := o.CreateSampleInstance(ctx, spec.Name, spec.Customers, gen.Layout(spec.Layout), seed, params); err != nil {
			return err
		}
	}

	results, err := o.RunFullBenchmark(ctx, nil, time.Duration(cfg.TimeLimit), cfg.Options, cfg.Solvers...)
	if err != nil {
		return err
	}

	report := export.NewReport()
	for _, name := range o.Instances() {
		res := results[name]
		if res == nil {
			continue
		}
		inst, _ := o.Instance(name)
		report.Instances = append(report.Instances, inst)
		report.Results = append(report.Results, res)
		cmp := bench.Compare(res)
		report.Comparisons = append(report.Comparisons, cmp)
		printComparison(cmp, res)
	}
	report.Summary = o.ResultsSummary()
	printSummary(report.Summary)

	if cfg.Output.JSON != "" {
		if err := export.WriteReport(cfg.Output.JSON, report); err != nil {
			return err
		}
		logger.Printf("wrote report to %s", cfg.Output.JSON)
	}
	if cfg.Output.SolutionsCSV != "" {
		if err := export.WriteSolutionsCSV(cfg.Output.SolutionsCSV, report.Results); err != nil {
			return err
		}
		logger.Printf("wrote solutions to %s", cfg.Output.SolutionsCSV)
	}
	if cfg.Output.RoutesCSV != "" {
		var sols []*model.VRPSolution
		for _, res := range report.Results {
			for i := range res.Entries {
				if s := res.Entries[i].Solution; s != nil && s.Feasible {
					sols = append(sols, s)
				}
			}
		}
		if err := export.WriteRoutesCSV(cfg.Output.RoutesCSV, sols); err != nil {
			return err
		}
		logger.Printf("wrote routes to %s", cfg.Output.RoutesCSV)
	}
	return nil
}

func printComparison(cmp *model.ComparisonReport, res *model.BenchmarkResult) {
	fmt.Printf("\n=== %s (%d/%d feasible) ===\n", cmp.InstanceName, cmp.Succeeded, cmp.Attempted)
	if cmp.BestSolver == "" {
		fmt.Println("no feasible solution")
		for solver, reason := range cmp.Failures {
			fmt.Printf("  %-24s %s\n", solver, reason)
		}
		return
	}
	names := make([]string, 0, len(cmp.Gaps))
	for name := range cmp.Gaps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry, _ := res.Entry(name)
		gap := "n/a"
		if g := cmp.Gaps[name]; g != nil {
			gap = fmt.Sprintf("%.2f%%", *g*100)
		}
		marker := " "
		if name == cmp.BestSolver {
			marker = "*"
		}
		fmt.Printf(" %s %-24s dist=%10.2f  gap=%-8s  time=%s\n",
			marker, name, entry.Solution.TotalDistance, gap, entry.Elapsed.Round(time.Millisecond))
	}
	for solver, reason := range cmp.Failures {
		fmt.Printf("   %-24s FAILED: %s\n", solver, reason)
	}
}

func printSummary(summary []model.SolverSummary) {
	if len(summary) == 0 {
		return
	}
	fmt.Printf("\n=== summary ===\n")
	for _, s := range summary {
		fmt.Printf("  %-24s %d/%d ok (%.0f%%)  avg_dist=%.2f  best=%.2f  avg_time=%s\n",
			s.Solver, s.Succeeded, s.Attempted, s.SuccessRate*100,
			s.AvgDistance, s.BestDistance, s.AvgSolveTime.Round(time.Millisecond))
	}
}
