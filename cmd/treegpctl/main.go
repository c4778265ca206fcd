// Command treegpctl runs GP experiments and inspects stored run artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"treegp/internal/logging"
	"treegp/internal/storage"
	treegpapi "treegp/pkg/treegp"
)

const defaultExportsDir = "exports"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "problems":
		return runProblems(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(message string) error {
	return fmt.Errorf(`%s

usage: treegpctl <command> [flags]

commands:
  init      initialize the artifact store
  reset     clear all stored run artifacts
  run       execute an evolution run
  runs      list stored runs
  fitness   print a run's best-fitness history
  best      print a run's winning individual
  export    write a run's artifacts as JSON
  problems  list the available problems`, message)
}

func storeFlags(fs *flag.FlagSet) (storeKind, dbPath *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", "treegp.db", "sqlite database path")
	return storeKind, dbPath
}

func newClient(storeKind, dbPath, logLevel string) (*treegpapi.Client, func(), error) {
	logger, err := logging.New(logging.Config{Level: logLevel})
	if err != nil {
		return nil, nil, err
	}
	client, err := treegpapi.New(treegpapi.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		Logger:    logger,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
		_ = logger.Sync()
	}
	return client, cleanup, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cleanup, err := newClient(*storeKind, *dbPath, "info")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cleanup, err := newClient(*storeKind, *dbPath, "info")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.Init(ctx); err != nil {
		return err
	}
	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	configPath := fs.String("config", "", "run config file (json or yaml)")
	problemName := fs.String("problem", "", "problem to run")
	population := fs.Int("population", 0, "population size")
	generations := fs.Int("generations", 0, "generation count")
	maxDepth := fs.Int("max-depth", 0, "initial tree depth limit")
	seed := fs.Int64("seed", 0, "RNG seed")
	mutationRate := fs.Float64("mutation-rate", 0, "subtree mutation rate")
	crossoverRate := fs.Float64("crossover-rate", 0, "subtree crossover rate")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req treegpapi.RunRequest
	if *configPath != "" {
		loaded, err := loadRunRequest(*configPath)
		if err != nil {
			return err
		}
		req = loaded
	}
	if *problemName != "" {
		req.Problem = *problemName
	}
	if *population != 0 {
		req.Population = *population
	}
	if *generations != 0 {
		req.Generations = *generations
	}
	if *maxDepth != 0 {
		req.MaxDepth = *maxDepth
	}
	if *seed != 0 {
		req.Seed = *seed
	}
	if *mutationRate != 0 {
		req.MutationRate = *mutationRate
	}
	if *crossoverRate != 0 {
		req.CrossoverRate = *crossoverRate
	}

	client, cleanup, err := newClient(*storeKind, *dbPath, *logLevel)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.Init(ctx); err != nil {
		return err
	}

	started := time.Now()
	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	fmt.Printf("run %s finished in %s\n", summary.RunID, elapsed.Round(time.Millisecond))
	fmt.Printf("problem:       %s\n", summary.Problem)
	fmt.Printf("generations:   %s\n", humanize.Comma(int64(summary.Generations)))
	fmt.Printf("best fitness:  %g\n", summary.BestFitness)
	fmt.Printf("best program:  %s\n", summary.BestExpression)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cleanup, err := newClient(*storeKind, *dbPath, "warn")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.Init(ctx); err != nil {
		return err
	}
	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs stored")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %-14s seed=%-12d pop=%-6s gens=%-6s best=%g\n",
			run.CreatedAtUTC, run.Problem, run.Seed,
			humanize.Comma(int64(run.Population)),
			humanize.Comma(int64(run.Generations)),
			run.FinalBest)
		fmt.Printf("  %s\n", run.ID)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run", "", "run id (defaults to the latest run)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cleanup, err := newClient(*storeKind, *dbPath, "warn")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.Init(ctx); err != nil {
		return err
	}
	history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	for gen, best := range history {
		fmt.Printf("%d\t%g\n", gen, best)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run", "", "run id (defaults to the latest run)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cleanup, err := newClient(*storeKind, *dbPath, "warn")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.Init(ctx); err != nil {
		return err
	}
	best, err := client.Best(ctx, *runID)
	if err != nil {
		return err
	}
	fmt.Printf("run:      %s\n", best.RunID)
	fmt.Printf("fitness:  %g\n", best.Fitness)
	fmt.Printf("nodes:    %s\n", humanize.Comma(int64(best.NodeCount)))
	fmt.Printf("program:  %s\n", best.Expression)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run", "", "run id (defaults to the latest run)")
	outDir := fs.String("out", defaultExportsDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cleanup, err := newClient(*storeKind, *dbPath, "warn")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.Init(ctx); err != nil {
		return err
	}
	summary, err := client.Export(ctx, *runID, *outDir)
	if err != nil {
		return err
	}
	fmt.Printf("exported run %s to %s\n", summary.RunID, summary.Directory)
	return nil
}

func runProblems(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("problems", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cleanup, err := newClient("memory", "", "warn")
	if err != nil {
		return err
	}
	defer cleanup()

	for _, name := range client.Problems() {
		fmt.Println(name)
	}
	return nil
}
