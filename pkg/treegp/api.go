// Package treegp is the high-level client for running GP experiments and
// inspecting their persisted artifacts.
package treegp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treegp/internal/evo"
	"treegp/internal/model"
	"treegp/internal/problem"
	"treegp/internal/render"
	"treegp/internal/storage"
)

const defaultDBPath = "treegp.db"

// Options configure a client.
type Options struct {
	StoreKind string
	DBPath    string
	Logger    *zap.Logger
}

// Client runs experiments against a store.
type Client struct {
	store  storage.Store
	logger *zap.Logger
}

// RunRequest describes one evolution run. Zero values pick defaults.
type RunRequest struct {
	Problem       string
	Population    int
	Generations   int
	MaxDepth      int
	Seed          int64
	MutationRate  float64
	CrossoverRate float64
}

// RunSummary reports a finished run.
type RunSummary struct {
	RunID            string
	Problem          string
	Generations      int
	BestExpression   string
	BestFitness      float64
	BestByGeneration []float64
}

// ExportSummary reports where artifacts were written.
type ExportSummary struct {
	RunID     string
	Directory string
}

// New builds a client over the configured store backend.
func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, logger: logger}, nil
}

// Close releases the store.
func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the store backend.
func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Reset clears every stored run artifact.
func (c *Client) Reset(ctx context.Context) error {
	return c.store.Reset(ctx)
}

// Problems lists the registered problem names.
func (c *Client) Problems() []string {
	return problem.Names()
}

func (req *RunRequest) applyDefaults() {
	if req.Problem == "" {
		req.Problem = "function"
	}
	if req.Population <= 0 {
		req.Population = 100
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.MaxDepth <= 0 {
		req.MaxDepth = 10
	}
	if req.MutationRate == 0 && req.CrossoverRate == 0 {
		req.MutationRate = 0.1
		req.CrossoverRate = 0.895
	}
}

// Run executes one evolution run and persists its artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	req.applyDefaults()

	prob, err := problem.Resolve(req.Problem)
	if err != nil {
		return RunSummary{}, err
	}
	params, err := evo.NewParameters(req.Seed, req.MutationRate, req.CrossoverRate)
	if err != nil {
		return RunSummary{}, err
	}
	delegate, err := prob.NewDelegate(params)
	if err != nil {
		return RunSummary{}, err
	}
	init, err := prob.NewInitializer(params)
	if err != nil {
		return RunSummary{}, err
	}
	pop, err := evo.NewPopulation(evo.Config{
		Size:     req.Population,
		Params:   params,
		Delegate: delegate,
		Logger:   c.logger,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := pop.Initialize(req.MaxDepth, init); err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)
	c.logger.Info("starting run",
		zap.String("run_id", runID),
		zap.String("problem", req.Problem),
		zap.Int("population", req.Population),
		zap.Int("generations", req.Generations),
		zap.Int64("seed", req.Seed))

	history := make([]float64, 0, req.Generations)
	generationStats := make([]model.GenerationStats, 0, req.Generations)
	for gen := 0; gen < req.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}
		if _, err := pop.EvaluateGeneration(); err != nil {
			return RunSummary{}, err
		}
		stats := pop.GetStats()
		history = append(history, stats.BestFitness)
		generationStats = append(generationStats, model.GenerationStats{
			Generation:     pop.Generation(),
			AverageFitness: stats.AverageFitness,
			BestFitness:    stats.BestFitness,
			BestIndex:      stats.BestIndex,
		})
		if err := pop.NextGeneration(); err != nil {
			return RunSummary{}, err
		}
	}
	if _, err := pop.EvaluateGeneration(); err != nil {
		return RunSummary{}, err
	}
	finalStats := pop.GetStats()
	history = append(history, finalStats.BestFitness)
	generationStats = append(generationStats, model.GenerationStats{
		Generation:     pop.Generation(),
		AverageFitness: finalStats.AverageFitness,
		BestFitness:    finalStats.BestFitness,
		BestIndex:      finalStats.BestIndex,
	})

	best := pop.Individual(finalStats.BestIndex)
	var printerDelegate render.PrinterDelegate
	if provider, ok := delegate.(evo.PrinterProvider); ok {
		printerDelegate = provider.PrinterDelegate()
	}
	expression, err := render.NewPrinter(prob.Grammar(), printerDelegate).Sprint(best)
	if err != nil {
		return RunSummary{}, fmt.Errorf("render best individual: %w", err)
	}

	run := model.RunRecord{
		VersionedRecord: storage.Stamp(),
		ID:              runID,
		Problem:         req.Problem,
		Seed:            req.Seed,
		Population:      req.Population,
		Generations:     req.Generations,
		MaxDepth:        req.MaxDepth,
		MutationRate:    req.MutationRate,
		CrossoverRate:   req.CrossoverRate,
		CreatedAtUTC:    createdAt,
		FinalBest:       finalStats.BestFitness,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return RunSummary{}, fmt.Errorf("save fitness history %s: %w", runID, err)
	}
	if err := c.store.SaveGenerationStats(ctx, runID, generationStats); err != nil {
		return RunSummary{}, fmt.Errorf("save generation stats %s: %w", runID, err)
	}
	if err := c.store.SaveBestGenome(ctx, model.BestGenome{
		VersionedRecord: storage.Stamp(),
		RunID:           runID,
		Expression:      expression,
		NodeCount:       best.NodeCount(),
		Fitness:         finalStats.BestFitness,
	}); err != nil {
		return RunSummary{}, fmt.Errorf("save best genome %s: %w", runID, err)
	}

	c.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.Float64("best_fitness", finalStats.BestFitness),
		zap.Int("best_nodes", best.NodeCount()))

	return RunSummary{
		RunID:            runID,
		Problem:          req.Problem,
		Generations:      pop.Generation(),
		BestExpression:   expression,
		BestFitness:      finalStats.BestFitness,
		BestByGeneration: history,
	}, nil
}

// Runs lists stored runs, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx, limit)
}

// FitnessHistory returns the per-generation best fitness of a run. An empty
// runID selects the latest run.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, error) {
	id, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fitness history for run %s", id)
	}
	return history, nil
}

// GenerationStats returns the per-generation summaries of a run.
func (c *Client) GenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, error) {
	id, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	stats, ok, err := c.store.GetGenerationStats(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no generation stats for run %s", id)
	}
	return stats, nil
}

// Best returns the winning individual of a run.
func (c *Client) Best(ctx context.Context, runID string) (model.BestGenome, error) {
	id, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return model.BestGenome{}, err
	}
	best, ok, err := c.store.GetBestGenome(ctx, id)
	if err != nil {
		return model.BestGenome{}, err
	}
	if !ok {
		return model.BestGenome{}, fmt.Errorf("no best genome for run %s", id)
	}
	return best, nil
}

// Export writes a run's artifacts as JSON files under outDir.
func (c *Client) Export(ctx context.Context, runID, outDir string) (ExportSummary, error) {
	id, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	run, ok, err := c.store.GetRun(ctx, id)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("unknown run %s", id)
	}

	dir := filepath.Join(outDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportSummary{}, err
	}
	if err := writeJSON(filepath.Join(dir, "run.json"), run); err != nil {
		return ExportSummary{}, err
	}
	if history, ok, err := c.store.GetFitnessHistory(ctx, id); err != nil {
		return ExportSummary{}, err
	} else if ok {
		if err := writeJSON(filepath.Join(dir, "fitness.json"), history); err != nil {
			return ExportSummary{}, err
		}
	}
	if stats, ok, err := c.store.GetGenerationStats(ctx, id); err != nil {
		return ExportSummary{}, err
	} else if ok {
		if err := writeJSON(filepath.Join(dir, "generations.json"), stats); err != nil {
			return ExportSummary{}, err
		}
	}
	if best, ok, err := c.store.GetBestGenome(ctx, id); err != nil {
		return ExportSummary{}, err
	} else if ok {
		if err := writeJSON(filepath.Join(dir, "best.json"), best); err != nil {
			return ExportSummary{}, err
		}
	}
	return ExportSummary{RunID: id, Directory: dir}, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	runs, err := c.store.ListRuns(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs stored")
	}
	return runs[0].ID, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
