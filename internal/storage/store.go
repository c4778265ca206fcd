package storage

import (
	"context"

	"treegp/internal/model"
)

// Store persists run artifacts: run metadata, per-generation statistics,
// fitness history and the winning individual.
type Store interface {
	Init(ctx context.Context) error
	// Reset drops every stored artifact, leaving an initialized store.
	Reset(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationStats(ctx context.Context, runID string, stats []model.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, bool, error)
	SaveBestGenome(ctx context.Context, best model.BestGenome) error
	GetBestGenome(ctx context.Context, runID string) (model.BestGenome, bool, error)
}
