package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	treegpapi "treegp/pkg/treegp"
)

// runConfig is the on-disk shape of a run request.
type runConfig struct {
	Problem       string  `json:"problem" yaml:"problem"`
	Population    int     `json:"population" yaml:"population"`
	Generations   int     `json:"generations" yaml:"generations"`
	MaxDepth      int     `json:"max_depth" yaml:"max_depth"`
	Seed          int64   `json:"seed" yaml:"seed"`
	MutationRate  float64 `json:"mutation_rate" yaml:"mutation_rate"`
	CrossoverRate float64 `json:"crossover_rate" yaml:"crossover_rate"`
}

// loadRunRequest reads a run config from a JSON or YAML file, picked by
// extension.
func loadRunRequest(path string) (treegpapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return treegpapi.RunRequest{}, err
	}

	var cfg runConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return treegpapi.RunRequest{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return treegpapi.RunRequest{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return treegpapi.RunRequest{}, fmt.Errorf("unsupported config format: %s", path)
	}

	if cfg.MutationRate < 0 || cfg.CrossoverRate < 0 {
		return treegpapi.RunRequest{}, fmt.Errorf("%s: rates must be >= 0", path)
	}
	if cfg.MutationRate+cfg.CrossoverRate > 1 {
		return treegpapi.RunRequest{}, fmt.Errorf("%s: mutation_rate + crossover_rate must be <= 1", path)
	}

	return treegpapi.RunRequest{
		Problem:       cfg.Problem,
		Population:    cfg.Population,
		Generations:   cfg.Generations,
		MaxDepth:      cfg.MaxDepth,
		Seed:          cfg.Seed,
		MutationRate:  cfg.MutationRate,
		CrossoverRate: cfg.CrossoverRate,
	}, nil
}
