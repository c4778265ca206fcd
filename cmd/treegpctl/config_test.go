package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRunRequestJSON(t *testing.T) {
	path := writeConfig(t, "run.json", `{
		"problem": "function",
		"population": 100,
		"generations": 100,
		"max_depth": 10,
		"seed": 42,
		"mutation_rate": 0.1,
		"crossover_rate": 0.895
	}`)

	req, err := loadRunRequest(path)
	require.NoError(t, err)
	assert.Equal(t, "function", req.Problem)
	assert.Equal(t, 100, req.Population)
	assert.Equal(t, 100, req.Generations)
	assert.Equal(t, 10, req.MaxDepth)
	assert.Equal(t, int64(42), req.Seed)
	assert.Equal(t, 0.1, req.MutationRate)
	assert.Equal(t, 0.895, req.CrossoverRate)
}

func TestLoadRunRequestYAML(t *testing.T) {
	path := writeConfig(t, "run.yaml", `
problem: multifunction
population: 60
generations: 40
max_depth: 6
seed: 7
mutation_rate: 0.1
crossover_rate: 0.6
`)

	req, err := loadRunRequest(path)
	require.NoError(t, err)
	assert.Equal(t, "multifunction", req.Problem)
	assert.Equal(t, 60, req.Population)
	assert.Equal(t, 40, req.Generations)
	assert.Equal(t, 6, req.MaxDepth)
	assert.Equal(t, int64(7), req.Seed)
	assert.Equal(t, 0.1, req.MutationRate)
	assert.Equal(t, 0.6, req.CrossoverRate)
}

func TestLoadRunRequestRejectsBadInput(t *testing.T) {
	_, err := loadRunRequest(writeConfig(t, "run.toml", "problem = 'x'"))
	assert.Error(t, err)

	_, err = loadRunRequest(writeConfig(t, "run.json", `{"mutation_rate": -0.5}`))
	assert.Error(t, err)

	_, err = loadRunRequest(writeConfig(t, "run.yaml", "mutation_rate: 0.6\ncrossover_rate: 0.6\n"))
	assert.Error(t, err)

	_, err = loadRunRequest(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
