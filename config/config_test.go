package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/regbench.yaml")
	assert.Error(t, err)

	cfg := Default()
	assert.Equal(t, 5, cfg.CV.Folds)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.Equal(t, []string{"knn", "sgd", "rf"}, cfg.ModelNames())
	assert.Equal(t, 0.2, cfg.Data.TestSize)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regbench.yaml")
	content := `
data:
  synthetic: true
  seed: 7
  variants:
    sub: [rooms, income]
cv:
  folds: 3
output:
  dir: out
  sqlite: out/results.db
  plot: true
models:
  - name: sgd
    grid:
      max_iter: [100, 200]
      tol: [null]
  - name: knn
    grid:
      n_neighbors: [1, 3]
neural_network:
  hidden_layer_sizes: [[8]]
  epochs: [5]
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Data.Synthetic)
	assert.Equal(t, int64(7), cfg.Data.Seed)
	assert.Equal(t, []string{"rooms", "income"}, cfg.Data.Variants["sub"])
	assert.Equal(t, 0.2, cfg.Data.TestSize, "unset values keep defaults")
	assert.Equal(t, 3, cfg.CV.Folds)
	assert.Equal(t, "out/results.db", cfg.Output.SQLite)
	assert.True(t, cfg.Output.Plot)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Equal(t, []string{"sgd", "knn"}, cfg.ModelNames())
	sgd, ok := cfg.Model("sgd")
	require.True(t, ok)
	assert.Equal(t, []interface{}{100, 200}, sgd.Grid["max_iter"])
	assert.Equal(t, []interface{}{nil}, sgd.Grid["tol"])
	_, ok = cfg.Model("rf")
	assert.False(t, ok)

	assert.Len(t, cfg.NeuralNetwork, 2)
	assert.Equal(t, []interface{}{[]interface{}{8}}, cfg.NeuralNetwork["hidden_layer_sizes"])
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cv:\n  folds: 1\ndata:\n  test_size: 1.5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.CV.Folds)
	assert.Equal(t, 0.2, cfg.Data.TestSize)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: {name: ["), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
