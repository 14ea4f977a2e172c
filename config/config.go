// Package config loads the regbench YAML configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/regbench/sklearn/model_selection"
)

type Config struct {
	Data          DataConfig           `yaml:"data"`
	CV            CVConfig             `yaml:"cv"`
	Output        OutputConfig         `yaml:"output"`
	Models        []ModelConfig        `yaml:"models"`
	NeuralNetwork model_selection.Grid `yaml:"neural_network"`
	Log           LogConfig            `yaml:"log"`
}

type DataConfig struct {
	Path      string              `yaml:"path"`
	Target    string              `yaml:"target"`
	Variants  map[string][]string `yaml:"variants"` // variant -> column names; missing variants use defaults
	TestSize  float64             `yaml:"test_size"`
	Seed      int64               `yaml:"seed"`
	Synthetic bool                `yaml:"synthetic"` // ignore Path and generate a linear dataset
}

type CVConfig struct {
	Folds int `yaml:"folds"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	SQLite string `yaml:"sqlite"` // empty disables the results database
	Plot   bool   `yaml:"plot"`
}

// ModelConfig is one model kind and its hyperparameter grid.
type ModelConfig struct {
	Name string               `yaml:"name"`
	Grid model_selection.Grid `yaml:"grid"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path:     "data/housing.csv",
			Target:   "median_house_value",
			TestSize: 0.2,
			Seed:     42,
		},
		CV: CVConfig{Folds: 5},
		Output: OutputConfig{
			Dir: "results",
		},
		Models: []ModelConfig{
			{Name: "knn", Grid: model_selection.Grid{
				"n_neighbors": {3, 5, 10},
				"weights":     {"uniform", "distance"},
			}},
			{Name: "sgd", Grid: model_selection.Grid{
				"alpha":    {0.0001, 0.001},
				"max_iter": {1000},
			}},
			{Name: "rf", Grid: model_selection.Grid{
				"n_estimators": {50, 100},
				"max_depth":    {nil, 10},
			}},
		},
		NeuralNetwork: model_selection.Grid{
			"hidden_layer_sizes": {[]interface{}{64, 32}},
			"learning_rate":      {0.001},
			"epochs":             {100},
			"batch_size":         {32},
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads configPath over the defaults. An empty path searches
// "configs/regbench.yaml" then "regbench.yaml" and falls back to defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/regbench.yaml", "regbench.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				return cfg, decode(data, cfg)
			}
		}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	return cfg, decode(data, cfg)
}

func decode(data []byte, cfg *Config) error {
	// yaml.v3 merges into non-nil maps; a grid in the file replaces the default one
	var probe struct {
		NeuralNetwork model_selection.Grid `yaml:"neural_network"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.NeuralNetwork != nil {
		cfg.NeuralNetwork = nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	applyDefaults(cfg)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Data.TestSize <= 0 || cfg.Data.TestSize >= 1 {
		cfg.Data.TestSize = 0.2
	}
	if cfg.CV.Folds < 2 {
		cfg.CV.Folds = 5
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "results"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Model returns the configured grid for a model kind.
func (c *Config) Model(name string) (ModelConfig, bool) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// ModelNames lists the configured model kinds in file order.
func (c *Config) ModelNames() []string {
	names := make([]string, len(c.Models))
	for i, m := range c.Models {
		names[i] = m.Name
	}
	return names
}
