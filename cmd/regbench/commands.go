package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/YuminosukeSato/regbench/config"
	"github.com/YuminosukeSato/regbench/dataset"
	"github.com/YuminosukeSato/regbench/experiment"
	"github.com/YuminosukeSato/regbench/pkg/errors"
	"github.com/YuminosukeSato/regbench/pkg/log"
	"github.com/YuminosukeSato/regbench/results"
	"github.com/YuminosukeSato/regbench/sklearn/model_selection"
)

var (
	configFile string
	modelList  string
	synthetic  bool
)

func addCommonFlags(fs *flag.FlagSet) {
	fs.StringVar(&configFile, "config", "", "YAML configuration file")
	fs.BoolVar(&synthetic, "synthetic", false, "use a generated linear dataset instead of data.path")
}

func modelsCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runModels,
		UsageLine: "models [options]",
		Short:     "grid-search and evaluate the configured model kinds",
		Long: `
grid-search every model kind over the base, complete and sub dataset variants
under no, standard and min-max scaling, writing <output.dir>/<kind>_results.csv

	$ regbench models -config regbench.yaml -m knn,rf

`,
		Flag: *flag.NewFlagSet("models", flag.ExitOnError),
	}
	addCommonFlags(&cmd.Flag)
	cmd.Flag.StringVar(&modelList, "m", "", "comma separated model kinds (default: all configured)")
	return cmd
}

func nnCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runNN,
		UsageLine: "nn [options]",
		Short:     "train the neural network grid on every dataset variant",
		Flag:      *flag.NewFlagSet("nn", flag.ExitOnError),
	}
	addCommonFlags(&cmd.Flag)
	return cmd
}

// setup loads configuration, installs the logger and builds the handler.
func setup() (*config.Config, *experiment.Handler, func(), error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "load config")
	}
	if synthetic {
		cfg.Data.Synthetic = true
	}
	logger, err := log.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}

	var data *dataset.Dataset
	if cfg.Data.Synthetic {
		data, err = dataset.Synthetic(400, 100, cfg.Data.Seed)
	} else {
		data, err = dataset.LoadCSV(cfg.Data.Path, cfg.Data.Target, cfg.Data.Variants, cfg.Data.TestSize, cfg.Data.Seed)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	closeFn := func() {}
	opts := []experiment.HandlerOption{
		experiment.WithOutputDir(cfg.Output.Dir),
		experiment.WithCVFolds(cfg.CV.Folds),
		experiment.WithLogger(logger),
	}
	if cfg.Output.SQLite != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Output.SQLite), 0o755); err != nil {
			return nil, nil, nil, errors.Wrap(err, "create sqlite dir")
		}
		store, err := results.OpenSQLite(cfg.Output.SQLite)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn = func() { _ = store.Close() }
		opts = append(opts, experiment.WithSinks(store))
	}
	if cfg.Output.Plot {
		opts = append(opts, experiment.WithSinks(results.ChartSink{Dir: cfg.Output.Dir}))
	}

	h, err := experiment.NewHandler(data, opts...)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return cfg, h, closeFn, nil
}

func runModels(cmd *commander.Command, args []string) error {
	cfg, h, closeFn, err := setup()
	if err != nil {
		return err
	}
	defer closeFn()
	logger := log.GetLoggerWithName("regbench")

	names := cfg.ModelNames()
	if modelList != "" {
		names = strings.Split(modelList, ",")
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		var grid model_selection.Grid // model defaults
		if m, ok := cfg.Model(name); ok {
			grid = m.Grid
		}
		err := errors.SafeExecute("models "+name, func() error {
			_, err := h.CreateModelsSets(name, grid)
			return err
		})
		switch {
		case errors.Is(err, experiment.ErrUnknownModel):
			continue // already reported by the handler
		case err != nil:
			logger.Error("benchmark failed", err, log.ModelNameKey, name)
			return err
		}
	}
	return nil
}

func runNN(cmd *commander.Command, args []string) error {
	cfg, h, closeFn, err := setup()
	if err != nil {
		return err
	}
	defer closeFn()

	return errors.SafeExecute("nn", func() error {
		_, err := h.CreateNeuralNetworks(cfg.NeuralNetwork)
		return err
	})
}
