// Package regbench benchmarks regression models on tabular data.
//
// A run takes one dataset with three feature variants ("base", "complete"
// and "sub") and, for a model kind ("knn", "sgd" or "rf"), grid-searches
// its hyperparameters with k-fold cross-validation under three
// preprocessing regimes: no scaling, standardization and min-max scaling.
// The refit winner of each of the nine combinations is scored on the train
// and test partitions (R², MSE, RMSE and relative absolute error) and the
// nine rows are written to <output>/<kind>_results.csv.
//
// # Packages
//
//   - dataset: CSV loading, variants and the train/test split
//   - preprocessing: StandardScaler, MinMaxScaler
//   - sklearn/...: the estimators, KFold and GridSearchCV
//   - metrics: regression metrics
//   - experiment: the benchmark handler
//   - results: results table, CSV file, SQLite store and R² chart
//   - config: YAML configuration
//
// # Quick Start
//
//	data, err := dataset.LoadCSV("housing.csv", "median_house_value", nil, 0.2, 42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h, err := experiment.NewHandler(data, experiment.WithOutputDir("results"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table, err := h.CreateModelsSets("knn", model_selection.Grid{
//	    "n_neighbors": {3, 5, 10},
//	})
//
// The regbench command wraps the same flow behind a YAML file:
//
//	$ regbench models -config regbench.yaml -m knn,sgd
package regbench
