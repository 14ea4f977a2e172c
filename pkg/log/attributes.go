// Package log defines standard attribute keys for benchmark runs.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so log output can be filtered per model kind, dataset variant and
// preprocessing regime.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the model kind, e.g. "knn", "sgd", "rf".
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies a single run of the handler (UUID string).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "grid_search".
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase.
	PhaseKey = "ml.phase"
)

// Benchmark grid context.
const (
	// DatasetKey names the dataset variant ("base", "complete", "sub").
	DatasetKey = "data.variant"

	// PreprocessingKey names the preprocessing regime.
	PreprocessingKey = "data.preprocessing"

	// FoldKey is the zero-based cross-validation fold index.
	FoldKey = "cv.fold"

	// CandidateKey is the zero-based grid candidate index.
	CandidateKey = "cv.candidate"

	// SplitsKey is the number of cross-validation folds.
	SplitsKey = "cv.n_splits"

	// CandidatesKey is the number of grid candidates.
	CandidatesKey = "cv.n_candidates"

	// OutputPathKey records where results were written.
	OutputPathKey = "output.path"
)

// Data shape.
const (
	// SamplesKey is the number of rows.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns.
	FeaturesKey = "data.features"

	// BatchSizeKey is the mini-batch size used by the neural network trainer.
	BatchSizeKey = "data.batch_size"
)

// Performance metrics.
const (
	DurationMsKey = "perf.duration_ms"
	LossKey       = "metrics.loss"
	R2ScoreKey    = "metrics.r2_score"
	MSEKey        = "metrics.mse"
	IterationKey  = "training.iteration"
	EpochKey      = "training.epoch"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters.
const (
	// HyperParamsKey holds the selected hyperparameters of a candidate.
	HyperParamsKey = "model.hyperparams"

	LearningRateKey = "hyperparams.learning_rate"
	RandomSeedKey   = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit        = "fit"
	OperationPredict    = "predict"
	OperationTransform  = "transform"
	OperationScore      = "score"
	OperationGridSearch = "grid_search"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhasePreprocessing = "preprocessing"

	ErrorUnknownModel      = "UNKNOWN_MODEL"
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
