package experiment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/dataset"
	"github.com/YuminosukeSato/regbench/pkg/errors"
	"github.com/YuminosukeSato/regbench/preprocessing"
)

// Preprocessing regimes, in the order rows are produced.
const (
	NoScaling       = "no_scaling"
	StandardScaling = "standard_scaling"
	MinMaxScaling   = "minmax_scaling"
)

// PreprocessingTypes returns the regimes in canonical order.
func PreprocessingTypes() []string {
	return []string{NoScaling, StandardScaling, MinMaxScaling}
}

// Provider supplies the feature sets and targets of a dataset.
// *dataset.Dataset satisfies it.
type Provider interface {
	SetTypes() []string
	GetSet(variant, split string) (*mat.Dense, error)
	YTrain() *mat.VecDense
	YTest() *mat.VecDense
}

var _ Provider = (*dataset.Dataset)(nil)

// ScalerBank holds one StandardScaler and one MinMaxScaler per dataset
// variant, fitted on that variant's training rows. They are never refit.
type ScalerBank struct {
	standard map[string]*preprocessing.StandardScaler
	minmax   map[string]*preprocessing.MinMaxScaler
}

// NewScalerBank fits the scalers of every variant p exposes.
func NewScalerBank(p Provider) (*ScalerBank, error) {
	b := &ScalerBank{
		standard: make(map[string]*preprocessing.StandardScaler),
		minmax:   make(map[string]*preprocessing.MinMaxScaler),
	}
	for _, variant := range p.SetTypes() {
		train, err := p.GetSet(variant, dataset.Train)
		if err != nil {
			return nil, err
		}
		ss := preprocessing.NewStandardScalerDefault()
		if err := ss.Fit(train); err != nil {
			return nil, errors.Wrapf(err, "fit standard scaler on %s", variant)
		}
		mm := preprocessing.NewMinMaxScalerDefault()
		if err := mm.Fit(train); err != nil {
			return nil, errors.Wrapf(err, "fit minmax scaler on %s", variant)
		}
		b.standard[variant] = ss
		b.minmax[variant] = mm
	}
	return b, nil
}

// Transformer returns the fitted transformer for a (variant, regime) pair.
func (b *ScalerBank) Transformer(variant, prep string) (model.Transformer, error) {
	switch prep {
	case NoScaling:
		return preprocessing.Identity{}, nil
	case StandardScaling:
		if s, ok := b.standard[variant]; ok {
			return s, nil
		}
	case MinMaxScaling:
		if s, ok := b.minmax[variant]; ok {
			return s, nil
		}
	default:
		return nil, errors.NewValidationError("preprocessing", "must be one of no_scaling, standard_scaling, minmax_scaling", prep)
	}
	return nil, errors.NewValidationError("variant", "no scaler fitted for dataset variant", variant)
}

// Transform applies the (variant, regime) transformer to X.
func (b *ScalerBank) Transform(variant, prep string, X mat.Matrix) (mat.Matrix, error) {
	t, err := b.Transformer(variant, prep)
	if err != nil {
		return nil, err
	}
	return t.Transform(X)
}
