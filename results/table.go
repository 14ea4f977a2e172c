// Package results holds the per-model results table and its sinks: the CSV
// file, the SQLite store and the R² chart.
package results

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// Metric names in column order.
const (
	R2Train   = "r2_train"
	R2Test    = "r2_test"
	MSETrain  = "mse_train"
	MSETest   = "mse_test"
	RMSETrain = "rmse_train"
	RMSETest  = "rmse_test"
	RAETrain  = "rae_train"
	RAETest   = "rae_test"
)

// MetricNames lists the eight metric columns in output order.
var MetricNames = []string{R2Train, R2Test, MSETrain, MSETest, RMSETrain, RMSETest, RAETrain, RAETest}

// Columns is the fixed header of a results file.
var Columns = append([]string{"model_type", "dataset_type", "preprocessing_type", "params"}, MetricNames...)

// Metrics is one fitted estimator's scores on train and test.
type Metrics struct {
	R2Train, R2Test     float64
	MSETrain, MSETest   float64
	RMSETrain, RMSETest float64
	RAETrain, RAETest   float64
}

// Values returns the metrics in MetricNames order.
func (m Metrics) Values() []float64 {
	return []float64{m.R2Train, m.R2Test, m.MSETrain, m.MSETest, m.RMSETrain, m.RMSETest, m.RAETrain, m.RAETest}
}

// Get returns a metric by column name.
func (m Metrics) Get(name string) (float64, bool) {
	for i, n := range MetricNames {
		if n == name {
			return m.Values()[i], true
		}
	}
	return math.NaN(), false
}

func metricsFromValues(v []float64) Metrics {
	return Metrics{
		R2Train: v[0], R2Test: v[1],
		MSETrain: v[2], MSETest: v[3],
		RMSETrain: v[4], RMSETest: v[5],
		RAETrain: v[6], RAETest: v[7],
	}
}

// Row is one (variant, preprocessing) outcome.
type Row struct {
	ModelType         string
	DatasetType       string
	PreprocessingType string
	Params            string
	Metrics
}

// Record renders the row as CSV fields.
func (r Row) Record() []string {
	out := make([]string, 0, len(Columns))
	out = append(out, r.ModelType, r.DatasetType, r.PreprocessingType, r.Params)
	for _, v := range r.Values() {
		out = append(out, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return out
}

// Table is the ordered result of one model-kind invocation.
type Table struct {
	Model string
	Rows  []Row
}

// NewTable creates an empty table for a model kind.
func NewTable(model string) *Table {
	return &Table{Model: model, Rows: make([]Row, 0, 9)}
}

// Append adds a row.
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Find returns the row for a (variant, preprocessing) pair.
func (t *Table) Find(dataset, preprocessing string) (Row, bool) {
	for _, r := range t.Rows {
		if r.DatasetType == dataset && r.PreprocessingType == preprocessing {
			return r, true
		}
	}
	return Row{}, false
}

// WriteCSV writes the header and all rows.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range t.Rows {
		if err := cw.Write(r.Record()); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// SaveCSV replaces the file at path with the table. The content is written to
// a temporary file in the same directory and renamed over path, so readers see
// either the previous file or the complete new one.
func (t *Table) SaveCSV(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	// CreateTemp opens with 0600 and Rename keeps it
	if err = tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if err = t.WriteCSV(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "replace %s", path)
	}
	return nil
}

// ReadCSV loads a table written by SaveCSV.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(records) == 0 || len(records[0]) != len(Columns) {
		return nil, errors.Newf("%s: missing or malformed header", path)
	}
	for i, c := range Columns {
		if records[0][i] != c {
			return nil, errors.Newf("%s: column %d is %q, want %q", path, i, records[0][i], c)
		}
	}

	t := &Table{}
	for line, rec := range records[1:] {
		vals := make([]float64, len(MetricNames))
		for i := range MetricNames {
			v, err := strconv.ParseFloat(rec[4+i], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: row %d, column %s", path, line+2, MetricNames[i])
			}
			vals[i] = v
		}
		t.Append(Row{
			ModelType:         rec[0],
			DatasetType:       rec[1],
			PreprocessingType: rec[2],
			Params:            rec[3],
			Metrics:           metricsFromValues(vals),
		})
	}
	if len(t.Rows) > 0 {
		t.Model = t.Rows[0].ModelType
	}
	return t, nil
}
