package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// SubsetSize is the number of columns in the default "sub" variant.
const SubsetSize = 5

// ErrNonNumeric is wrapped by ReadCSV when a cell does not parse as a number.
var ErrNonNumeric = errors.New("non-numeric value in data")

// Table is a parsed numeric CSV with the target column split off.
type Table struct {
	Features *mat.Dense
	Names    []string
	Target   []float64
}

// ReadCSV parses a header row followed by numeric rows. Every cell must
// parse as a float; the first failure is reported with its row and column.
func ReadCSV(r io.Reader, target string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("ReadCSV", "empty data", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read CSV header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	targetCol := slices.Index(header, target)
	if targetCol < 0 {
		return nil, errors.NewValidationError("target", "column not found in header", target)
	}

	names := make([]string, 0, len(header)-1)
	for i, h := range header {
		if i != targetCol {
			names = append(names, h)
		}
	}

	var data, y []float64
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "read CSV row %d", line)
		}
		for i, s := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, errors.NewModelError("ReadCSV",
					fmt.Sprintf("non-numeric value %q at row %d, column %q", s, line, header[i]), ErrNonNumeric)
			}
			if i == targetCol {
				y = append(y, v)
			} else {
				data = append(data, v)
			}
		}
	}
	if len(y) == 0 || len(names) == 0 {
		return nil, errors.NewModelError("ReadCSV", "empty data", errors.ErrEmptyData)
	}

	features := mat.NewDense(len(y), len(names), data)
	if err := errors.CheckFinite("ReadCSV", features); err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("ReadCSV", y, 0); err != nil {
		return nil, err
	}
	return &Table{Features: features, Names: names, Target: y}, nil
}

// DefaultVariants derives the three variants from column names: "complete"
// is every column, "base" is latitude/longitude when both exist (else the
// first two columns), "sub" is the first SubsetSize columns.
func DefaultVariants(names []string) map[string][]string {
	base := names[:min(2, len(names))]
	if slices.Contains(names, "latitude") && slices.Contains(names, "longitude") {
		base = []string{"latitude", "longitude"}
	}
	return map[string][]string{
		Base:     append([]string(nil), base...),
		Complete: append([]string(nil), names...),
		Sub:      append([]string(nil), names[:min(SubsetSize, len(names))]...),
	}
}

// LoadCSV reads path, splits rows with SplitIndices and builds a Dataset.
// Variants missing from variants fall back to DefaultVariants.
func LoadCSV(path, target string, variants map[string][]string, testSize float64, seed int64) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	tbl, err := ReadCSV(f, target)
	if err != nil {
		return nil, errors.Wrapf(err, "load dataset %s", path)
	}

	merged := DefaultVariants(tbl.Names)
	for k, v := range variants {
		merged[k] = v
	}

	train, test, err := SplitIndices(len(tbl.Target), testSize, seed)
	if err != nil {
		return nil, err
	}
	return New(tbl.Features, tbl.Names, tbl.Target, merged, train, test)
}
