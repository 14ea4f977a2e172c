package results

import (
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// PlotR2 saves a grouped bar chart of r2_test to path: one group per dataset
// variant, one bar per preprocessing type, both in table order. The image
// format follows the file extension.
func PlotR2(t *Table, path string) error {
	if t.Len() == 0 {
		return errors.Wrap(errors.ErrEmptyData, "plot r2")
	}

	var datasets, preps []string
	seen := map[string]bool{}
	for _, r := range t.Rows {
		if !seen["d:"+r.DatasetType] {
			seen["d:"+r.DatasetType] = true
			datasets = append(datasets, r.DatasetType)
		}
		if !seen["p:"+r.PreprocessingType] {
			seen["p:"+r.PreprocessingType] = true
			preps = append(preps, r.PreprocessingType)
		}
	}

	p := plot.New()
	p.Title.Text = t.Model + " test R²"
	p.Y.Label.Text = "r2_test"

	w := vg.Points(18)
	for i, prep := range preps {
		vals := make(plotter.Values, len(datasets))
		for j, ds := range datasets {
			if r, ok := t.Find(ds, prep); ok {
				vals[j] = r.R2Test
			}
		}
		bars, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return errors.Wrapf(err, "bars for %s", prep)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = w * vg.Length(i-len(preps)/2)
		p.Add(bars)
		p.Legend.Add(prep, bars)
	}
	p.Legend.Top = true
	p.NominalX(datasets...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	return errors.Wrapf(p.Save(6*vg.Inch, 4*vg.Inch, path), "save %s", path)
}

// ChartSink writes "<Dir>/<model>_r2.png" for every saved table.
type ChartSink struct {
	Dir string
}

// Save implements Sink.
func (c ChartSink) Save(t *Table) error {
	return PlotR2(t, filepath.Join(c.Dir, t.Model+"_r2.png"))
}
