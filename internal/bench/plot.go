package bench

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const histogramBins = 40

// PlotLatencies writes a histogram of the per-resize latencies, in
// milliseconds, to path. The image format follows the file extension.
func PlotLatencies(res *Result, title, path string) error {
	if len(res.Latencies) == 0 {
		return errors.New("bench: no latencies to plot")
	}
	values := make(plotter.Values, len(res.Latencies))
	for i, d := range res.Latencies {
		values[i] = float64(d.Nanoseconds()) / 1e6
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "latency (ms)"
	p.Y.Label.Text = "resizes"

	hist, err := plotter.NewHist(values, histogramBins)
	if err != nil {
		return errors.Wrap(err, "build histogram")
	}
	p.Add(hist)
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
