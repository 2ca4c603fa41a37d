package report

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("report: no tagged clusters to plot")

var (
	mergedColor   = color.RGBA{R: 214, G: 39, B: 40, A: 160}
	unmergedColor = color.RGBA{R: 31, G: 119, B: 180, A: 160}
)

// PlotWidths writes overlaid cluster-width histograms for merged and
// unmerged clusters to path. The image format follows the file extension
// (.png, .svg, .pdf, ...). Histograms are normalised to unit area so the
// shapes compare regardless of population size.
func (c *Collector) PlotWidths(path string) error {
	merged, unmerged := c.Widths()
	if len(merged) == 0 && len(unmerged) == 0 {
		return ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Cluster width (%s mode)", c.mode)
	p.X.Label.Text = "Width (strips)"
	p.Y.Label.Text = "Fraction of clusters"

	// One bin per strip width, centred on the integer width.
	maxWidth := 1
	if len(merged) > 0 {
		maxWidth = max(maxWidth, int(slices.Max(merged)))
	}
	if len(unmerged) > 0 {
		maxWidth = max(maxWidth, int(slices.Max(unmerged)))
	}

	add := func(name string, widths []float64, fill color.Color) {
		if len(widths) == 0 {
			return
		}
		h := widthHistogram(widths, maxWidth)
		h.Normalize(1)
		h.FillColor = fill
		h.LineStyle.Width = vg.Points(0.5)
		p.Add(h)
		p.Legend.Add(fmt.Sprintf("%s (%d)", name, len(widths)), h)
	}
	add("unmerged", unmerged, unmergedColor)
	add("merged", merged, mergedColor)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save width plot: %w", err)
	}
	return nil
}

func widthHistogram(widths []float64, maxWidth int) *plotter.Histogram {
	bins := make([]plotter.HistogramBin, maxWidth)
	for i := range bins {
		w := float64(i + 1)
		bins[i] = plotter.HistogramBin{Min: w - 0.5, Max: w + 0.5}
	}
	for _, w := range widths {
		if i := int(w) - 1; i >= 0 && i < len(bins) {
			bins[i].Weight++
		}
	}
	return &plotter.Histogram{
		Bins:      bins,
		Width:     1,
		LineStyle: plotter.DefaultLineStyle,
	}
}
