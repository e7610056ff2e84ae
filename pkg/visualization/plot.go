package visualization

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"driftstack/internal/models"
)

var (
	dxColor = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	dyColor = color.RGBA{R: 40, G: 80, B: 200, A: 255}
)

// PlotDrift draws dx and dy against frame index. Excluded frames show up as
// gaps in the point series.
func PlotDrift(recs models.DriftRecords, title, filename string) error {
	if len(recs) == 0 {
		return fmt.Errorf("no drift records to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Drift (px)"
	p.Add(plotter.NewGrid())

	dxPts := make(plotter.XYs, len(recs))
	dyPts := make(plotter.XYs, len(recs))
	for i, r := range recs {
		dxPts[i] = plotter.XY{X: float64(r.Index), Y: float64(r.DX)}
		dyPts[i] = plotter.XY{X: float64(r.Index), Y: float64(r.DY)}
	}

	for _, series := range []struct {
		label string
		pts   plotter.XYs
		color color.Color
	}{
		{"dx", dxPts, dxColor},
		{"dy", dyPts, dyColor},
	} {
		line, points, err := plotter.NewLinePoints(series.pts)
		if err != nil {
			return err
		}
		line.Color = series.color
		line.Width = vg.Points(1)
		points.Color = series.color
		points.Radius = vg.Points(1.5)
		p.Add(line, points)
		p.Legend.Add(series.label, line, points)
	}

	if err := p.Save(10*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("failed to save drift plot: %w", err)
	}
	return nil
}
