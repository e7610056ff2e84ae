// Package stacking averages a frame stack after translating each frame by
// its drift record (shift-and-sum).
package stacking

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"driftstack/internal/models"
	"driftstack/internal/monitoring"
	"driftstack/pkg/framesource"
)

// Accumulator is a running float64 sum of shifted frames. It is owned by a
// single accumulation pass.
type Accumulator struct {
	width  int
	height int
	sum    []float64
	count  int

	// workers splits each Add into disjoint row bands; below 2 it is sequential
	workers int
}

// NewAccumulator creates an empty accumulator for width x height frames.
func NewAccumulator(width, height int) *Accumulator {
	return &Accumulator{
		width:   width,
		height:  height,
		sum:     make([]float64, width*height),
		workers: 1,
	}
}

// SetWorkers sets the number of row bands processed concurrently per frame.
// Each output row is owned by one band and receives contributions in frame
// order, so the sums are identical to a sequential pass.
func (a *Accumulator) SetWorkers(n int) { a.workers = n }

// Count returns the number of frames added so far.
func (a *Accumulator) Count() int { return a.count }

// Sum returns the raw sum grid.
func (a *Accumulator) Sum() []float64 { return a.sum }

// Add translates f by (dx, dy) and adds it to the sum. Source pixels that
// land outside the frame are dropped.
func (a *Accumulator) Add(f *models.Frame, dx, dy int) error {
	if err := f.CheckGeometry(); err != nil {
		return err
	}
	if f.Width != a.width || f.Height != a.height {
		return fmt.Errorf("%w: frame is %dx%d, accumulator is %dx%d",
			models.ErrGeometry, f.Width, f.Height, a.width, a.height)
	}

	if a.workers < 2 {
		a.addRows(f, dx, dy, 0, a.height)
	} else {
		// bands are in output rows so no two goroutines write the same cell
		band := (a.height + a.workers - 1) / a.workers
		var g errgroup.Group
		for start := 0; start < a.height; start += band {
			end := min(start+band, a.height)
			g.Go(func() error {
				a.addRows(f, dx, dy, start, end)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	a.count++
	return nil
}

// addRows adds the source rows that land in output rows [start, end).
func (a *Accumulator) addRows(f *models.Frame, dx, dy, start, end int) {
	// output row newY takes source row newY - dy
	for newY := start; newY < end; newY++ {
		y := newY - dy
		if y < 0 || y >= a.height {
			continue
		}
		src := f.Pix[y*a.width : (y+1)*a.width]
		dst := a.sum[newY*a.width : (newY+1)*a.width]
		for x, v := range src {
			newX := x + dx
			if newX < 0 || newX >= a.width {
				continue
			}
			dst[newX] += float64(v)
		}
	}
}

// Mean divides every cell by the number of frames added. Cells near the edge
// may have received fewer frames than the interior but share the same
// denominator.
func (a *Accumulator) Mean() ([]float64, error) {
	if a.count == 0 {
		return nil, models.ErrEmptyAccumulation
	}
	mean := make([]float64, len(a.sum))
	n := float64(a.count)
	for i, s := range a.sum {
		mean[i] = s / n
	}
	return mean, nil
}

// Frame returns the mean as a frame, truncating each value toward zero.
func (a *Accumulator) Frame() (*models.Frame, error) {
	mean, err := a.Mean()
	if err != nil {
		return nil, err
	}
	out := models.NewFrame(a.width, a.height)
	for i, v := range mean {
		out.Pix[i] = truncate(v)
	}
	return out, nil
}

func truncate(v float64) uint16 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}

// Options controls an accumulation pass.
type Options struct {
	// Workers is passed to Accumulator.SetWorkers
	Workers int
}

// Accumulate averages the frames of src named by recs, each translated by its
// drift. Frames are visited in index order with a cursor into recs: a frame
// whose index is not the current record's is skipped without being read, and
// each contributing frame consumes one record. It returns the averaged frame
// and the number of frames that contributed.
func Accumulate(src framesource.Reader, recs models.DriftRecords, opts Options) (*models.Frame, int, error) {
	if err := recs.Validate(); err != nil {
		return nil, 0, err
	}
	width, height := src.Geometry()
	acc := NewAccumulator(width, height)
	acc.SetWorkers(opts.Workers)

	cursor := 0
	for i := 0; i < src.Len() && cursor < len(recs); i++ {
		rec := recs[cursor]
		if rec.Index != i {
			continue
		}
		f, err := src.ReadFrame(i)
		if err != nil {
			return nil, 0, err
		}
		if err := acc.Add(f, rec.DX, rec.DY); err != nil {
			return nil, 0, fmt.Errorf("frame %d: %w", i, err)
		}
		cursor++
	}
	if unused := len(recs) - cursor; unused > 0 {
		monitoring.Logf("Warning: %d drift records name frames beyond the stack (%d frames)", unused, src.Len())
	}

	out, err := acc.Frame()
	if err != nil {
		return nil, 0, fmt.Errorf("%d records over %d frames: %w", len(recs), src.Len(), err)
	}
	monitoring.Logf("Averaged %d of %d frames", acc.Count(), src.Len())
	return out, acc.Count(), nil
}

// ZeroDrift returns records including every frame 0..n-1 with no shift. It
// is used when no drift file is supplied.
func ZeroDrift(n int) models.DriftRecords {
	recs := make(models.DriftRecords, n)
	for i := range recs {
		recs[i] = models.DriftRecord{Index: i}
	}
	return recs
}

// SyntheticDrift returns records shifting frame i right by i mod period
// pixels, the fixed test pattern used to exercise the shift path without a
// detection pass.
func SyntheticDrift(n, period int) models.DriftRecords {
	recs := ZeroDrift(n)
	if period <= 0 {
		return recs
	}
	for i := range recs {
		recs[i].DX = i % period
	}
	return recs
}
