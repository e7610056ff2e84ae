package analysis

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"driftstack/internal/models"
)

const (
	// DefaultSize is the side of the square analysis resolution
	DefaultSize = 512

	// DefaultDropRate is the fraction of brightest pixels kept as signal
	DefaultDropRate = 0.01
)

// Analyzer thresholds frames into masks of their brightest pixels.
type Analyzer struct {
	// Size is the analysis resolution; an axis smaller than Size keeps its
	// native length
	Size int

	// Rate is the fraction of shrunk pixels kept above the threshold
	Rate float64
}

// NewAnalyzer returns an Analyzer using the default resolution and rate.
func NewAnalyzer() *Analyzer {
	return &Analyzer{Size: DefaultSize, Rate: DefaultDropRate}
}

// Stats summarizes the shrunk frame.
type Stats struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Result holds the analysis of one frame.
type Result struct {
	// Shrunk is the downsampled frame the threshold was taken from
	Shrunk *models.Frame

	// Mask is 1 where Shrunk >= Threshold and 0 elsewhere
	Mask *models.Frame

	Threshold uint16

	// Kept is the number of ones in Mask; ties at the threshold make it
	// larger than the nominal rate
	Kept int

	Stats Stats
}

// Analyze shrinks f to the analysis resolution, picks the threshold that
// keeps the brightest Rate fraction of the shrunk pixels and returns the
// resulting mask. A side at least Size long must be a whole multiple of it.
func (a *Analyzer) Analyze(f *models.Frame) (*Result, error) {
	if a.Size <= 0 {
		return nil, fmt.Errorf("%w: analysis size %d", models.ErrGeometry, a.Size)
	}
	if a.Rate <= 0 || a.Rate > 1 {
		return nil, fmt.Errorf("drop rate must be in (0,1], got %g", a.Rate)
	}
	for _, side := range []int{f.Width, f.Height} {
		if side >= a.Size && side%a.Size != 0 {
			return nil, fmt.Errorf("%w: frame side %d is not a multiple of analysis size %d",
				models.ErrGeometry, side, a.Size)
		}
	}
	shrunk, err := ShrinkTo(f, min(a.Size, f.Width), min(a.Size, f.Height))
	if err != nil {
		return nil, err
	}

	threshold := Threshold(shrunk.Pix, a.Rate)
	mask := models.NewFrame(shrunk.Width, shrunk.Height)
	kept := 0
	for i, v := range shrunk.Pix {
		if v >= threshold {
			mask.Pix[i] = 1
			kept++
		}
	}

	return &Result{
		Shrunk:    shrunk,
		Mask:      mask,
		Threshold: threshold,
		Kept:      kept,
		Stats:     frameStats(shrunk),
	}, nil
}

// Threshold returns the value at rank n - keep of the sorted pixels, where
// keep = floor(rate*n) clamped to [1, n]. At least the brightest pixel is
// always at or above it.
func Threshold(pix []uint16, rate float64) uint16 {
	n := len(pix)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(pix)
	slices.Sort(sorted)

	keep := int(rate * float64(n))
	keep = max(1, min(keep, n))
	return sorted[n-keep]
}

func frameStats(f *models.Frame) Stats {
	v := make([]float64, len(f.Pix))
	for i, p := range f.Pix {
		v[i] = float64(p)
	}
	s := Stats{Min: floats.Min(v), Max: floats.Max(v)}
	s.Mean, s.StdDev = stat.MeanStdDev(v, nil)
	if len(v) < 2 {
		s.StdDev = 0
	}
	return s
}
