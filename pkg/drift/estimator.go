package drift

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"driftstack/internal/models"
	"driftstack/internal/monitoring"
	"driftstack/pkg/framesource"
)

// DefaultStabilityBound is the drift, in pixels, at which a frame is rejected.
const DefaultStabilityBound = 100

// Estimator measures per-frame drift relative to frame 0.
type Estimator struct {
	// StabilityBound rejects frames whose |dx| or |dy| reaches it
	StabilityBound int

	// IncludeReference emits (0,0,0) for the reference frame so that an
	// average driven by the records also contains frame 0
	IncludeReference bool

	// Workers bounds the number of frames searched concurrently; values
	// below 2 keep the pass sequential
	Workers int
}

// NewEstimator returns a sequential estimator with the given bound.
func NewEstimator(stabilityBound int) *Estimator {
	return &Estimator{StabilityBound: stabilityBound, Workers: 1}
}

// Summary describes the accepted drift records.
type Summary struct {
	MeanDX float64 `yaml:"meanDX"`
	MeanDY float64 `yaml:"meanDY"`
	StdDX  float64 `yaml:"stdDX"`
	StdDY  float64 `yaml:"stdDY"`
	MaxAbs int     `yaml:"maxAbs"`
}

// Result is the outcome of one estimation pass.
type Result struct {
	// Reference is the peak of frame 0
	Reference models.Point

	// Records holds the accepted frames in index order
	Records models.DriftRecords

	// Frames is the number of frames examined, reference included
	Frames int

	// Excluded counts frames rejected by the stability bound
	Excluded int

	Summary Summary
}

// Estimate locates the peak of every frame in src and reports the drift of
// frames 1..n-1 against frame 0. Frames whose drift is not strictly inside
// the stability bound on both axes are left out of the records.
func (e *Estimator) Estimate(src framesource.Reader) (*Result, error) {
	if e.StabilityBound <= 0 {
		return nil, fmt.Errorf("stability bound must be positive, got %d", e.StabilityBound)
	}
	n := src.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty frame stack", models.ErrGeometry)
	}

	peaks, err := locatePeaks(src, e.Workers)
	if err != nil {
		return nil, err
	}

	res := &Result{Reference: peaks[0], Frames: n}
	if e.IncludeReference {
		res.Records = append(res.Records, models.DriftRecord{Index: 0})
	}
	for i := 1; i < n; i++ {
		d := peaks[i].Sub(res.Reference)
		if abs(d.X) < e.StabilityBound && abs(d.Y) < e.StabilityBound {
			res.Records = append(res.Records, models.DriftRecord{Index: i, DX: d.X, DY: d.Y})
			continue
		}
		res.Excluded++
		monitoring.Logf("Frame %d excluded: drift %s exceeds bound %d", i, d, e.StabilityBound)
	}
	res.Summary = summarize(res.Records)

	monitoring.Logf("Reference peak %s, %d records, %d of %d frames excluded",
		res.Reference, len(res.Records), res.Excluded, n-1)
	return res, nil
}

// locatePeaks returns the peak of every frame, indexed by frame. Concurrent
// workers write to their own slot, so the result does not depend on
// scheduling.
func locatePeaks(src framesource.Reader, workers int) ([]models.Point, error) {
	peaks := make([]models.Point, src.Len())
	if workers < 2 {
		for i := range peaks {
			f, err := src.ReadFrame(i)
			if err != nil {
				return nil, err
			}
			peaks[i] = FindPeak(f)
		}
		return peaks, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range peaks {
		g.Go(func() error {
			f, err := src.ReadFrame(i)
			if err != nil {
				return err
			}
			peaks[i] = FindPeak(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return peaks, nil
}

func summarize(recs models.DriftRecords) Summary {
	var s Summary
	if len(recs) == 0 {
		return s
	}
	dx := make([]float64, len(recs))
	dy := make([]float64, len(recs))
	for i, r := range recs {
		dx[i] = float64(r.DX)
		dy[i] = float64(r.DY)
		s.MaxAbs = max(s.MaxAbs, abs(r.DX), abs(r.DY))
	}
	s.MeanDX = stat.Mean(dx, nil)
	s.MeanDY = stat.Mean(dy, nil)
	if len(recs) > 1 {
		s.StdDX = stat.StdDev(dx, nil)
		s.StdDY = stat.StdDev(dy, nil)
	}
	return s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
