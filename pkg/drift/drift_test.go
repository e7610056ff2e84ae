package drift

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftstack/internal/models"
	"driftstack/pkg/framesource"
)

// spotFrame creates a frame with a single bright pixel at (x, y)
func spotFrame(width, height, x, y int) *models.Frame {
	f := models.NewFrame(width, height)
	f.Set(x, y, 65535)
	return f
}

func TestFindPeakSinglePixel(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
		x, y          int
	}{
		{"top left", 8, 8, 0, 0},
		{"top right", 8, 8, 7, 0},
		{"bottom left", 8, 8, 0, 7},
		{"bottom right", 8, 8, 7, 7},
		{"interior", 8, 8, 3, 5},
		{"wide frame", 10, 4, 9, 3},
		{"tall frame", 3, 9, 1, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := FindPeak(spotFrame(tc.width, tc.height, tc.x, tc.y))
			assert.Equal(t, models.Point{X: tc.x, Y: tc.y}, p)
		})
	}
}

func TestFindPeakAllZero(t *testing.T) {
	assert.Equal(t, models.Point{}, FindPeak(models.NewFrame(5, 3)))
}

func TestFindPeakEmptyFrame(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, models.Point{}, FindPeak(&models.Frame{}))
	})
}

func TestFindPeakFirstMaximumWins(t *testing.T) {
	f := models.NewFrame(4, 4)
	f.Set(3, 1, 900)
	f.Set(1, 2, 900)
	f.Set(0, 3, 899)
	assert.Equal(t, models.Point{X: 3, Y: 1}, FindPeak(f))
}

// shiftedStack builds n frames whose spot sits at (x0+i, y0) in frame i
func shiftedStack(t *testing.T, n, size, x0, y0 int) *framesource.Memory {
	t.Helper()
	frames := make([]*models.Frame, n)
	for i := range frames {
		frames[i] = spotFrame(size, size, x0+i, y0)
	}
	m, err := framesource.NewMemory(frames...)
	require.NoError(t, err)
	return m
}

func TestEstimateStabilityBound(t *testing.T) {
	const bound = 5
	src := shiftedStack(t, 9, 16, 2, 4)

	res, err := NewEstimator(bound).Estimate(src)
	require.NoError(t, err)

	want := models.DriftRecords{}
	for i := 1; i < bound; i++ {
		want = append(want, models.DriftRecord{Index: i, DX: i, DY: 0})
	}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, models.Point{X: 2, Y: 4}, res.Reference)
	assert.Equal(t, 9, res.Frames)
	assert.Equal(t, 4, res.Excluded, "frames 5..8 reach the bound")
}

func TestEstimateVerticalDriftExcluded(t *testing.T) {
	frames := []*models.Frame{
		spotFrame(8, 8, 1, 1),
		spotFrame(8, 8, 1, 4), // dy = 3 == bound
		spotFrame(8, 8, 0, 3), // dx = -1, dy = 2
	}
	src, err := framesource.NewMemory(frames...)
	require.NoError(t, err)

	res, err := NewEstimator(3).Estimate(src)
	require.NoError(t, err)
	assert.Equal(t, models.DriftRecords{{Index: 2, DX: -1, DY: 2}}, res.Records)
	assert.Equal(t, 1, res.Excluded)
}

func TestEstimateEndToEndSmallStack(t *testing.T) {
	src, err := framesource.NewMemory(
		spotFrame(4, 4, 2, 2),
		spotFrame(4, 4, 3, 2),
		spotFrame(4, 4, 2, 2),
	)
	require.NoError(t, err)

	res, err := NewEstimator(DefaultStabilityBound).Estimate(src)
	require.NoError(t, err)

	// zero drift still satisfies |0| < bound, so frame 2 is kept
	want := models.DriftRecords{{Index: 1, DX: 1, DY: 0}, {Index: 2, DX: 0, DY: 0}}
	assert.Equal(t, want, res.Records)
	assert.Zero(t, res.Excluded)
}

func TestEstimateIncludeReference(t *testing.T) {
	src := shiftedStack(t, 3, 8, 0, 0)
	e := NewEstimator(10)
	e.IncludeReference = true

	res, err := e.Estimate(src)
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, models.DriftRecord{}, res.Records[0])
	assert.NoError(t, res.Records.Validate())
}

func TestEstimateSingleFrame(t *testing.T) {
	src := shiftedStack(t, 1, 4, 1, 1)
	res, err := NewEstimator(10).Estimate(src)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, Summary{}, res.Summary)
}

func TestEstimateRejectsBadBound(t *testing.T) {
	_, err := NewEstimator(0).Estimate(shiftedStack(t, 2, 4, 0, 0))
	assert.Error(t, err)
}

func TestEstimateParallelMatchesSequential(t *testing.T) {
	src := shiftedStack(t, 40, 64, 3, 10)

	seq, err := NewEstimator(20).Estimate(src)
	require.NoError(t, err)

	par := NewEstimator(20)
	par.Workers = 4
	got, err := par.Estimate(src)
	require.NoError(t, err)

	if diff := cmp.Diff(seq, got); diff != "" {
		t.Errorf("parallel result differs (-seq +par):\n%s", diff)
	}
}

func TestSummary(t *testing.T) {
	s := summarize(models.DriftRecords{
		{Index: 1, DX: 1, DY: -2},
		{Index: 2, DX: 3, DY: -2},
	})
	assert.InDelta(t, 2.0, s.MeanDX, 1e-12)
	assert.InDelta(t, -2.0, s.MeanDY, 1e-12)
	assert.InDelta(t, 1.4142135623730951, s.StdDX, 1e-12)
	assert.Zero(t, s.StdDY)
	assert.Equal(t, 3, s.MaxAbs)
}
