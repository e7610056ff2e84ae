package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftstack/internal/models"
)

func constantFrame(width, height int, v uint16) *models.Frame {
	f := models.NewFrame(width, height)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func TestShrinkConstantFrame(t *testing.T) {
	const v = 4321
	src := constantFrame(24, 24, v)
	for _, target := range []int{1, 2, 3, 4, 6, 8, 12, 24} {
		out, err := Shrink(src, target)
		require.NoError(t, err, "target %d", target)
		require.Equal(t, target, out.Width)
		require.Equal(t, target, out.Height)
		for _, p := range out.Pix {
			assert.InDelta(t, v, int(p), 1, "target %d", target)
		}
	}
}

func TestShrinkBlockMean(t *testing.T) {
	src := &models.Frame{Width: 4, Height: 2, Pix: []uint16{
		1, 2, 10, 20,
		3, 5, 30, 41,
	}}
	out, err := Shrink(src, 2)
	require.NoError(t, err)
	// blocks are 2x1: (1+2)/2, (10+20)/2 on row 0 and (3+5)/2, (30+41)/2 on row 1
	assert.Equal(t, []uint16{1, 15, 4, 35}, out.Pix)
}

func TestShrinkClipsRemainder(t *testing.T) {
	src := constantFrame(5, 5, 10)
	src.Set(4, 0, 60000) // outside the 2x2 blocks
	src.Set(0, 4, 60000)

	out, err := Shrink(src, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{10, 10, 10, 10}, out.Pix)
}

func TestShrinkGeometryErrors(t *testing.T) {
	src := constantFrame(4, 4, 1)
	for _, target := range []int{0, -1, 5} {
		_, err := Shrink(src, target)
		assert.ErrorIs(t, err, models.ErrGeometry, "target %d", target)
	}
}

func TestShrinkToRectangular(t *testing.T) {
	src := constantFrame(8, 4, 7)
	out, err := ShrinkTo(src, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{7, 7, 7, 7}, out.Pix)
}

func TestThreshold(t *testing.T) {
	pix := make([]uint16, 200)
	for i := range pix {
		pix[i] = uint16(i)
	}
	// 1% of 200 keeps the top 2 values
	assert.Equal(t, uint16(198), Threshold(pix, 0.01))
	// fewer than one pixel rounds up to the single brightest
	assert.Equal(t, uint16(199), Threshold(pix, 0.001))
	assert.Equal(t, uint16(0), Threshold(pix, 1))
	assert.Equal(t, uint16(0), Threshold(nil, 0.5))

	// the input is not reordered
	assert.Equal(t, uint16(0), pix[0])
	assert.Equal(t, uint16(199), pix[199])
}

func TestAnalyzeMasksBrightestPixels(t *testing.T) {
	f := constantFrame(10, 10, 100)
	f.Set(2, 3, 5000)
	f.Set(7, 7, 4000)

	a := &Analyzer{Size: 512, Rate: 0.02}
	res, err := a.Analyze(f)
	require.NoError(t, err)

	// smaller than the analysis size: native resolution
	assert.Equal(t, 10, res.Mask.Width)
	assert.Equal(t, 10, res.Mask.Height)
	assert.Equal(t, uint16(4000), res.Threshold)
	assert.Equal(t, 2, res.Kept)
	assert.Equal(t, uint16(1), res.Mask.At(2, 3))
	assert.Equal(t, uint16(1), res.Mask.At(7, 7))
	assert.Equal(t, uint16(0), res.Mask.At(0, 0))

	assert.Equal(t, 100.0, res.Stats.Min)
	assert.Equal(t, 5000.0, res.Stats.Max)
	assert.InDelta(t, 188.0, res.Stats.Mean, 1e-9)
}

func TestAnalyzeUsesShrunkData(t *testing.T) {
	f := constantFrame(8, 8, 0)
	// a bright 2x2 block in the top left quadrant
	f.Set(0, 0, 400)
	f.Set(1, 0, 400)
	f.Set(0, 1, 400)
	f.Set(1, 1, 400)

	res, err := (&Analyzer{Size: 4, Rate: 0.0625}).Analyze(f)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Shrunk.Width)
	assert.Equal(t, uint16(400), res.Shrunk.At(0, 0))
	assert.Equal(t, uint16(400), res.Threshold)
	assert.Equal(t, 1, res.Kept)
}

func TestAnalyzeTiesAreKept(t *testing.T) {
	res, err := (&Analyzer{Size: 4, Rate: 0.25}).Analyze(constantFrame(4, 4, 9))
	require.NoError(t, err)
	assert.Equal(t, 16, res.Kept)
	assert.Zero(t, res.Stats.StdDev)
}

func TestAnalyzeRejectsBadSettings(t *testing.T) {
	f := constantFrame(4, 4, 1)
	_, err := (&Analyzer{Size: 0, Rate: 0.1}).Analyze(f)
	assert.ErrorIs(t, err, models.ErrGeometry)

	_, err = (&Analyzer{Size: 4, Rate: 0}).Analyze(f)
	assert.Error(t, err)

	_, err = (&Analyzer{Size: 4, Rate: 1.5}).Analyze(f)
	assert.Error(t, err)
}

// TestAnalyzeRejectsPartialBlocks refuses a side that is at least the
// analysis size but does not split into whole blocks
func TestAnalyzeRejectsPartialBlocks(t *testing.T) {
	a := &Analyzer{Size: 4, Rate: 0.1}

	_, err := a.Analyze(constantFrame(6, 6, 1))
	assert.ErrorIs(t, err, models.ErrGeometry)

	_, err = a.Analyze(constantFrame(8, 6, 1))
	assert.ErrorIs(t, err, models.ErrGeometry)

	// sides below the analysis size stay native
	res, err := a.Analyze(constantFrame(8, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Mask.Width)
	assert.Equal(t, 3, res.Mask.Height)
}

func TestNewAnalyzerDefaults(t *testing.T) {
	a := NewAnalyzer()
	assert.Equal(t, 512, a.Size)
	assert.Equal(t, 0.01, a.Rate)
}
