// Package drift locates the brightest feature in each frame and measures its
// displacement against the first frame of the stack.
package drift

import "driftstack/internal/models"

// FindPeak returns the coordinates of the brightest pixel. The scan runs in
// row-major order and only a strictly greater value replaces the current
// maximum, so the first of several equal maxima wins. An all-zero frame
// yields (0,0), as does a frame with no columns.
func FindPeak(f *models.Frame) models.Point {
	if f.Width <= 0 {
		return models.Point{}
	}
	var max uint16
	idx := 0
	for i, v := range f.Pix {
		if v > max {
			max = v
			idx = i
		}
	}
	return models.Point{X: idx % f.Width, Y: idx / f.Width}
}
