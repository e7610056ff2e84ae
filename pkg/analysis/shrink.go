// Package analysis downsamples frames by block averaging and thresholds them
// into binary masks for quick inspection.
package analysis

import (
	"fmt"

	"driftstack/internal/models"
)

// Shrink box-filters a frame down to target x target pixels.
func Shrink(f *models.Frame, target int) (*models.Frame, error) {
	return ShrinkTo(f, target, target)
}

// ShrinkTo box-filters f down to width x height. Each axis uses an integer
// block size of source/target; source rows and columns beyond target*block
// are left out. Each output pixel is the block mean, truncated.
func ShrinkTo(f *models.Frame, width, height int) (*models.Frame, error) {
	if err := f.CheckGeometry(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || width > f.Width || height > f.Height {
		return nil, fmt.Errorf("%w: cannot shrink %dx%d to %dx%d",
			models.ErrGeometry, f.Width, f.Height, width, height)
	}
	unitX := f.Width / width
	unitY := f.Height / height
	area := uint64(unitX * unitY)

	out := models.NewFrame(width, height)
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			var sum uint64
			for y := j * unitY; y < (j+1)*unitY; y++ {
				row := f.Pix[y*f.Width:]
				for x := i * unitX; x < (i+1)*unitX; x++ {
					sum += uint64(row[x])
				}
			}
			out.Set(i, j, uint16(sum/area))
		}
	}
	return out, nil
}
