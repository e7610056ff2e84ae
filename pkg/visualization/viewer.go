// Package visualization renders frames, masks and drift traces as PNG
// images for quick inspection.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"driftstack/internal/models"
)

// FrameImage converts a frame into a 16-bit grayscale image, stretching the
// range min..max of the frame onto 0..65535. A flat frame renders black.
func FrameImage(f *models.Frame) (*image.Gray16, error) {
	if err := f.CheckGeometry(); err != nil {
		return nil, err
	}
	pix, width, height := f.Pix, f.Width, f.Height

	lo, hi := pix[0], pix[0]
	for _, v := range pix {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := float64(hi) - float64(lo)

	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var value uint16
			if span > 0 {
				value = uint16((float64(pix[y*width+x]) - float64(lo)) / span * 65535)
			}
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img, nil
}

// MaskImage converts a 0/1 mask into a black and white 8-bit image.
func MaskImage(mask *models.Frame) (*image.Gray, error) {
	if err := mask.CheckGeometry(); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, mask.Width, mask.Height))
	for i, v := range mask.Pix {
		if v != 0 {
			img.Pix[i] = 255
		}
	}
	return img, nil
}

// SavePNG writes img to filename
func SavePNG(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return file.Close()
}

// SaveFramePNG writes a contrast-stretched preview of a frame.
func SaveFramePNG(f *models.Frame, filename string) error {
	img, err := FrameImage(f)
	if err != nil {
		return err
	}
	return SavePNG(img, filename)
}

// SaveMaskPNG writes a mask preview.
func SaveMaskPNG(mask *models.Frame, filename string) error {
	img, err := MaskImage(mask)
	if err != nil {
		return err
	}
	return SavePNG(img, filename)
}
