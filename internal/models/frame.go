package models

import "fmt"

// Frame is a single grayscale image from a frame stack.
type Frame struct {
	// Width is the number of pixels per row
	Width int

	// Height is the number of rows
	Height int

	// Pix holds the pixel intensities in row-major order, row 0 first
	Pix []uint16
}

// NewFrame allocates a zero-valued frame of the given dimensions.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint16, width*height),
	}
}

// Len returns the number of pixels in the frame.
func (f *Frame) Len() int { return f.Width * f.Height }

// At returns the intensity at (x, y).
func (f *Frame) At(x, y int) uint16 { return f.Pix[y*f.Width+x] }

// Set stores v at (x, y).
func (f *Frame) Set(x, y int, v uint16) { f.Pix[y*f.Width+x] = v }

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := NewFrame(f.Width, f.Height)
	copy(c.Pix, f.Pix)
	return c
}

// CheckGeometry verifies that width and height are positive and, when the
// frame carries pixel data, that it matches them.
func (f *Frame) CheckGeometry() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrGeometry, f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height {
		return fmt.Errorf("%w: %d pixels for a %dx%d frame", ErrGeometry, len(f.Pix), f.Width, f.Height)
	}
	return nil
}

// Point is an integer pixel coordinate.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Sub returns p - q componentwise.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }
