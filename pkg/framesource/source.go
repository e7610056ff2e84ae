// Package framesource provides random-access reads of fixed-size frames
// from a flat binary stack of little-endian uint16 pixels.
package framesource

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"driftstack/internal/models"
	"driftstack/internal/monitoring"
)

// BytesPerPixel is the on-disk width of one pixel.
const BytesPerPixel = 2

// Reader is what the processing stages consume: a fixed number of
// same-sized frames addressable by index.
type Reader interface {
	// Len returns the number of complete frames available
	Len() int

	// Geometry returns the frame width and height
	Geometry() (width, height int)

	// ReadFrame decodes frame i, 0 <= i < Len()
	ReadFrame(i int) (*models.Frame, error)
}

// Stack reads frames from any io.ReaderAt holding concatenated raw frames.
type Stack struct {
	r      io.ReaderAt
	width  int
	height int
	count  int
}

// New wraps r, whose total length is size bytes, as a frame stack of
// width x height frames. The frame count is size / (width*height*2); a
// trailing partial frame is ignored.
func New(r io.ReaderAt, size int64, width, height int) (*Stack, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", models.ErrGeometry, width, height)
	}
	frameBytes := int64(width) * int64(height) * BytesPerPixel
	count := size / frameBytes
	if count == 0 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than one %dx%d frame", models.ErrGeometry, size, width, height)
	}
	if rem := size % frameBytes; rem != 0 {
		monitoring.Logf("Warning: ignoring %d trailing bytes (partial frame)", rem)
	}
	return &Stack{r: r, width: width, height: height, count: int(count)}, nil
}

// Len returns the number of complete frames.
func (s *Stack) Len() int { return s.count }

// Geometry returns the frame dimensions.
func (s *Stack) Geometry() (int, int) { return s.width, s.height }

// ReadFrame decodes frame i.
func (s *Stack) ReadFrame(i int) (*models.Frame, error) {
	if i < 0 || i >= s.count {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", models.ErrIndexOutOfRange, i, s.count)
	}
	n := s.width * s.height
	buf := make([]byte, n*BytesPerPixel)
	off := int64(i) * int64(len(buf))
	if _, err := s.r.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("%w: reading frame %d: %v", models.ErrIO, i, err)
	}

	f := models.NewFrame(s.width, s.height)
	for p := 0; p < n; p++ {
		f.Pix[p] = binary.LittleEndian.Uint16(buf[p*BytesPerPixel:])
	}
	return f, nil
}

// File is a Stack backed by an open file.
type File struct {
	*Stack
	file *os.File
	Path string
}

// Open opens the raw stack at path and infers its frame count from the file size.
func Open(path string, width, height int) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	stack, err := New(file, info.Size(), width, height)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Stack: stack, file: file, Path: path}, nil
}

// Close releases the underlying file.
func (f *File) Close() error {
	return f.file.Close()
}

// Memory is an in-memory Reader over already decoded frames.
type Memory struct {
	Frames []*models.Frame
}

// NewMemory builds a Memory source; all frames must share one geometry.
func NewMemory(frames ...*models.Frame) (*Memory, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: empty frame stack", models.ErrGeometry)
	}
	w, h := frames[0].Width, frames[0].Height
	for i, f := range frames {
		if err := f.CheckGeometry(); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if f.Width != w || f.Height != h {
			return nil, fmt.Errorf("%w: frame %d is %dx%d, expected %dx%d", models.ErrGeometry, i, f.Width, f.Height, w, h)
		}
	}
	return &Memory{Frames: frames}, nil
}

// Len returns the number of frames.
func (m *Memory) Len() int { return len(m.Frames) }

// Geometry returns the frame dimensions.
func (m *Memory) Geometry() (int, int) { return m.Frames[0].Width, m.Frames[0].Height }

// ReadFrame returns frame i. The frame is shared, not copied.
func (m *Memory) ReadFrame(i int) (*models.Frame, error) {
	if i < 0 || i >= len(m.Frames) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", models.ErrIndexOutOfRange, i, len(m.Frames))
	}
	return m.Frames[i], nil
}
