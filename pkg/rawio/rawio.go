// Package rawio encodes frames and drift records in the headerless
// little-endian layouts used on disk.
package rawio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"driftstack/internal/models"
)

// RecordSize is the encoded size of one drift record: three int16 values.
const RecordSize = 6

// WriteFrame writes f as little-endian uint16 pixels.
func WriteFrame(w io.Writer, f *models.Frame) error {
	bw := bufio.NewWriter(w)
	var buf [2]byte
	for _, v := range f.Pix {
		binary.LittleEndian.PutUint16(buf[:], v)
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("%w: %v", models.ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	return nil
}

// ReadFrame reads exactly one width x height frame from r.
func ReadFrame(r io.Reader, width, height int) (*models.Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", models.ErrGeometry, width, height)
	}
	f := models.NewFrame(width, height)
	if err := binary.Read(bufio.NewReader(r), binary.LittleEndian, f.Pix); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	return f, nil
}

// ReadDriftRecords decodes every complete record in r. Trailing bytes that do
// not form a full record are ignored.
func ReadDriftRecords(r io.Reader) (models.DriftRecords, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	n := len(data) / RecordSize
	recs := make(models.DriftRecords, n)
	for i := 0; i < n; i++ {
		b := data[i*RecordSize:]
		recs[i] = models.DriftRecord{
			Index: int(int16(binary.LittleEndian.Uint16(b[0:]))),
			DX:    int(int16(binary.LittleEndian.Uint16(b[2:]))),
			DY:    int(int16(binary.LittleEndian.Uint16(b[4:]))),
		}
	}
	return recs, nil
}

// WriteDriftRecords encodes recs as int16 triples.
func WriteDriftRecords(w io.Writer, recs models.DriftRecords) error {
	bw := bufio.NewWriter(w)
	var buf [RecordSize]byte
	for _, r := range recs {
		for k, v := range [3]int{r.Index, r.DX, r.DY} {
			if v < math.MinInt16 || v > math.MaxInt16 {
				return fmt.Errorf("%w: record %s", models.ErrRecordOverflow, r)
			}
			binary.LittleEndian.PutUint16(buf[2*k:], uint16(int16(v)))
		}
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("%w: %v", models.ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	return nil
}

// LoadDriftRecords reads a drift record file.
func LoadDriftRecords(path string) (models.DriftRecords, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	defer file.Close()
	return ReadDriftRecords(file)
}

// WriteFileAtomic writes through a temporary file in the destination
// directory and renames it into place once fn succeeds, so a failed write
// never leaves a truncated output behind.
func WriteFileAtomic(path string, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	return nil
}

// SaveFrame writes f to path atomically.
func SaveFrame(path string, f *models.Frame) error {
	return WriteFileAtomic(path, func(w io.Writer) error { return WriteFrame(w, f) })
}

// SaveDriftRecords writes recs to path atomically.
func SaveDriftRecords(path string, recs models.DriftRecords) error {
	return WriteFileAtomic(path, func(w io.Writer) error { return WriteDriftRecords(w, recs) })
}
