package models

import "fmt"

// DriftRecord is the displacement of one frame's feature relative to the
// reference frame. Positive DX/DY means the feature moved right/down.
type DriftRecord struct {
	// Index is the zero-based position of the frame in the stack
	Index int `yaml:"index"`

	// DX is the horizontal displacement in pixels
	DX int `yaml:"dx"`

	// DY is the vertical displacement in pixels
	DY int `yaml:"dy"`
}

func (r DriftRecord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", r.Index, r.DX, r.DY)
}

// DriftRecords is a sequence of records ordered by strictly increasing Index.
// Frames missing from the sequence are excluded from averaging.
type DriftRecords []DriftRecord

// Validate checks that indices are non-negative and strictly increasing.
func (rs DriftRecords) Validate() error {
	for i, r := range rs {
		if r.Index < 0 {
			return fmt.Errorf("%w: record %d has negative frame index %d", ErrUnsortedRecords, i, r.Index)
		}
		if i > 0 && r.Index <= rs[i-1].Index {
			return fmt.Errorf("%w: record %d index %d follows %d", ErrUnsortedRecords, i, r.Index, rs[i-1].Index)
		}
	}
	return nil
}

// Inverted returns a copy with every displacement negated.
func (rs DriftRecords) Inverted() DriftRecords {
	out := make(DriftRecords, len(rs))
	for i, r := range rs {
		out[i] = DriftRecord{Index: r.Index, DX: -r.DX, DY: -r.DY}
	}
	return out
}
