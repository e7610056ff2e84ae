package models

import "errors"

// Error kinds shared by every stage. Callers wrap them with context and
// match with errors.Is.
var (
	// ErrIO covers missing files, short reads and failed writes.
	ErrIO = errors.New("i/o failure")

	// ErrIndexOutOfRange is returned when a frame index is not in [0, n_image).
	ErrIndexOutOfRange = errors.New("frame index out of range")

	// ErrEmptyAccumulation is returned when no frame contributed to an average.
	ErrEmptyAccumulation = errors.New("no frames contributed to the average")

	// ErrGeometry is returned when frame dimensions are inconsistent.
	ErrGeometry = errors.New("geometry mismatch")

	// ErrUnsortedRecords is returned when drift records are not strictly increasing.
	ErrUnsortedRecords = errors.New("drift records not strictly increasing")

	// ErrRecordOverflow is returned when a record field does not fit in int16.
	ErrRecordOverflow = errors.New("drift record field overflows int16")
)
