package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Output extensions used when no explicit output path is given.
const (
	DriftExt  = ".drift"
	MeanExt   = ".sum"
	ReportExt = ".drift.yaml"
	PlotExt   = ".drift.png"
	PNGExt    = ".png"
)

// DerivePath replaces the extension of input with ext.
func DerivePath(input, ext string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

// SelectPath is the default output of a select command for frame index.
func SelectPath(input string, index int) string {
	return DerivePath(input, fmt.Sprintf(".frame%d", index))
}

// MaskPath is the default output of an analyze command for frame index.
func MaskPath(input string, index int) string {
	return DerivePath(input, fmt.Sprintf(".mask%d", index))
}

// outputOr returns explicit when set, otherwise the derived path.
func outputOr(explicit, derived string) string {
	if explicit != "" {
		return explicit
	}
	return derived
}
