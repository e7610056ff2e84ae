package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"driftstack/internal/models"
	"driftstack/pkg/drift"
	"driftstack/pkg/rawio"
)

// DriftReport is the human-readable companion of a drift record file.
type DriftReport struct {
	RunID          string              `yaml:"runID"`
	Created        time.Time           `yaml:"created"`
	Input          string              `yaml:"input"`
	Width          int                 `yaml:"width"`
	Height         int                 `yaml:"height"`
	Frames         int                 `yaml:"frames"`
	StabilityBound int                 `yaml:"stabilityBound"`
	Reference      models.Point        `yaml:"reference"`
	Excluded       int                 `yaml:"excluded"`
	Summary        drift.Summary       `yaml:"summary"`
	Records        models.DriftRecords `yaml:"records"`
}

// NewDriftReport describes one detection run.
func NewDriftReport(input string, width, height, bound int, res *drift.Result) *DriftReport {
	return &DriftReport{
		RunID:          uuid.NewString(),
		Created:        time.Now().UTC(),
		Input:          input,
		Width:          width,
		Height:         height,
		Frames:         res.Frames,
		StabilityBound: bound,
		Reference:      res.Reference,
		Excluded:       res.Excluded,
		Summary:        res.Summary,
		Records:        res.Records,
	}
}

// SaveReport writes report as YAML.
func SaveReport(path string, report *DriftReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("error marshaling drift report: %w", err)
	}
	return rawio.WriteFileAtomic(path, func(w io.Writer) error {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("%w: %v", models.ErrIO, err)
		}
		return nil
	})
}

// LoadReport reads a YAML drift report.
func LoadReport(path string) (*DriftReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	report := &DriftReport{}
	if err := yaml.Unmarshal(data, report); err != nil {
		return nil, fmt.Errorf("error parsing drift report: %w", err)
	}
	return report, nil
}
