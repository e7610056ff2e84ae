// Package pipeline runs the driftstack commands end to end: it opens the raw
// stack, drives the processing stages and writes their outputs.
package pipeline

import (
	"fmt"

	"driftstack/internal/models"
	"driftstack/internal/monitoring"
	"driftstack/pkg/analysis"
	"driftstack/pkg/config"
	"driftstack/pkg/drift"
	"driftstack/pkg/framesource"
	"driftstack/pkg/rawio"
	"driftstack/pkg/stacking"
	"driftstack/pkg/visualization"
)

// Params holds the inputs of one command invocation.
type Params struct {
	// InputPath is the raw frame stack
	InputPath string

	// OutputPath overrides the output derived from InputPath
	OutputPath string

	// DriftPath is the drift record file read by Mean; empty means every
	// frame with zero drift (or the synthetic pattern when configured)
	DriftPath string

	// Index is the zero-based frame used by Select and Analyze
	Index int

	// Config carries geometry and per-stage settings
	Config *config.Config
}

// Runner executes commands against one raw stack.
type Runner struct {
	params *Params
	cfg    *config.Config
}

// NewRunner creates a runner. A nil Config means the defaults.
func NewRunner(params *Params) (*Runner, error) {
	cfg := params.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if params.InputPath == "" {
		return nil, fmt.Errorf("no input file given")
	}
	return &Runner{params: params, cfg: cfg}, nil
}

// DetectResult reports where Detect wrote its outputs.
type DetectResult struct {
	*drift.Result
	OutputPath string
	ReportPath string
	PlotPath   string
}

// MeanResult reports the outcome of Mean.
type MeanResult struct {
	OutputPath string
	PNGPath    string
	Frames     int
	Count      int
}

// FrameResult reports the outcome of Select and Analyze.
type FrameResult struct {
	OutputPath string
	PNGPath    string
	Frame      *models.Frame
	Analysis   *analysis.Result
}

func (r *Runner) open() (*framesource.File, error) {
	src, err := framesource.Open(r.params.InputPath, r.cfg.Frame.Width, r.cfg.Frame.Height)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("Loaded %s: %d frames of %dx%d", r.params.InputPath, src.Len(), r.cfg.Frame.Width, r.cfg.Frame.Height)
	return src, nil
}

// Detect measures the drift of every frame and writes the accepted records.
func (r *Runner) Detect() (*DetectResult, error) {
	monitoring.Logf("Step 1: Opening frame stack...")
	src, err := r.open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	monitoring.Logf("Step 2: Locating peaks and measuring drift...")
	est := drift.NewEstimator(r.cfg.Detect.StabilityBound)
	est.IncludeReference = r.cfg.Detect.IncludeReference
	est.Workers = r.cfg.Processing.Workers
	res, err := est.Estimate(src)
	if err != nil {
		return nil, fmt.Errorf("drift detection failed: %w", err)
	}

	out := &DetectResult{
		Result:     res,
		OutputPath: outputOr(r.params.OutputPath, DerivePath(r.params.InputPath, DriftExt)),
	}

	monitoring.Logf("Step 3: Writing %d drift records to %s...", len(res.Records), out.OutputPath)
	if err := rawio.SaveDriftRecords(out.OutputPath, res.Records); err != nil {
		return nil, fmt.Errorf("failed to write drift records: %w", err)
	}

	if r.cfg.Output.Report {
		out.ReportPath = DerivePath(out.OutputPath, ReportExt)
		report := NewDriftReport(r.params.InputPath, r.cfg.Frame.Width, r.cfg.Frame.Height, est.StabilityBound, res)
		if err := SaveReport(out.ReportPath, report); err != nil {
			return nil, fmt.Errorf("failed to write drift report: %w", err)
		}
	}

	if r.cfg.Output.Plot {
		if len(res.Records) == 0 {
			monitoring.Logf("Warning: no drift records, skipping plot")
		} else {
			out.PlotPath = DerivePath(out.OutputPath, PlotExt)
			if err := visualization.PlotDrift(res.Records, r.params.InputPath, out.PlotPath); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// records returns the drift records Mean should use.
func (r *Runner) records(n int) (models.DriftRecords, error) {
	var recs models.DriftRecords
	switch {
	case r.params.DriftPath != "":
		loaded, err := rawio.LoadDriftRecords(r.params.DriftPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read drift records: %w", err)
		}
		monitoring.Logf("Read %d drift records from %s", len(loaded), r.params.DriftPath)
		recs = loaded
	case r.cfg.Mean.SyntheticPeriod > 0:
		monitoring.Logf("No drift file, shifting frame i by i mod %d", r.cfg.Mean.SyntheticPeriod)
		recs = stacking.SyntheticDrift(n, r.cfg.Mean.SyntheticPeriod)
	default:
		monitoring.Logf("No drift file, averaging all %d frames without shift", n)
		recs = stacking.ZeroDrift(n)
	}
	if r.cfg.Mean.Invert {
		recs = recs.Inverted()
	}
	return recs, nil
}

// Mean writes the drift-compensated average of the stack.
func (r *Runner) Mean() (*MeanResult, error) {
	monitoring.Logf("Step 1: Opening frame stack...")
	src, err := r.open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	recs, err := r.records(src.Len())
	if err != nil {
		return nil, err
	}

	monitoring.Logf("Step 2: Accumulating shifted frames...")
	avg, count, err := stacking.Accumulate(src, recs, stacking.Options{Workers: r.cfg.Processing.Workers})
	if err != nil {
		return nil, fmt.Errorf("averaging failed: %w", err)
	}

	out := &MeanResult{
		OutputPath: outputOr(r.params.OutputPath, DerivePath(r.params.InputPath, MeanExt)),
		Frames:     src.Len(),
		Count:      count,
	}
	monitoring.Logf("Step 3: Writing average of %d frames to %s...", count, out.OutputPath)
	if err := rawio.SaveFrame(out.OutputPath, avg); err != nil {
		return nil, fmt.Errorf("failed to write average: %w", err)
	}
	if r.cfg.Output.PNG {
		out.PNGPath = out.OutputPath + PNGExt
		if err := visualization.SaveFramePNG(avg, out.PNGPath); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// readIndexed opens the stack and reads the frame named by Params.Index.
func (r *Runner) readIndexed() (*models.Frame, error) {
	src, err := r.open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	f, err := src.ReadFrame(r.params.Index)
	if err != nil {
		return nil, fmt.Errorf("cannot select frame: %w", err)
	}
	return f, nil
}

// Select extracts one frame unchanged.
func (r *Runner) Select() (*FrameResult, error) {
	f, err := r.readIndexed()
	if err != nil {
		return nil, err
	}

	out := &FrameResult{
		OutputPath: outputOr(r.params.OutputPath, SelectPath(r.params.InputPath, r.params.Index)),
		Frame:      f,
	}
	monitoring.Logf("Writing frame %d to %s", r.params.Index, out.OutputPath)
	if err := rawio.SaveFrame(out.OutputPath, f); err != nil {
		return nil, fmt.Errorf("failed to write frame: %w", err)
	}
	if r.cfg.Output.PNG {
		out.PNGPath = out.OutputPath + PNGExt
		if err := visualization.SaveFramePNG(f, out.PNGPath); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Analyze thresholds one frame and writes the binary mask.
func (r *Runner) Analyze() (*FrameResult, error) {
	f, err := r.readIndexed()
	if err != nil {
		return nil, err
	}

	a := &analysis.Analyzer{Size: r.cfg.Analyze.Size, Rate: r.cfg.Analyze.DropRate}
	res, err := a.Analyze(f)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	monitoring.Logf("Frame %d at %dx%d: threshold %d keeps %d pixels (mean %.1f, sd %.1f, max %.0f)",
		r.params.Index, res.Mask.Width, res.Mask.Height, res.Threshold, res.Kept,
		res.Stats.Mean, res.Stats.StdDev, res.Stats.Max)

	out := &FrameResult{
		OutputPath: outputOr(r.params.OutputPath, MaskPath(r.params.InputPath, r.params.Index)),
		Frame:      res.Mask,
		Analysis:   res,
	}
	if err := rawio.SaveFrame(out.OutputPath, res.Mask); err != nil {
		return nil, fmt.Errorf("failed to write mask: %w", err)
	}
	if r.cfg.Output.PNG {
		out.PNGPath = out.OutputPath + PNGExt
		if err := visualization.SaveMaskPNG(res.Mask, out.PNGPath); err != nil {
			return nil, err
		}
	}
	return out, nil
}
