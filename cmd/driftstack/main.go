// Command driftstack measures feature drift across a raw 16-bit frame stack,
// averages the stack after shifting each frame by its drift record and inspects
// single frames.
//
// Usage:
//
//	driftstack detect  [flags] <stack>   write <stack>.drift records
//	driftstack mean    [flags] <stack>   write the averaged frame <stack>.sum
//	driftstack select  [flags] <stack>   write frame -index to <stack>.frameN
//	driftstack analyze [flags] <stack>   write the mask of frame -index to <stack>.maskN
//	driftstack config  [-o file]          write the default configuration
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"driftstack/internal/monitoring"
	"driftstack/pkg/config"
	"driftstack/pkg/pipeline"
)

const usage = `usage: driftstack <detect|mean|select|analyze|config> [flags] <stack>

Run 'driftstack <command> -h' for the flags of a command.
`

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the flags shared by the stack commands
type options struct {
	configPath string
	output     string
	width      int
	height     int
	workers    int
	png        bool
	quiet      bool

	// command specific
	bound    int
	report   bool
	plot     bool
	drift    string
	invert   bool
	period   int
	index    int
	size     int
	rate     float64
	withBase bool
}

func newFlagSet(name string, stderr io.Writer, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "driftstack.yaml", "YAML configuration file (defaults apply if absent)")
	fs.StringVar(&o.output, "o", "", "output file (default derived from the input name)")
	fs.IntVar(&o.width, "x", config.DefaultFrameSize, "frame width in pixels")
	fs.IntVar(&o.height, "y", config.DefaultFrameSize, "frame height in pixels")
	fs.IntVar(&o.workers, "workers", 1, "concurrent workers per pass (1 = sequential)")
	fs.BoolVar(&o.quiet, "quiet", false, "suppress progress logging")
	return fs
}

func run(args []string, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("no command given")
	}

	cmd, rest := args[0], args[1:]
	o := &options{}
	fs := newFlagSet(cmd, stderr, o)

	switch cmd {
	case "detect":
		fs.IntVar(&o.bound, "bound", 100, "stability bound: frames drifting this far are excluded")
		fs.BoolVar(&o.withBase, "include-reference", false, "also emit a zero record for frame 0")
		fs.BoolVar(&o.report, "report", true, "write a YAML drift report")
		fs.BoolVar(&o.plot, "plot", false, "write a PNG plot of the drift")
	case "mean":
		fs.StringVar(&o.drift, "drift", "", "drift record file (default: all frames, no shift)")
		fs.BoolVar(&o.invert, "invert", false, "negate drift records before shifting")
		fs.IntVar(&o.period, "synthetic-period", 0, "without -drift, shift frame i right by i mod N")
		fs.BoolVar(&o.png, "png", false, "also write a PNG preview")
	case "select":
		fs.IntVar(&o.index, "index", 0, "zero-based frame index")
		fs.BoolVar(&o.png, "png", false, "also write a PNG preview")
	case "analyze":
		fs.IntVar(&o.index, "index", 0, "zero-based frame index")
		fs.IntVar(&o.size, "size", 512, "analysis resolution")
		fs.Float64Var(&o.rate, "rate", 0.01, "fraction of brightest pixels kept")
		fs.BoolVar(&o.png, "png", false, "also write a PNG preview")
	case "config":
		if err := fs.Parse(rest); err != nil {
			return helpOK(err)
		}
		path := o.output
		if path == "" {
			path = o.configPath
		}
		if err := config.CreateDefaultConfigFile(path); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Default configuration written to %s\n", path)
		return nil
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stderr, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	if err := fs.Parse(rest); err != nil {
		return helpOK(err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%s needs exactly one input file", cmd)
	}

	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	applyFlags(fs, o, cfg)

	if o.quiet || !cfg.Output.Verbose {
		monitoring.SetLogger(nil)
	} else {
		monitoring.SetLogger(log.New(stderr, "", log.Ltime).Printf)
	}

	runner, err := pipeline.NewRunner(&pipeline.Params{
		InputPath:  fs.Arg(0),
		OutputPath: o.output,
		DriftPath:  o.drift,
		Index:      o.index,
		Config:     cfg,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	switch cmd {
	case "detect":
		res, err := runner.Detect()
		if err != nil {
			return err
		}
		fmt.Printf("%d records, %d frames excluded, written to %s\n", len(res.Records), res.Excluded, res.OutputPath)
	case "mean":
		res, err := runner.Mean()
		if err != nil {
			return err
		}
		fmt.Printf("averaged %d of %d frames, written to %s\n", res.Count, res.Frames, res.OutputPath)
	case "select":
		res, err := runner.Select()
		if err != nil {
			return err
		}
		fmt.Printf("frame %d written to %s\n", o.index, res.OutputPath)
	case "analyze":
		res, err := runner.Analyze()
		if err != nil {
			return err
		}
		fmt.Printf("frame %d: threshold %d, %d pixels kept, mask written to %s\n",
			o.index, res.Analysis.Threshold, res.Analysis.Kept, res.OutputPath)
	}
	monitoring.Logf("Completed in %.2f seconds", time.Since(start).Seconds())
	return nil
}

// helpOK treats an explicit -h as success
func helpOK(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

// applyFlags overrides config values with the flags given on the command line
func applyFlags(fs *flag.FlagSet, o *options, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "x":
			cfg.Frame.Width = o.width
		case "y":
			cfg.Frame.Height = o.height
		case "workers":
			cfg.Processing.Workers = max(1, o.workers)
		case "png":
			cfg.Output.PNG = o.png
		case "bound":
			cfg.Detect.StabilityBound = o.bound
		case "include-reference":
			cfg.Detect.IncludeReference = o.withBase
		case "report":
			cfg.Output.Report = o.report
		case "plot":
			cfg.Output.Plot = o.plot
		case "invert":
			cfg.Mean.Invert = o.invert
		case "synthetic-period":
			cfg.Mean.SyntheticPeriod = o.period
		case "size":
			cfg.Analyze.Size = o.size
		case "rate":
			cfg.Analyze.DropRate = o.rate
		}
	})
}
