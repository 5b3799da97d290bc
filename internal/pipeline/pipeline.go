// Package pipeline orchestrates the analyzer commands.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/sramtools/internal/analysis"
	"github.com/retroenv/sramtools/internal/app"
	"github.com/retroenv/sramtools/internal/artifact"
	"github.com/retroenv/sramtools/internal/compare"
	"github.com/retroenv/sramtools/internal/detector"
	"github.com/retroenv/sramtools/internal/matrix"
	"github.com/retroenv/sramtools/internal/options"
	"github.com/retroenv/sramtools/internal/projector"
	"github.com/retroenv/sramtools/internal/render"
	"github.com/retroenv/sramtools/internal/verification"
	"golang.org/x/sync/errgroup"
)

// Pipeline executes the analyzer commands on the discovered devices.
type Pipeline struct {
	logger   *log.Logger
	opts     options.Program
	detector *detector.Detector
	analyzer *analysis.Analyzer
	sampler  *compare.Sampler
}

// DiffResult is the outcome of the diff command.
type DiffResult struct {
	Pair       compare.Pair
	Difference compare.Difference
	Image      string // path of the written difference bitmap
}

// New creates a new pipeline for the given options.
func New(logger *log.Logger, opts options.Program) *Pipeline {
	return &Pipeline{
		logger:   logger,
		opts:     opts,
		detector: detector.New(logger),
		analyzer: analysis.New(logger),
		sampler:  compare.NewSampler(opts.Seed),
	}
}

// Execute discovers the devices and runs the configured command, the
// results are printed to the writer.
func (p *Pipeline) Execute(ctx context.Context, w io.Writer) error {
	reg, err := p.detector.Discover(p.opts.SRAMDir)
	if err != nil {
		return fmt.Errorf("discovering devices: %w", err)
	}

	switch p.opts.Command {
	case options.CommandList:
		app.PrintDevices(w, reg.Names())
		return nil

	case options.CommandAnalyze:
		results, err := p.Analyze(ctx, reg, p.opts.Args)
		if len(results) > 0 {
			app.PrintStatistics(w, results)
		}
		return err

	case options.CommandDiff:
		result, err := p.Diff(ctx, reg, p.opts.Args)
		if err != nil {
			return err
		}
		app.PrintDifference(w, result.Pair, result.Difference, result.Image)
		return nil

	case options.CommandBitmap:
		var paths []string
		if p.opts.Mode == options.BitmapCumulative {
			path, err := p.Cumulative(ctx, reg, p.opts.Args, p.mapKind())
			if err != nil {
				return err
			}
			paths = append(paths, path)
		} else {
			paths, err = p.Simple(ctx, reg, p.opts.Args, p.mapKind())
			if err != nil {
				return err
			}
		}
		app.PrintImages(w, paths)
		return nil

	case options.CommandHamming:
		result, err := p.Hamming(ctx, reg, p.opts.Args)
		if err != nil {
			return err
		}
		app.PrintHamming(w, result)
		return nil

	case options.CommandVerify:
		return p.Verify(ctx, reg, p.opts.Args)

	default:
		return fmt.Errorf("unsupported command '%s'", p.opts.Command)
	}
}

// Analyze builds the caches and maps of the selected devices concurrently.
// A failing device does not stop the others, the results of all successful
// devices are returned in device order together with the joined errors.
func (p *Pipeline) Analyze(ctx context.Context, reg *detector.Registry, names []string) ([]*analysis.Result, error) {
	devices, err := reg.Select(names)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices found in '%s': %w", reg.Dir(), analysis.ErrEmptyInput)
	}

	results := make([]*analysis.Result, len(devices))
	errs := make([]error, len(devices))

	var g errgroup.Group
	g.SetLimit(p.workers())
	for i, dev := range devices {
		g.Go(func() error {
			result, err := p.analyzer.Analyze(ctx, dev)
			if err != nil {
				p.logger.Error("Analyzing device failed",
					log.String("device", dev.Name),
					log.Err(err))
				errs[i] = fmt.Errorf("analyzing device '%s': %w", dev.Name, err)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	succeeded := make([]*analysis.Result, 0, len(results))
	for _, result := range results {
		if result != nil {
			succeeded = append(succeeded, result)
		}
	}
	return succeeded, errors.Join(errs...)
}

// Diff compares two memory maps of one or two devices and writes the green
// difference bitmap. The maps are the ones named by the images option or a
// random pair.
func (p *Pipeline) Diff(ctx context.Context, reg *detector.Registry, names []string) (DiffResult, error) {
	pair, err := p.selectPair(reg, names, p.opts.ImageNames())
	if err != nil {
		return DiffResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return DiffResult{}, err
	}

	p.logger.Info("Comparing memory maps",
		log.String("device", pair.DeviceA.Name),
		log.String("first", pair.NameA),
		log.String("second_device", pair.DeviceB.Name),
		log.String("second", pair.NameB))

	a, b, err := pair.Load()
	if err != nil {
		return DiffResult{}, err
	}
	diff, err := compare.Diff(a, b)
	if err != nil {
		return DiffResult{}, fmt.Errorf("comparing '%s' and '%s': %w", pair.NameA, pair.NameB, err)
	}

	res, err := projector.ParseResolution(p.opts.Resolution)
	if err != nil {
		return DiffResult{}, err
	}
	buf, err := projector.Reshape(diff.Pixels, res)
	if err != nil {
		return DiffResult{}, err
	}

	name := "diff_" + pair.DeviceA.Name
	if !pair.SameDevice() {
		name += "_" + pair.DeviceB.Name
	}
	path, err := p.writeImage(name, buf)
	if err != nil {
		return DiffResult{}, err
	}

	return DiffResult{
		Pair:       pair,
		Difference: diff,
		Image:      path,
	}, nil
}

// Simple writes one bitmap of the selected map kind per device.
func (p *Pipeline) Simple(ctx context.Context, reg *detector.Registry, names []string, kind artifact.Kind) ([]string, error) {
	devices, err := reg.Select(names)
	if err != nil {
		return nil, err
	}
	res, err := projector.ParseResolution(p.opts.Resolution)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(devices))
	for _, dev := range devices {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		p.logger.Info("Generating bitmap",
			log.String("device", dev.Name),
			log.Stringer("map", kind))

		m, err := dev.Store().ReadMap(kind)
		if err != nil {
			return paths, err
		}
		buf, err := projector.Project(m, res)
		if err != nil {
			return paths, fmt.Errorf("device '%s': %w", dev.Name, err)
		}

		path, err := p.writeImage(dev.Name+"_"+kind.String(), buf)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Cumulative writes one bitmap of the selected map kind averaged over all
// given devices.
func (p *Pipeline) Cumulative(ctx context.Context, reg *detector.Registry, names []string, kind artifact.Kind) (string, error) {
	devices, err := reg.Select(names)
	if err != nil {
		return "", err
	}
	res, err := projector.ParseResolution(p.opts.Resolution)
	if err != nil {
		return "", err
	}

	deviceNames := make([]string, 0, len(devices))
	maps := make([]matrix.Map, 0, len(devices))
	for _, dev := range devices {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		p.logger.Info("Adding device to cumulative bitmap",
			log.String("device", dev.Name),
			log.Stringer("map", kind))

		m, err := dev.Store().ReadMap(kind)
		if err != nil {
			return "", err
		}
		deviceNames = append(deviceNames, dev.Name)
		maps = append(maps, m)
	}

	cumulative, err := projector.Cumulative(deviceNames, maps)
	if err != nil {
		return "", err
	}
	buf, err := projector.Project(cumulative, res)
	if err != nil {
		return "", err
	}
	return p.writeImage("cumulative_"+kind.String(), buf)
}

// Hamming computes the average Hamming distance per row of a random pair of
// memory maps of one or two devices.
func (p *Pipeline) Hamming(ctx context.Context, reg *detector.Registry, names []string) (compare.HammingResult, error) {
	pair, err := p.selectPair(reg, names, nil)
	if err != nil {
		return compare.HammingResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return compare.HammingResult{}, err
	}

	p.logger.Debug("Selected memory maps",
		log.String("first", pair.DeviceA.Name+"/"+pair.NameA),
		log.String("second", pair.DeviceB.Name+"/"+pair.NameB))

	return compare.PairHamming(pair)
}

// Verify checks the caches of the selected devices against their memory dumps.
func (p *Pipeline) Verify(ctx context.Context, reg *detector.Registry, names []string) error {
	devices, err := reg.Select(names)
	if err != nil {
		return err
	}

	var errs []error
	for _, dev := range devices {
		if err := verification.VerifyDevice(ctx, p.logger, dev); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			errs = append(errs, fmt.Errorf("verification failed: %w", err))
			continue
		}
		p.logger.Info("Verification successful",
			log.String("device", dev.Name),
			log.Int("dumps", len(dev.RawDumps)))
	}
	return errors.Join(errs...)
}

// selectPair returns the named pair of memory maps or a random one.
func (p *Pipeline) selectPair(reg *detector.Registry, names, images []string) (compare.Pair, error) {
	if len(names) == 0 || len(names) > 2 {
		return compare.Pair{}, fmt.Errorf("expected one or two device names, got %d", len(names))
	}

	devA, err := reg.Get(names[0])
	if err != nil {
		return compare.Pair{}, err
	}
	devB := devA
	if len(names) == 2 {
		if devB, err = reg.Get(names[1]); err != nil {
			return compare.Pair{}, err
		}
	}

	if len(images) == 2 {
		return compare.NamedPair(devA, images[0], devB, images[1]), nil
	}
	return p.sampler.RandomPair(devA, devB)
}

func (p *Pipeline) writeImage(name string, buf projector.Buffer) (string, error) {
	dir, format := p.opts.Output, strings.ToLower(p.opts.Format)
	if dir == "" {
		dir = "."
	}
	if format == "" {
		format = render.PNG
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, name+"."+format)
	if err := render.WriteFile(path, buf); err != nil {
		return "", err
	}
	p.logger.Debug("Wrote bitmap", log.String("file", path))
	return path, nil
}

func (p *Pipeline) mapKind() artifact.Kind {
	if p.opts.Entropy {
		return artifact.Entropy
	}
	return artifact.Probability
}

func (p *Pipeline) workers() int {
	if p.opts.Workers > 0 {
		return p.opts.Workers
	}
	return runtime.NumCPU()
}
