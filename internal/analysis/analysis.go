// Package analysis builds bit matrix caches from raw memory dumps and
// aggregates them into per device probability and entropy maps.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/sramtools/internal/artifact"
	"github.com/retroenv/sramtools/internal/detector"
	"github.com/retroenv/sramtools/internal/loader"
	"github.com/retroenv/sramtools/internal/matrix"
)

// ErrDuplicateCache is returned when two dumps of a device map to the same cache file.
var ErrDuplicateCache = errors.New("dumps share a cache name")

// Result contains the aggregation output of one device.
type Result struct {
	Device      string
	Caches      []string // bit matrix caches the maps were aggregated from
	Shape       matrix.Shape
	Probability matrix.Map
	Entropy     matrix.Map
	MeanEntropy float64 // average entropy per bit, 0..1
}

// Analyzer turns the raw dumps of a device into cached artifacts.
type Analyzer struct {
	logger *log.Logger
	loader *loader.Loader
}

// New creates a new analyzer.
func New(logger *log.Logger) *Analyzer {
	return &Analyzer{
		logger: logger,
		loader: loader.New(),
	}
}

// Analyze builds the bit matrix caches of all raw dumps of the device and
// aggregates them into the probability and entropy maps.
func (a *Analyzer) Analyze(ctx context.Context, dev *detector.Device) (*Result, error) {
	caches, err := a.Build(ctx, dev)
	if err != nil {
		return nil, err
	}
	return a.Aggregate(ctx, dev, caches)
}

// Build decodes every raw dump of the device in order and writes one bit
// matrix cache per dump. The sizes of all matrices are compared after the
// last dump is decoded; caches written before a size mismatch is detected
// are kept.
func (a *Analyzer) Build(ctx context.Context, dev *detector.Device) ([]string, error) {
	if len(dev.RawDumps) == 0 {
		return nil, fmt.Errorf("device '%s' has no memory dumps: %w", dev.Name, ErrEmptyInput)
	}

	if err := checkCacheNames(dev); err != nil {
		return nil, err
	}

	a.logger.Info("Preprocessing memory maps", log.String("device", dev.Name))

	store := dev.Store()
	caches := make([]string, 0, len(dev.RawDumps))
	sizes := make([]int, 0, len(dev.RawDumps))

	for _, dumpName := range dev.RawDumps {
		if err := ctx.Err(); err != nil {
			return caches, err
		}

		m, err := a.buildMatrix(filepath.Join(dev.Dir, dumpName))
		if err != nil {
			return caches, fmt.Errorf("device '%s': %w", dev.Name, err)
		}

		cacheName := artifact.CacheName(dumpName)
		if err := store.WriteBits(cacheName, m); err != nil {
			return caches, fmt.Errorf("device '%s': %w", dev.Name, err)
		}

		a.logger.Debug("Cached memory map",
			log.String("device", dev.Name),
			log.String("dump", dumpName),
			log.String("cache", cacheName),
			log.Stringer("shape", m.Shape))

		caches = append(caches, cacheName)
		sizes = append(sizes, m.Cells())
	}

	if err := matrix.CheckSizes(dev.Name, dev.RawDumps, sizes); err != nil {
		a.logger.Warn("Keeping caches of device with mismatching memory maps",
			log.String("device", dev.Name),
			log.Int("caches", len(caches)))
		return caches, err
	}
	return caches, nil
}

// checkCacheNames fails before anything is written if a cache would be
// overwritten by a later dump of the same device.
func checkCacheNames(dev *detector.Device) error {
	owners := make(map[string]string, len(dev.RawDumps))
	for _, dumpName := range dev.RawDumps {
		cacheName := artifact.CacheName(dumpName)
		if owner, ok := owners[cacheName]; ok {
			return fmt.Errorf("device '%s': '%s' and '%s' both map to '%s': %w",
				dev.Name, owner, dumpName, cacheName, ErrDuplicateCache)
		}
		owners[cacheName] = dumpName
	}
	return nil
}

func (a *Analyzer) buildMatrix(path string) (matrix.Bits, error) {
	dump, err := a.loader.Load(path)
	if err != nil {
		return matrix.Bits{}, err
	}

	m, err := matrix.FromRows(dump.Rows)
	if err != nil {
		if errors.Is(err, matrix.ErrEmpty) {
			return matrix.Bits{}, fmt.Errorf("dump '%s' contains no data records: %w", dump.Name, ErrEmptyInput)
		}
		return matrix.Bits{}, fmt.Errorf("dump '%s': %w", dump.Name, err)
	}

	if dump.Skipped > 0 {
		a.logger.Debug("Skipped non data record lines",
			log.String("dump", dump.Name),
			log.Int("lines", dump.Skipped))
	}
	return m, nil
}

// Aggregate loads the given bit matrix caches of the device, computes the
// probability and entropy maps and writes them to the device directory.
func (a *Analyzer) Aggregate(ctx context.Context, dev *detector.Device, caches []string) (*Result, error) {
	if len(caches) == 0 {
		return nil, fmt.Errorf("device '%s': %w", dev.Name, ErrEmptyInput)
	}

	a.logger.Info("Analyzing SRAM", log.String("device", dev.Name))

	store := dev.Store()
	matrices := make([]matrix.Bits, 0, len(caches))
	sizes := make([]int, 0, len(caches))
	for _, name := range caches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, err := store.ReadBits(name)
		if err != nil {
			return nil, fmt.Errorf("loading cache into frequency matrix: %w", err)
		}
		matrices = append(matrices, m)
		sizes = append(sizes, m.Cells())
	}

	if err := matrix.CheckSizes(dev.Name, caches, sizes); err != nil {
		return nil, err
	}

	probability, entropy, err := Aggregate(matrices)
	if err != nil {
		return nil, fmt.Errorf("device '%s': %w", dev.Name, err)
	}

	if err := store.WriteMap(artifact.Probability, probability); err != nil {
		return nil, fmt.Errorf("device '%s': %w", dev.Name, err)
	}
	if err := store.WriteMap(artifact.Entropy, entropy); err != nil {
		return nil, fmt.Errorf("device '%s': %w", dev.Name, err)
	}

	result := &Result{
		Device:      dev.Name,
		Caches:      caches,
		Shape:       probability.Shape,
		Probability: probability,
		Entropy:     entropy,
		MeanEntropy: entropy.Mean(),
	}

	a.logger.Info("Entropy per bit in device",
		log.String("device", dev.Name),
		log.String("entropy", fmt.Sprintf("%f%%", result.MeanEntropy*100)))

	return result, nil
}
