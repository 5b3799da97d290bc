// Package verification verifies that the cached bit matrices of a device
// still match the raw memory dumps they were built from.
package verification

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

// ErrMismatch is returned when a cache differs from its source dump.
var ErrMismatch = errors.New("cache does not match memory dump")

// maxReportedMismatches limits the logged bit positions per cache.
const maxReportedMismatches = 10

// VerifyDevice re-decodes every raw dump of the device and compares it bit
// for bit with its cache. All dumps are checked before an error is returned.
func VerifyDevice(ctx context.Context, logger *log.Logger, dev *detector.Device) error {
	ldr := loader.New()
	store := dev.Store()

	var errs []error
	for _, dumpName := range dev.RawDumps {
		if err := ctx.Err(); err != nil {
			return err
		}

		cacheName := artifact.CacheName(dumpName)
		if err := verifyDump(logger, ldr, store, dev, dumpName, cacheName); err != nil {
			errs = append(errs, err)
			continue
		}

		logger.Debug("Cache verified",
			log.String("device", dev.Name),
			log.String("dump", dumpName))
	}
	return errors.Join(errs...)
}

func verifyDump(logger *log.Logger, ldr *loader.Loader, store *artifact.Store,
	dev *detector.Device, dumpName, cacheName string) error {

	dump, err := ldr.Load(filepath.Join(dev.Dir, dumpName))
	if err != nil {
		return fmt.Errorf("reading dump for comparison: %w", err)
	}
	source, err := matrix.FromRows(dump.Rows)
	if err != nil {
		return fmt.Errorf("dump '%s': %w", dumpName, err)
	}

	cached, err := store.ReadBits(cacheName)
	if err != nil {
		return fmt.Errorf("reading cache for comparison: %w", err)
	}

	if err := checkBitsEqual(logger, dev.Name, source, cached); err != nil {
		return fmt.Errorf("device '%s' dump '%s': %w", dev.Name, dumpName, err)
	}
	return nil
}

func checkBitsEqual(logger *log.Logger, device string, source, cached matrix.Bits) error {
	if source.Shape != cached.Shape {
		return fmt.Errorf("%w: mismatched shapes, %s != %s", ErrMismatch, source.Shape, cached.Shape)
	}

	var diffs int
	for i := range source.Data {
		if source.Data[i] == cached.Data[i] {
			continue
		}

		diffs++
		if diffs <= maxReportedMismatches {
			logger.Error("Bit mismatch",
				log.String("device", device),
				log.Int("row", i/source.Cols),
				log.Int("column", i%source.Cols))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d bit mismatches", ErrMismatch, diffs)
}
