// Package app provides the banner and the human readable result output of
// the analyzer commands.
package app

import (
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/sramtools/internal/analysis"
	"github.com/retroenv/sramtools/internal/compare"
	"github.com/retroenv/sramtools/internal/options"
)

// PrintBanner prints the application name and version.
func PrintBanner(w io.Writer, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	_, _ = fmt.Fprintln(w, "[-----------------------------------------]")
	_, _ = fmt.Fprintln(w, "[ sramtools - SRAM startup value analyzer ]")
	_, _ = fmt.Fprintf(w, "[-----------------------------------------]\n\n")
	_, _ = fmt.Fprintf(w, "version: %s\n\n", buildinfo.Version(version, commit, date))
}

// PrintDevices prints the names of all discovered devices.
func PrintDevices(w io.Writer, names []string) {
	_, _ = fmt.Fprintln(w, "Device names:")
	_, _ = fmt.Fprintln(w, "--------------------")

	if len(names) == 0 {
		_, _ = fmt.Fprintln(w, "No devices found.")
		return
	}
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "~> %s\n", name)
	}
}

// PrintStatistics prints the entropy per bit of every analyzed device.
func PrintStatistics(w io.Writer, results []*analysis.Result) {
	_, _ = fmt.Fprintln(w, "\nStatistical results:")
	_, _ = fmt.Fprintf(w, "======================\n\n")
	_, _ = fmt.Fprintln(w, "Device\t: Entropy (%)")
	_, _ = fmt.Fprintln(w, "---------------------")

	for _, result := range results {
		_, _ = fmt.Fprintf(w, "%s\t: %f\n", result.Device, result.MeanEntropy*100)
	}
}

// PrintDifference prints the number of differing bits of a compared pair.
func PrintDifference(w io.Writer, pair compare.Pair, diff compare.Difference, image string) {
	_, _ = fmt.Fprintf(w, "Compared %s/%s with %s/%s\n",
		pair.DeviceA.Name, pair.NameA, pair.DeviceB.Name, pair.NameB)
	_, _ = fmt.Fprintf(w, "Total number of different bits: %d (%f%%)\n", diff.Count, diff.Ratio()*100)
	if image != "" {
		_, _ = fmt.Fprintf(w, "Difference bitmap written to %s\n", image)
	}
}

// PrintHamming prints the average Hamming distance of a sampled pair.
func PrintHamming(w io.Writer, result compare.HammingResult) {
	_, _ = fmt.Fprintf(w, "Compared %s/%s with %s/%s\n",
		result.DeviceA, result.ArtifactA, result.DeviceB, result.ArtifactB)
	_, _ = fmt.Fprintf(w, "Average Hamming distance per %d-bit line: %f\n", result.Width, result.Distance)
}

// PrintImages prints the paths of the written bitmaps.
func PrintImages(w io.Writer, paths []string) {
	for _, path := range paths {
		_, _ = fmt.Fprintf(w, "Bitmap written to %s\n", path)
	}
}
