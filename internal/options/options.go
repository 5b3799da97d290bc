// Package options contains the program options.
package options

import "strings"

// Commands supported by the program.
const (
	CommandList    = "ls"
	CommandAnalyze = "analyze"
	CommandDiff    = "diff"
	CommandBitmap  = "bitmap"
	CommandHamming = "hamming"
	CommandVerify  = "verify"
)

// Bitmap modes of the bitmap command.
const (
	BitmapSimple     = "simple"
	BitmapCumulative = "cumulative"
)

// DefaultResolution is the bitmap resolution used when none is configured.
const DefaultResolution = "1024x768"

// Parameters contains directory and file path options.
type Parameters struct {
	SRAMDir string `flag:"d" usage:"directory containing the .dev device directories" default:"."`
	Config  string `flag:"c" usage:"configuration file (.yaml, .yml or .toml)"`
	EnvFile string `flag:"env" usage:"environment file with SRAM_* variables" default:".env"`
	Output  string `flag:"o" usage:"output directory for bitmaps" default:"."`
	Format  string `flag:"f" usage:"bitmap image format: png, bmp" default:"png"`
}

// Flags contains behavior options.
type Flags struct {
	Resolution  string `flag:"r" usage:"bitmap resolution as WIDTHxHEIGHT" default:"1024x768"`
	Images      string `flag:"i" usage:"two comma separated memory dump names to compare"`
	Entropy     bool   `flag:"be" usage:"use the entropy maps"`
	Probability bool   `flag:"bp" usage:"use the probability maps"`
	Seed        uint64 `flag:"seed" usage:"seed for random memory map selection (default: random)"`
	Workers     int    `flag:"workers" usage:"number of devices analyzed concurrently (default: CPU count)"`
	Debug       bool   `flag:"debug" usage:"enable debug logging"`
	Quiet       bool   `flag:"q" usage:"quiet mode"`
}

// Program options of the analyzer.
type Program struct {
	Parameters
	Flags

	Command string   // command to execute
	Mode    string   // bitmap mode, only set for the bitmap command
	Args    []string // positional command arguments, usually device names
}

// ImageNames returns the memory dump names given with the images option.
func (p Program) ImageNames() []string {
	if p.Images == "" {
		return nil
	}

	var names []string
	for _, name := range strings.Split(p.Images, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
