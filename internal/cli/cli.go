// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/sramtools/internal/config"
	"github.com/retroenv/sramtools/internal/options"
	"github.com/retroenv/sramtools/internal/projector"
	"github.com/retroenv/sramtools/internal/render"
)

// ParseFlags parses command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	return Parse(os.Args[1:])
}

// Parse parses the given command line arguments. Flags can be passed before
// and after the command, defaults are read from the configuration file and
// the environment for all flags that were not passed.
func Parse(arguments []string) (options.Program, error) {
	flags := flag.NewFlagSet("sramtools", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	var opts options.Program
	readOptionFlags(flags, &opts)

	if err := flags.Parse(arguments); err != nil {
		return opts, &UsageError{flags: flags}
	}
	args := flags.Args()
	if len(args) == 0 {
		return opts, &UsageError{flags: flags}
	}

	opts.Command = strings.ToLower(args[0])
	args = args[1:]
	if opts.Command == options.CommandBitmap {
		if len(args) == 0 {
			return opts, &UsageError{flags: flags, msg: "missing bitmap mode, use 'simple' or 'cumulative'"}
		}
		opts.Mode = strings.ToLower(args[0])
		args = args[1:]
	}

	if err := flags.Parse(args); err != nil {
		return opts, &UsageError{flags: flags}
	}
	opts.Args = flags.Args()

	if err := validateArgs(flags, opts.Args); err != nil {
		return opts, err
	}

	if err := applySettings(flags, &opts); err != nil {
		return opts, err
	}

	if err := validateCommand(flags, opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	if e.msg == "" {
		return "invalid usage"
	}
	return e.msg
}

// ShowUsage prints the usage message and all flag defaults.
func (e *UsageError) ShowUsage() {
	if e.msg != "" {
		fmt.Printf("%s\n\n", e.msg)
	}
	fmt.Printf("usage: sramtools [options] <command> [arguments]\n\n")
	fmt.Println("commands:")
	fmt.Println("  ls                                   list all discovered devices")
	fmt.Println("  analyze [devices]                    build caches, probability and entropy maps")
	fmt.Println("  diff <device> [device2]              difference bitmap of two memory maps")
	fmt.Println("  bitmap simple -be|-bp <devices>      one bitmap per device")
	fmt.Println("  bitmap cumulative -be|-bp <devices>  averaged bitmap of all devices")
	fmt.Println("  hamming <device> [device2]           Hamming distance of two memory maps")
	fmt.Println("  verify [devices]                     check caches against the memory dumps")
	fmt.Println()
	if e.flags != nil {
		e.flags.PrintDefaults()
		fmt.Println()
	}
}

// validateArgs checks that no flags follow the positional arguments
func validateArgs(flags *flag.FlagSet, args []string) error {
	for i, arg := range args {
		if i > 0 && strings.HasPrefix(arg, "-") {
			return &UsageError{
				flags: flags,
				msg:   fmt.Sprintf("Potential argument %s found after device names, please pass all options before the device names", arg),
			}
		}
	}
	return nil
}

// validateCommand checks the argument count and option combinations of the command
func validateCommand(flags *flag.FlagSet, opts options.Program) error {
	usage := func(format string, args ...any) error {
		return &UsageError{flags: flags, msg: fmt.Sprintf(format, args...)}
	}

	switch opts.Command {
	case options.CommandList:
		if len(opts.Args) > 0 {
			return usage("command '%s' does not take arguments", opts.Command)
		}

	case options.CommandAnalyze, options.CommandVerify:

	case options.CommandDiff, options.CommandHamming:
		if len(opts.Args) < 1 || len(opts.Args) > 2 {
			return usage("command '%s' requires one or two device names", opts.Command)
		}
		if opts.Images != "" {
			if opts.Command == options.CommandHamming {
				return usage("option -i is only supported by the diff command")
			}
			if len(opts.ImageNames()) != 2 {
				return usage("option -i requires exactly two memory dump names")
			}
		}

	case options.CommandBitmap:
		if opts.Mode != options.BitmapSimple && opts.Mode != options.BitmapCumulative {
			return usage("unsupported bitmap mode '%s', use 'simple' or 'cumulative'", opts.Mode)
		}
		if opts.Entropy == opts.Probability {
			return usage("either -be or -bp has to be passed to select the entropy or probability maps")
		}
		if len(opts.Args) == 0 {
			return usage("bitmap %s requires at least one device name", opts.Mode)
		}

	default:
		return usage("unsupported command '%s'", opts.Command)
	}

	if opts.Workers < 0 {
		return usage("number of workers can not be negative")
	}
	if opts.Format != render.PNG && opts.Format != render.BMP {
		return usage("unsupported image format '%s', use '%s' or '%s'", opts.Format, render.PNG, render.BMP)
	}
	if _, err := projector.ParseResolution(opts.Resolution); err != nil {
		return fmt.Errorf("parsing resolution: %w", err)
	}
	return nil
}

// applySettings fills all options that were not passed as flags from the
// configuration file and the environment
func applySettings(flags *flag.FlagSet, opts *options.Program) error {
	settings, err := config.Load(opts.Config, opts.EnvFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	passed := set.New[string]()
	flags.Visit(func(f *flag.Flag) {
		passed.Add(f.Name)
	})

	if !passed.Contains("d") && settings.SRAMDir != "" {
		opts.SRAMDir = settings.SRAMDir
	}
	if !passed.Contains("o") && settings.Output != "" {
		opts.Output = settings.Output
	}
	if !passed.Contains("f") && settings.Format != "" {
		opts.Format = settings.Format
	}
	if !passed.Contains("r") && settings.Resolution != "" {
		opts.Resolution = settings.Resolution
	}
	if !passed.Contains("workers") && settings.Workers != 0 {
		opts.Workers = settings.Workers
	}
	if !passed.Contains("seed") && settings.Seed != 0 {
		opts.Seed = settings.Seed
	}
	opts.Format = strings.ToLower(opts.Format)
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.SRAMDir, "d", ".", "directory containing the .dev device directories")
	flags.StringVar(&opts.Config, "c", "", "configuration file (.yaml, .yml or .toml) providing default options")
	flags.StringVar(&opts.EnvFile, "env", ".env", "environment file providing SRAM_* variables")
	flags.StringVar(&opts.Output, "o", ".", "output directory for generated bitmaps")
	flags.StringVar(&opts.Format, "f", "png", "image format of generated bitmaps (png/bmp)")
	flags.StringVar(&opts.Resolution, "r", options.DefaultResolution, "bitmap resolution as WIDTHxHEIGHT, must match the SRAM size in bits")
	flags.StringVar(&opts.Images, "i", "", "two comma separated memory dump names to compare, for example mem1.hex,mem2.hex")
	flags.BoolVar(&opts.Entropy, "be", false, "generate the bitmap from the entropy maps")
	flags.BoolVar(&opts.Probability, "bp", false, "generate the bitmap from the probability maps")
	flags.Uint64Var(&opts.Seed, "seed", 0, "seed for the random selection of memory maps, 0 selects a random seed")
	flags.IntVar(&opts.Workers, "workers", 0, "number of devices to analyze concurrently, 0 uses the CPU count")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
