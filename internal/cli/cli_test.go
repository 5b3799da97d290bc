package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/sramtools/internal/options"
)

//nolint:funlen // test functions can be long
func TestParse(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Program
	}{
		{
			name: "list",
			args: []string{"ls"},
			want: options.Program{Command: options.CommandList},
		},
		{
			name: "analyze all devices",
			args: []string{"-d", "dumps", "analyze"},
			want: options.Program{Command: options.CommandAnalyze},
		},
		{
			name: "analyze selected devices with flags after the command",
			args: []string{"analyze", "-workers", "2", "board1", "board2"},
			want: options.Program{Command: options.CommandAnalyze, Args: []string{"board1", "board2"}},
		},
		{
			name: "diff with images",
			args: []string{"diff", "-i", "mem1.hex,mem2.hex", "board"},
			want: options.Program{Command: options.CommandDiff, Args: []string{"board"}},
		},
		{
			name: "bitmap simple",
			args: []string{"bitmap", "simple", "-be", "board"},
			want: options.Program{Command: options.CommandBitmap, Mode: options.BitmapSimple, Args: []string{"board"}},
		},
		{
			name: "bitmap cumulative",
			args: []string{"-r", "512x1536", "bitmap", "cumulative", "-bp", "a", "b"},
			want: options.Program{Command: options.CommandBitmap, Mode: options.BitmapCumulative, Args: []string{"a", "b"}},
		},
		{
			name: "hamming of two devices",
			args: []string{"-seed", "5", "hamming", "a", "b"},
			want: options.Program{Command: options.CommandHamming, Args: []string{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.args)
			assert.NoError(t, err)
			assert.Equal(t, tt.want.Command, got.Command)
			assert.Equal(t, tt.want.Mode, got.Mode)
			assert.Equal(t, len(tt.want.Args), len(got.Args))
			for i := range tt.want.Args {
				assert.Equal(t, tt.want.Args[i], got.Args[i])
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	opts, err := Parse([]string{"analyze"})
	assert.NoError(t, err)
	assert.Equal(t, ".", opts.SRAMDir)
	assert.Equal(t, ".", opts.Output)
	assert.Equal(t, "png", opts.Format)
	assert.Equal(t, options.DefaultResolution, opts.Resolution)
	assert.Equal(t, 0, opts.Workers)
	assert.Equal(t, uint64(0), opts.Seed)
}

//nolint:funlen // test functions can be long
func TestParseUsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{
			name: "no command",
			args: []string{"-debug"},
		},
		{
			name:    "unknown command",
			args:    []string{"extract"},
			wantMsg: "unsupported command 'extract'",
		},
		{
			name:    "ls with arguments",
			args:    []string{"ls", "board"},
			wantMsg: "does not take arguments",
		},
		{
			name:    "diff without device",
			args:    []string{"diff"},
			wantMsg: "requires one or two device names",
		},
		{
			name:    "hamming with three devices",
			args:    []string{"hamming", "a", "b", "c"},
			wantMsg: "requires one or two device names",
		},
		{
			name:    "diff with one image",
			args:    []string{"diff", "-i", "mem1.hex", "board"},
			wantMsg: "exactly two memory dump names",
		},
		{
			name:    "hamming with images",
			args:    []string{"hamming", "-i", "a.hex,b.hex", "board"},
			wantMsg: "only supported by the diff command",
		},
		{
			name:    "bitmap without mode",
			args:    []string{"bitmap"},
			wantMsg: "missing bitmap mode",
		},
		{
			name:    "bitmap with unknown mode",
			args:    []string{"bitmap", "stacked", "-be", "board"},
			wantMsg: "unsupported bitmap mode",
		},
		{
			name:    "bitmap without map kind",
			args:    []string{"bitmap", "simple", "board"},
			wantMsg: "either -be or -bp",
		},
		{
			name:    "bitmap with both map kinds",
			args:    []string{"bitmap", "cumulative", "-be", "-bp", "board"},
			wantMsg: "either -be or -bp",
		},
		{
			name:    "bitmap without devices",
			args:    []string{"bitmap", "simple", "-bp"},
			wantMsg: "requires at least one device name",
		},
		{
			name:    "flag after device names",
			args:    []string{"analyze", "board", "-q"},
			wantMsg: "Potential argument -q found",
		},
		{
			name:    "negative workers",
			args:    []string{"-workers", "-1", "analyze"},
			wantMsg: "can not be negative",
		},
		{
			name:    "unknown image format",
			args:    []string{"-f", "gif", "analyze"},
			wantMsg: "unsupported image format 'gif'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			var usageErr *UsageError
			assert.True(t, errors.As(err, &usageErr))
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

func TestParseInvalidResolution(t *testing.T) {
	_, err := Parse([]string{"-r", "1024", "analyze"})
	assert.ErrorContains(t, err, "parsing resolution")

	var usageErr *UsageError
	assert.False(t, errors.As(err, &usageErr))
}

func TestParseSettingsPrecedence(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "sram.toml")
	content := "sram_dir = \"from-file\"\nresolution = \"512x1536\"\nworkers = 8\nformat = \"BMP\"\n"
	assert.NoError(t, os.WriteFile(configFile, []byte(content), 0o600))

	t.Setenv("SRAM_WORKERS", "3")

	opts, err := Parse([]string{"-c", configFile, "-r", "1536x512", "analyze"})
	assert.NoError(t, err)
	assert.Equal(t, "from-file", opts.SRAMDir)
	assert.Equal(t, "1536x512", opts.Resolution)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, "bmp", opts.Format)
}

func TestParseFlags(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	os.Args = []string{"sramtools", "-q", "verify", "board"}

	opts, err := ParseFlags()
	assert.NoError(t, err)
	assert.True(t, opts.Quiet)
	assert.Equal(t, options.CommandVerify, opts.Command)
	assert.Equal(t, "board", opts.Args[0])
}
