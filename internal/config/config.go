// Package config handles application configuration and setup
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/retroenv/retrogolib/log"
	"gopkg.in/yaml.v3"
)

// Environment variables that provide default settings.
const (
	EnvSRAMDir    = "SRAM_DIR"
	EnvResolution = "SRAM_RESOLUTION"
	EnvWorkers    = "SRAM_WORKERS"
	EnvSeed       = "SRAM_SEED"
)

// ErrUnsupportedFormat is returned for configuration files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported configuration file format")

// Settings contains the values that can be provided by a configuration file
// or the environment. Zero values are unset.
type Settings struct {
	SRAMDir    string `yaml:"sram_dir" toml:"sram_dir"`
	Output     string `yaml:"output" toml:"output"`
	Format     string `yaml:"format" toml:"format"`
	Resolution string `yaml:"resolution" toml:"resolution"`
	Workers    int    `yaml:"workers" toml:"workers"`
	Seed       uint64 `yaml:"seed" toml:"seed"`
}

// Overlay returns the settings with all set values of other applied on top.
func (s Settings) Overlay(other Settings) Settings {
	if other.SRAMDir != "" {
		s.SRAMDir = other.SRAMDir
	}
	if other.Output != "" {
		s.Output = other.Output
	}
	if other.Format != "" {
		s.Format = other.Format
	}
	if other.Resolution != "" {
		s.Resolution = other.Resolution
	}
	if other.Workers != 0 {
		s.Workers = other.Workers
	}
	if other.Seed != 0 {
		s.Seed = other.Seed
	}
	return s
}

// Load returns the settings of the optional configuration file overlaid
// with the settings of the environment.
func Load(file, envFile string) (Settings, error) {
	var settings Settings
	if file != "" {
		var err error
		settings, err = LoadFile(file)
		if err != nil {
			return Settings{}, err
		}
	}

	env, err := LoadEnv(envFile)
	if err != nil {
		return Settings{}, err
	}
	return settings.Overlay(env), nil
}

// LoadFile reads a YAML or TOML configuration file, selected by its extension.
// Unknown keys are rejected.
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading configuration file: %w", err)
	}

	var settings Settings
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, fmt.Errorf("parsing YAML configuration '%s': %w", path, err)
		}

	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, fmt.Errorf("parsing TOML configuration '%s': %w", path, err)
		}

	default:
		return Settings{}, fmt.Errorf("%w '%s'", ErrUnsupportedFormat, ext)
	}
	return settings, nil
}

// LoadEnv reads the SRAM_* environment variables. Variables that are not set
// in the process environment are looked up in the optional env file, a
// missing env file is ignored.
func LoadEnv(envFile string) (Settings, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case !errors.Is(err, fs.ErrNotExist):
			return Settings{}, fmt.Errorf("reading env file '%s': %w", envFile, err)
		}
	}

	lookup := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(fileVars[key])
	}

	settings := Settings{
		SRAMDir:    lookup(EnvSRAMDir),
		Resolution: lookup(EnvResolution),
	}

	if value := lookup(EnvWorkers); value != "" {
		workers, err := strconv.Atoi(value)
		if err != nil || workers < 0 {
			return Settings{}, fmt.Errorf("invalid %s value '%s'", EnvWorkers, value)
		}
		settings.Workers = workers
	}

	if value := lookup(EnvSeed); value != "" {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid %s value '%s': %w", EnvSeed, value, err)
		}
		settings.Seed = seed
	}

	return settings, nil
}

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
