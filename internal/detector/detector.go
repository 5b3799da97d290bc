// Package detector handles discovery of device directories and their memory dumps.
package detector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/sramtools/internal/artifact"
)

const (
	// DeviceExt is the directory extension that marks a device.
	DeviceExt = ".dev"
	// DumpExt is the extension of raw memory dumps.
	DumpExt = ".hex"
)

// ErrUnknownDevice is returned when a requested device was not discovered.
var ErrUnknownDevice = errors.New("device was not found")

// Device is one physical unit under test.
type Device struct {
	Name     string
	Dir      string
	RawDumps []string // sorted dump file names
	Caches   []string // sorted bit matrix cache names
}

// Store returns the artifact store of the device directory.
func (d *Device) Store() *artifact.Store {
	return artifact.NewStore(d.Name, d.Dir)
}

// Registry holds all discovered devices. It is not modified after discovery.
type Registry struct {
	dir     string
	names   []string
	devices map[string]*Device
}

// Dir returns the directory the devices were discovered in.
func (r *Registry) Dir() string {
	return r.dir
}

// Names returns the sorted device names.
func (r *Registry) Names() []string {
	return r.names
}

// Len returns the number of discovered devices.
func (r *Registry) Len() int {
	return len(r.names)
}

// Get returns the named device.
func (r *Registry) Get(name string) (*Device, error) {
	dev, ok := r.devices[strings.TrimSuffix(name, DeviceExt)]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' in '%s'", ErrUnknownDevice, name, r.dir)
	}
	return dev, nil
}

// Select returns the named devices in the given order with duplicates removed.
// All devices are returned if no names are given.
func (r *Registry) Select(names []string) ([]*Device, error) {
	if len(names) == 0 {
		names = r.names
	}

	seen := set.New[string]()
	devices := make([]*Device, 0, len(names))
	for _, name := range names {
		dev, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		if seen.Contains(dev.Name) {
			continue
		}
		seen.Add(dev.Name)
		devices = append(devices, dev)
	}
	return devices, nil
}

// Detector handles device discovery in an SRAM directory.
type Detector struct {
	logger *log.Logger
}

// New creates a new device detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Discover scans the directory for device directories and registers their
// raw memory dumps and cached bit matrices.
func (d *Detector) Discover(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading SRAM directory '%s': %w", dir, err)
	}

	reg := &Registry{
		dir:     dir,
		devices: make(map[string]*Device),
	}

	for _, entry := range entries {
		if !entry.IsDir() || !isDeviceDir(entry.Name()) {
			continue
		}

		dev, err := d.scanDevice(dir, entry.Name())
		if err != nil {
			return nil, err
		}

		reg.devices[dev.Name] = dev
		reg.names = append(reg.names, dev.Name)
	}

	sort.Strings(reg.names)
	return reg, nil
}

func (d *Detector) scanDevice(parent, dirName string) (*Device, error) {
	dev := &Device{
		Name: strings.TrimSuffix(dirName, DeviceExt),
		Dir:  filepath.Join(parent, dirName),
	}

	entries, err := os.ReadDir(dev.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading device directory '%s': %w", dev.Dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		switch {
		case artifact.IsCacheName(name):
			dev.Caches = append(dev.Caches, name)
		case isDumpName(name):
			dev.RawDumps = append(dev.RawDumps, name)
		}
	}

	d.logger.Debug("Discovered device",
		log.String("device", dev.Name),
		log.Int("dumps", len(dev.RawDumps)),
		log.Int("caches", len(dev.Caches)))

	return dev, nil
}

func isDeviceDir(name string) bool {
	return strings.HasSuffix(name, DeviceExt) && len(name) > len(DeviceExt)
}

// isDumpName matches the dump extension case sensitively, mem.hex and mem.HEX
// would otherwise share one cache file.
func isDumpName(name string) bool {
	return filepath.Ext(name) == DumpExt && !strings.HasPrefix(name, artifact.Prefix)
}
