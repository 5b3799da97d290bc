// Package artifact persists bit matrices and derived maps as NumPy array
// files inside a device directory.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/sramtools/internal/matrix"
)

const (
	// Prefix marks cache files and separates them from source dumps in directory listings.
	Prefix = "."
	// BitsExt is the extension of bit matrix caches.
	BitsExt = ".npy"
	// MapExt is the extension of aggregate maps.
	MapExt = ".npy"
)

// Kind selects one of the reserved per device aggregate maps.
type Kind string

// Aggregate map kinds.
const (
	Probability Kind = "probs_map"
	Entropy     Kind = "entropy_map"
)

// FileName returns the reserved file name of the map.
func (k Kind) FileName() string {
	return string(k) + MapExt
}

func (k Kind) String() string {
	switch k {
	case Probability:
		return "probability"
	case Entropy:
		return "entropy"
	default:
		return string(k)
	}
}

// ErrNotFound is the kind of all NotFoundError values.
var ErrNotFound = errors.New("device data not found")

// NotFoundError reports a required artifact that does not exist.
type NotFoundError struct {
	Device string
	Name   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: device '%s' has no artifact '%s'", ErrNotFound, e.Device, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CacheName returns the bit matrix cache name of a raw dump.
func CacheName(dumpName string) string {
	base := filepath.Base(dumpName)
	return Prefix + strings.TrimSuffix(base, filepath.Ext(base)) + BitsExt
}

// IsCacheName returns whether the file name is a bit matrix cache.
func IsCacheName(name string) bool {
	return strings.HasPrefix(name, Prefix) && strings.HasSuffix(name, BitsExt) &&
		len(name) > len(Prefix)+len(BitsExt)
}

// Store reads and writes the artifacts of one device.
type Store struct {
	device string
	dir    string
}

// NewStore returns a store for the device directory.
func NewStore(device, dir string) *Store {
	return &Store{
		device: device,
		dir:    dir,
	}
}

// Path returns the file path of the named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteBits writes a bit matrix cache.
func (s *Store) WriteBits(name string, m matrix.Bits) error {
	var buf bytes.Buffer
	if err := EncodeBits(&buf, m); err != nil {
		return fmt.Errorf("encoding '%s': %w", name, err)
	}
	if err := writeFileAtomic(s.Path(name), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing '%s': %w", name, err)
	}
	return nil
}

// ReadBits reads a bit matrix cache.
func (s *Store) ReadBits(name string) (matrix.Bits, error) {
	data, err := s.read(name)
	if err != nil {
		return matrix.Bits{}, err
	}

	m, err := DecodeBits(data)
	if err != nil {
		return matrix.Bits{}, fmt.Errorf("decoding '%s' of device '%s': %w", name, s.device, err)
	}
	return m, nil
}

// WriteMap writes one of the aggregate maps.
func (s *Store) WriteMap(kind Kind, m matrix.Map) error {
	name := kind.FileName()
	var buf bytes.Buffer
	if err := EncodeMap(&buf, m); err != nil {
		return fmt.Errorf("encoding '%s': %w", name, err)
	}
	if err := writeFileAtomic(s.Path(name), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing '%s': %w", name, err)
	}
	return nil
}

// ReadMap reads one of the aggregate maps.
func (s *Store) ReadMap(kind Kind) (matrix.Map, error) {
	name := kind.FileName()
	data, err := s.read(name)
	if err != nil {
		return matrix.Map{}, err
	}

	m, err := DecodeMap(data)
	if err != nil {
		return matrix.Map{}, fmt.Errorf("decoding '%s' of device '%s': %w", name, s.device, err)
	}
	return m, nil
}

// Caches lists the bit matrix caches currently present in the device directory, sorted by name.
func (s *Store) Caches() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory '%s': %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsCacheName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *Store) read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Device: s.device, Name: name}
		}
		return nil, fmt.Errorf("reading '%s': %w", name, err)
	}
	return data, nil
}

// writeFileAtomic writes into a temporary file of the same directory and
// renames it into place, readers never observe a partially written artifact.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
