package compare

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/retroenv/sramtools/internal/analysis"
	"github.com/retroenv/sramtools/internal/artifact"
	"github.com/retroenv/sramtools/internal/detector"
	"github.com/retroenv/sramtools/internal/matrix"
)

// ErrTooFewArtifacts is returned when the candidate pool can not provide a pair.
var ErrTooFewArtifacts = fmt.Errorf("too few cached memory maps: %w", analysis.ErrEmptyInput)

// Sampler selects cached bit matrices at random. Every sampler owns its
// random source, samplers must not be shared between goroutines.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a sampler seeded with the given seed, a zero seed
// selects a random seed.
func NewSampler(seed uint64) *Sampler {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Sampler{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Index returns a uniformly distributed index in [0, n).
func (s *Sampler) Index(n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: need 1, have %d", ErrTooFewArtifacts, n)
	}
	return s.rng.IntN(n), nil
}

// Distinct returns two different uniformly distributed indices in [0, n).
func (s *Sampler) Distinct(n int) (int, int, error) {
	if n < 2 {
		return 0, 0, fmt.Errorf("%w: need 2, have %d", ErrTooFewArtifacts, n)
	}

	for {
		i, j := s.rng.IntN(n), s.rng.IntN(n)
		if i != j {
			return i, j, nil
		}
	}
}

// Pair references two cached bit matrices, possibly of two devices.
type Pair struct {
	DeviceA *detector.Device
	NameA   string
	DeviceB *detector.Device
	NameB   string
}

// SameDevice returns whether both matrices belong to the same device.
func (p Pair) SameDevice() bool {
	return p.DeviceA.Name == p.DeviceB.Name
}

// Load reads both bit matrices of the pair.
func (p Pair) Load() (matrix.Bits, matrix.Bits, error) {
	a, err := p.DeviceA.Store().ReadBits(p.NameA)
	if err != nil {
		return matrix.Bits{}, matrix.Bits{}, err
	}
	b, err := p.DeviceB.Store().ReadBits(p.NameB)
	if err != nil {
		return matrix.Bits{}, matrix.Bits{}, err
	}
	return a, b, nil
}

// NamedPair returns the pair of explicitly named memory maps. A name may be
// given as raw dump name or as cache name.
func NamedPair(devA *detector.Device, nameA string, devB *detector.Device, nameB string) Pair {
	return Pair{
		DeviceA: devA,
		NameA:   cacheName(nameA),
		DeviceB: devB,
		NameB:   cacheName(nameB),
	}
}

// RandomPair selects two cached memory maps. For a single device, or two
// references to the same device, the two maps are distinct. For two
// devices one map is drawn independently from each device.
func (s *Sampler) RandomPair(devA, devB *detector.Device) (Pair, error) {
	if devB == nil || devB.Name == devA.Name {
		i, j, err := s.Distinct(len(devA.Caches))
		if err != nil {
			return Pair{}, fmt.Errorf("device '%s': %w", devA.Name, err)
		}
		return Pair{DeviceA: devA, NameA: devA.Caches[i], DeviceB: devA, NameB: devA.Caches[j]}, nil
	}

	i, err := s.Index(len(devA.Caches))
	if err != nil {
		return Pair{}, fmt.Errorf("device '%s': %w", devA.Name, err)
	}
	j, err := s.Index(len(devB.Caches))
	if err != nil {
		return Pair{}, fmt.Errorf("device '%s': %w", devB.Name, err)
	}
	return Pair{DeviceA: devA, NameA: devA.Caches[i], DeviceB: devB, NameB: devB.Caches[j]}, nil
}

func cacheName(name string) string {
	if artifact.IsCacheName(name) {
		return name
	}
	if strings.HasPrefix(name, artifact.Prefix) {
		name = strings.TrimPrefix(name, artifact.Prefix)
	}
	return artifact.CacheName(name)
}
