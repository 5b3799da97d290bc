package compare

import (
	"fmt"

	"github.com/retroenv/sramtools/internal/detector"
)

// HammingResult is the Hamming distance of one sampled pair of memory maps.
type HammingResult struct {
	DeviceA   string
	DeviceB   string
	ArtifactA string
	ArtifactB string
	Width     int     // bits per matrix row
	Distance  float64 // average differing bits per row
}

// SampleHamming selects a random pair of cached memory maps of one or two
// devices and computes their average Hamming distance per row.
func (s *Sampler) SampleHamming(devA, devB *detector.Device) (HammingResult, error) {
	pair, err := s.RandomPair(devA, devB)
	if err != nil {
		return HammingResult{}, err
	}
	return PairHamming(pair)
}

// PairHamming computes the average Hamming distance per row of the pair.
func PairHamming(pair Pair) (HammingResult, error) {
	a, b, err := pair.Load()
	if err != nil {
		return HammingResult{}, err
	}

	distance, err := Hamming(a, b)
	if err != nil {
		return HammingResult{}, fmt.Errorf("comparing '%s' and '%s': %w", pair.NameA, pair.NameB, err)
	}

	return HammingResult{
		DeviceA:   pair.DeviceA.Name,
		DeviceB:   pair.DeviceB.Name,
		ArtifactA: pair.NameA,
		ArtifactB: pair.NameB,
		Width:     a.Cols,
		Distance:  distance,
	}, nil
}
