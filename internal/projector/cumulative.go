package projector

import (
	"errors"
	"fmt"

	"github.com/retroenv/sramtools/internal/matrix"
)

// ErrNoMaps is returned when a cumulative map is requested without any input map.
var ErrNoMaps = errors.New("no maps to accumulate")

// Cumulative sums the maps of several devices cell by cell and divides the
// sum by the number of maps. All maps need the same shape.
func Cumulative(names []string, maps []matrix.Map) (matrix.Map, error) {
	if len(maps) == 0 {
		return matrix.Map{}, ErrNoMaps
	}

	shape := maps[0].Shape
	out := matrix.NewMap(shape.Rows, shape.Cols)
	for i, m := range maps {
		if m.Shape != shape {
			return matrix.Map{}, fmt.Errorf("accumulating map of '%s': %w",
				nameAt(names, i), matrix.CheckShapes(nameAt(names, 0), shape, nameAt(names, i), m.Shape))
		}
		for j, v := range m.Data {
			out.Data[j] += v
		}
	}

	count := float64(len(maps))
	for i := range out.Data {
		out.Data[i] /= count
	}
	return out, nil
}

func nameAt(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("map %d", i)
}
