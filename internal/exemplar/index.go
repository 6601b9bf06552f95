package exemplar

import (
	"errors"
	"fmt"
)

// tieTolerance is the float tolerance under which two distances are treated
// as equal; the earlier-inserted exemplar wins such ties.
const tieTolerance = 1e-6

// ErrEmptyIndex is returned by Nearest on an index with no vectors. An empty
// exemplar set is a configuration error, not a runtime "no classification".
var ErrEmptyIndex = errors.New("exemplar index is empty")

// FlatIndex is a brute-force nearest-neighbor index over fixed-dimension
// vectors using squared Euclidean (L2) distance. Insertion order is
// preserved and used as the deterministic tie-break. The index is built once
// at startup and is read-only afterwards, so concurrent queries need no lock.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an index for vectors of the given dimension.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Dim returns the vector dimension the index was built for.
func (ix *FlatIndex) Dim() int { return ix.dim }

// Len returns the number of indexed vectors.
func (ix *FlatIndex) Len() int { return len(ix.vectors) }

// Add appends a vector and returns its position.
func (ix *FlatIndex) Add(vec []float32) (int, error) {
	if len(vec) != ix.dim {
		return 0, fmt.Errorf("vector dimension %d does not match index dimension %d", len(vec), ix.dim)
	}
	ix.vectors = append(ix.vectors, vec)
	return len(ix.vectors) - 1, nil
}

// Nearest returns the position and squared L2 distance of the vector closest
// to query. Equidistant candidates (within tieTolerance) resolve to the
// earliest-inserted one.
func (ix *FlatIndex) Nearest(query []float32) (int, float32, error) {
	if len(ix.vectors) == 0 {
		return 0, 0, ErrEmptyIndex
	}
	if len(query) != ix.dim {
		return 0, 0, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.dim)
	}

	best := 0
	bestDist := squaredL2(query, ix.vectors[0])
	for i := 1; i < len(ix.vectors); i++ {
		d := squaredL2(query, ix.vectors[i])
		if d < bestDist-tieTolerance {
			best = i
			bestDist = d
		}
	}
	return best, bestDist, nil
}

// squaredL2 computes the squared Euclidean distance between two vectors of
// equal length. The square root is never needed for ranking.
func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
