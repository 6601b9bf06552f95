// Package exemplar holds the labeled reference texts and the vector index
// the semantic classifier searches. The set is assembled once at process
// start; rebuilding it is an explicit maintenance operation.
package exemplar

import "fmt"

// Exemplar is a labeled reference text with its embedding vector.
type Exemplar struct {
	Label  string
	Text   string
	Vector []float32
}

// Set is an ordered collection of exemplars plus the flat index over their
// vectors. Order matters: the index tie-breaks to the earliest insertion.
type Set struct {
	exemplars []Exemplar
	index     *FlatIndex
}

// NewSet creates an empty Set for vectors of the given dimension.
func NewSet(dim int) *Set {
	return &Set{index: NewFlatIndex(dim)}
}

// Add appends a labeled exemplar to the set.
func (s *Set) Add(label, text string, vec []float32) error {
	if _, err := s.index.Add(vec); err != nil {
		return fmt.Errorf("indexing exemplar %q: %w", label, err)
	}
	s.exemplars = append(s.exemplars, Exemplar{Label: label, Text: text, Vector: vec})
	return nil
}

// Len returns the number of exemplars in the set.
func (s *Set) Len() int { return len(s.exemplars) }

// Dim returns the vector dimension of the set's index.
func (s *Set) Dim() int { return s.index.Dim() }

// Nearest returns the exemplar closest to query under squared L2 distance,
// along with that distance. ErrEmptyIndex when the set holds no exemplars.
func (s *Set) Nearest(query []float32) (Exemplar, float32, error) {
	pos, dist, err := s.index.Nearest(query)
	if err != nil {
		return Exemplar{}, 0, err
	}
	return s.exemplars[pos], dist, nil
}
