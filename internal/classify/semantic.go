package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/exemplar"
)

// Embedder turns text into a fixed-dimension vector. It must be
// deterministic for identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SemanticClassifier assigns the label of the nearest exemplar under squared
// L2 distance. It always produces a category: a non-empty exemplar set is
// enforced at construction, so there is no "no match" at this tier.
type SemanticClassifier struct {
	embedder Embedder
	set      *exemplar.Set
}

// NewSemanticClassifier wires an embedder to a built exemplar set. An empty
// set is a configuration error and is rejected here, before any traffic.
func NewSemanticClassifier(embedder Embedder, set *exemplar.Set) (*SemanticClassifier, error) {
	if set == nil || set.Len() == 0 {
		return nil, errors.New("semantic classifier requires a non-empty exemplar set")
	}
	return &SemanticClassifier{embedder: embedder, set: set}, nil
}

// Classify embeds the text and returns the nearest exemplar's label along
// with a confidence derived from the distance (1 at distance zero, falling
// toward 0 as the match degrades).
func (s *SemanticClassifier) Classify(ctx context.Context, text string) (Category, float64, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", 0, fmt.Errorf("semantic tier: %w", err)
	}

	ex, dist, err := s.set.Nearest(vec)
	if err != nil {
		return "", 0, fmt.Errorf("semantic tier: %w", err)
	}

	return Category(ex.Label), 1 / (1 + float64(dist)), nil
}
