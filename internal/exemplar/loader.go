package exemplar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/storage"
)

// BatchEmbedder produces embeddings for a batch of texts, preserving order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorCache persists exemplar embeddings across rebuilds. *storage.Store
// satisfies it; pass nil to always embed from scratch.
type VectorCache interface {
	GetExemplarVector(text, model string) (storage.ExemplarVector, error)
	SaveExemplarVector(v storage.ExemplarVector) error
}

// LoadDefinitions reads exemplar definitions from a JSON file holding an
// array of {"label","text"} objects. An empty path yields the built-in set.
func LoadDefinitions(path string) ([]Definition, error) {
	if path == "" {
		return DefaultDefinitions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading exemplars file: %w", err)
	}

	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing exemplars file %s: %w", path, err)
	}
	for i, d := range defs {
		if d.Label == "" || d.Text == "" {
			return nil, fmt.Errorf("exemplars file %s: entry %d is missing label or text", path, i)
		}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("exemplars file %s contains no definitions", path)
	}
	return defs, nil
}

// Build embeds the given definitions (in order) and assembles the Set.
// Embeddings already present in the cache for the same text and model are
// reused; only misses hit the embedding server, concurrently but with the
// final set assembled back in definition order so tie-breaks stay stable.
func Build(ctx context.Context, defs []Definition, embedder BatchEmbedder, cache VectorCache, model string, dim int) (*Set, error) {
	if len(defs) == 0 {
		return nil, errors.New("no exemplar definitions to build from")
	}

	vectors := make([][]float32, len(defs))

	var missTexts []string
	var missPos []int
	for i, d := range defs {
		if cache != nil {
			cached, err := cache.GetExemplarVector(d.Text, model)
			if err == nil {
				vectors[i] = cached.Embedding
				continue
			}
			if !errors.Is(err, storage.ErrNotFound) {
				slog.Warn("exemplar cache read failed, re-embedding", "error", err)
			}
		}
		missTexts = append(missTexts, d.Text)
		missPos = append(missPos, i)
	}

	if len(missTexts) > 0 {
		embedded, err := embedder.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, fmt.Errorf("embedding %d exemplars: %w", len(missTexts), err)
		}
		for j, vec := range embedded {
			i := missPos[j]
			vectors[i] = vec
			if cache == nil {
				continue
			}
			saveErr := cache.SaveExemplarVector(storage.ExemplarVector{
				ID:        uuid.New().String(),
				Label:     defs[i].Label,
				Text:      defs[i].Text,
				Model:     model,
				Embedding: vec,
				CreatedAt: time.Now().UTC(),
			})
			if saveErr != nil {
				slog.Warn("caching exemplar vector failed", "label", defs[i].Label, "error", saveErr)
			}
		}
	}

	set := NewSet(dim)
	for i, d := range defs {
		if err := set.Add(d.Label, d.Text, vectors[i]); err != nil {
			return nil, fmt.Errorf("exemplar %d (%s): %w", i, d.Label, err)
		}
	}

	slog.Info("exemplar set built", "exemplars", set.Len(), "embedded", len(missTexts), "cached", set.Len()-len(missTexts))
	return set, nil
}
