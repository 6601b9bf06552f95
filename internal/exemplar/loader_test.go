package exemplar

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/storage"
)

// countingEmbedder hands out one-dimensional vectors derived from text length.
type countingEmbedder struct {
	calls atomic.Int64
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(int64(len(texts)))
	out := make([][]float32, len(texts))
	for i, txt := range texts {
		out[i] = []float32{float32(len(txt))}
	}
	return out, nil
}

func TestLoadDefinitions_Default(t *testing.T) {
	defs, err := LoadDefinitions("")
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if len(defs) == 0 {
		t.Fatal("default definitions are empty")
	}
}

func TestLoadDefinitions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exemplars.json")
	content := `[{"label":"Normal","text":"ok"},{"label":"Workflow Error","text":"failed"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing exemplars: %v", err)
	}

	defs, err := LoadDefinitions(path)
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if len(defs) != 2 || defs[1].Label != "Workflow Error" {
		t.Errorf("defs = %+v", defs)
	}
}

func TestLoadDefinitions_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exemplars.json")
	if err := os.WriteFile(path, []byte(`[{"label":"","text":"x"}]`), 0o644); err != nil {
		t.Fatalf("writing exemplars: %v", err)
	}
	if _, err := LoadDefinitions(path); err == nil {
		t.Fatal("expected error for entry without label")
	}
}

func TestBuild_OrderPreserved(t *testing.T) {
	defs := []Definition{
		{Label: "A", Text: "x"},
		{Label: "B", Text: "xx"},
		{Label: "C", Text: "xxx"},
	}
	set, err := Build(context.Background(), defs, &countingEmbedder{}, nil, "m", 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("Len = %d, want 3", set.Len())
	}

	ex, _, err := set.Nearest([]float32{2})
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if ex.Label != "B" {
		t.Errorf("Label = %q, want B", ex.Label)
	}
}

func TestBuild_UsesCache(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	defs := []Definition{
		{Label: "Normal", Text: "ok"},
		{Label: "Workflow Error", Text: "failed hard"},
	}

	first := &countingEmbedder{}
	if _, err := Build(context.Background(), defs, first, store, "m", 1); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if n := first.calls.Load(); n != 2 {
		t.Fatalf("first build embedded %d texts, want 2", n)
	}

	second := &countingEmbedder{}
	set, err := Build(context.Background(), defs, second, store, "m", 1)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if n := second.calls.Load(); n != 0 {
		t.Errorf("second build embedded %d texts, want 0 (cache hit)", n)
	}
	if set.Len() != 2 {
		t.Errorf("Len = %d, want 2", set.Len())
	}
}

func TestBuild_Empty(t *testing.T) {
	if _, err := Build(context.Background(), nil, &countingEmbedder{}, nil, "m", 1); err == nil {
		t.Fatal("expected error for empty definitions")
	}
}
