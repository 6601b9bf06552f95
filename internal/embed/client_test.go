package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func embedJSON(vec []float32) []byte {
	b, _ := json.Marshal(map[string]any{"embeddings": [][]float32{vec}})
	return b
}

func TestEmbed_RoundTrip(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %q, want /api/embed", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != "all-minilm" {
			t.Errorf("model = %q", req.Model)
		}
		w.Write(embedJSON(want))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Embed(context.Background(), "all-minilm", "ERROR disk failure")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dims, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestEmbed_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Embed(context.Background(), "m", "text"); err == nil {
		t.Fatal("expected error for HTTP 503")
	}
}

func TestEmbed_EmptyEmbeddings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Embed(context.Background(), "m", "text"); err == nil {
		t.Fatal("expected error for empty embeddings array")
	}
}

// fakeVectorizer returns a vector derived from the text length, or a fixed error.
type fakeVectorizer struct {
	calls atomic.Int64
	err   error
}

func (f *fakeVectorizer) Embed(ctx context.Context, model, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

func TestEmbedBatch(t *testing.T) {
	fake := &fakeVectorizer{}
	e := NewEmbedder(fake, "m")

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("log line %d", i)
	}
	vecs, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vecs), len(texts))
	}
	for i, v := range vecs {
		if v[0] != float32(len(texts[i])) {
			t.Errorf("vecs[%d] out of order: got %f", i, v[0])
		}
	}
	if n := fake.calls.Load(); n != int64(len(texts)) {
		t.Errorf("embed calls = %d, want %d", n, len(texts))
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	e := NewEmbedder(&fakeVectorizer{}, "m")
	vecs, err := e.EmbedBatch(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("EmbedBatch(nil) = %v, %v; want nil, nil", vecs, err)
	}
}

func TestEmbedBatch_PropagatesError(t *testing.T) {
	fake := &fakeVectorizer{err: errors.New("boom")}
	e := NewEmbedder(fake, "m")
	if _, err := e.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error")
	}
}
