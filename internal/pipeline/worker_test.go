package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/anomaly"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/classify"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/collector"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/report"
)

func TestWorker_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	feed := &staticFeed{records: []collector.Record{rec("api-1", "ERROR boom")}}
	gen := &scriptedGenerative{category: classify.WorkflowError, summary: "analysis"}
	cascade := classify.NewCascade(classify.DefaultRules(), &labelSemantic{}, gen, nil)
	store := report.NewStore(filepath.Join(t.TempDir(), "reports.json"))
	runner := NewRunner(feed, cascade, anomaly.NewAggregator(gen, nil), store)

	// A long interval means only the immediate run fires before cancel.
	w := NewWorker(runner, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for len(store.List()) == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never completed its first cycle")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	if got := len(store.List()); got != 1 {
		t.Errorf("reports = %d, want 1", got)
	}
}

func TestNewWorker_DefaultInterval(t *testing.T) {
	w := NewWorker(nil, 0)
	if w.interval != 30*time.Second {
		t.Errorf("interval = %v", w.interval)
	}
}
