package collector

import (
	"context"
	"time"
)

// Record is a single raw log line captured from a pod or stream.
// Records are immutable once created; classification results are carried
// separately and never written back onto the record.
type Record struct {
	Source     string    `json:"source"`
	Namespace  string    `json:"namespace"`
	Message    string    `json:"message"`
	CapturedAt time.Time `json:"captured_at"`
}

// Feed produces log records in arrival order. Implementations may read a
// live cluster, a static file, or a test fixture; the pipeline is agnostic.
type Feed interface {
	Fetch(ctx context.Context) ([]Record, error)
}
