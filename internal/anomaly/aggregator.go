package anomaly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/classify"
)

// ErrNoAnomalies reports that a batch held nothing worth summarizing. The
// aggregator returns it before any completion call is made, so callers can
// treat a quiet cycle as success without spending model tokens.
var ErrNoAnomalies = errors.New("no anomalous logs to analyze")

// Summarizer produces a free-form analysis for an assembled prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

const (
	defaultMaxBatch     = 150
	defaultMaxLogLength = 500
)

// Aggregator filters a classified batch down to its anomalous lines and asks
// the summarizer for a single consolidated analysis.
type Aggregator struct {
	summarizer Summarizer
	anomalous  map[classify.Category]bool

	// maxBatch caps how many lines reach the prompt; maxLogLength caps the
	// bytes each line contributes. Both keep the completion request inside
	// the model's context window.
	maxBatch     int
	maxLogLength int
}

// Option adjusts aggregator limits.
type Option func(*Aggregator)

// WithMaxBatch overrides the line cap. Values below 1 are ignored.
func WithMaxBatch(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxBatch = n
		}
	}
}

// WithMaxLogLength overrides the per-line byte cap. Values below 1 are ignored.
func WithMaxLogLength(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxLogLength = n
		}
	}
}

// NewAggregator builds an aggregator over the given summarizer. anomalous
// lists the categories treated as report-worthy; when empty a default set is
// used. Any category whose name contains "error" or "warning" is anomalous
// regardless of the configured set.
func NewAggregator(summarizer Summarizer, anomalous []classify.Category, opts ...Option) *Aggregator {
	set := make(map[classify.Category]bool, len(anomalous))
	for _, cat := range anomalous {
		set[cat] = true
	}
	if len(set) == 0 {
		set[classify.WorkflowError] = true
		set[classify.DeprecationWarning] = true
	}
	a := &Aggregator{
		summarizer:   summarizer,
		anomalous:    set,
		maxBatch:     defaultMaxBatch,
		maxLogLength: defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsAnomalous reports whether logs in the category belong in a report.
func (a *Aggregator) IsAnomalous(cat classify.Category) bool {
	if a.anomalous[cat] {
		return true
	}
	lower := strings.ToLower(string(cat))
	return strings.Contains(lower, "error") || strings.Contains(lower, "warning")
}

// Filter returns the anomalous subset of the batch in arrival order.
func (a *Aggregator) Filter(logs []classify.ClassifiedLog) []classify.ClassifiedLog {
	var out []classify.ClassifiedLog
	for _, l := range logs {
		if a.IsAnomalous(l.Category) {
			out = append(out, l)
		}
	}
	return out
}

// Aggregate filters the batch and requests one summary for the anomalous
// lines. It returns ErrNoAnomalies without touching the summarizer when the
// filter leaves nothing. A summarizer failure propagates unchanged; nothing
// is persisted here, so a failed cycle leaves no partial report behind.
func (a *Aggregator) Aggregate(ctx context.Context, logs []classify.ClassifiedLog) (string, error) {
	anomalous := a.Filter(logs)
	if len(anomalous) == 0 {
		return "", ErrNoAnomalies
	}

	if len(anomalous) > a.maxBatch {
		slog.Debug("anomaly batch capped", "total", len(anomalous), "cap", a.maxBatch)
		anomalous = anomalous[:a.maxBatch]
	}

	summary, err := a.summarizer.Summarize(ctx, a.buildPrompt(anomalous))
	if err != nil {
		return "", fmt.Errorf("summarize anomalies: %w", err)
	}
	return summary, nil
}

func (a *Aggregator) buildPrompt(logs []classify.ClassifiedLog) string {
	var b strings.Builder
	b.WriteString("Analyze the following logs:\n\n")
	for i, l := range logs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(truncate(l.Message, a.maxLogLength))
	}
	return b.String()
}

// truncate clips s to at most n bytes without splitting a UTF-8 sequence,
// so the completion endpoint never receives a mangled rune at the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s); r != utf8.RuneError {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
