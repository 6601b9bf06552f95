package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/anomaly"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/classify"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/collector"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/report"
)

// Classifier assigns categories to a batch of records.
type Classifier interface {
	ClassifyAll(ctx context.Context, records []collector.Record) ([]classify.ClassifiedLog, error)
}

// Aggregator condenses a classified batch into one analysis.
type Aggregator interface {
	Aggregate(ctx context.Context, logs []classify.ClassifiedLog) (string, error)
}

// ReportSink persists finished analyses.
type ReportSink interface {
	Append(response string) (report.Entry, error)
}

// Result describes one completed cycle.
type Result struct {
	Logs    []classify.ClassifiedLog
	Triage  TriageCounts
	Report  *report.Entry
	Skipped bool // true when the batch held no anomalies
}

// Runner executes the collect, classify, aggregate, persist sequence. A
// report is written only after the summarizer succeeds; failures anywhere in
// the chain leave the report history untouched so the cycle can be retried.
type Runner struct {
	feed       collector.Feed
	classifier Classifier
	aggregator Aggregator
	reports    ReportSink
	logger     *slog.Logger
}

// NewRunner wires a pipeline. All dependencies are required.
func NewRunner(feed collector.Feed, classifier Classifier, aggregator Aggregator, reports ReportSink) *Runner {
	return &Runner{
		feed:       feed,
		classifier: classifier,
		aggregator: aggregator,
		reports:    reports,
		logger:     slog.Default(),
	}
}

// Classify fetches the feed and classifies it without aggregating.
func (r *Runner) Classify(ctx context.Context) ([]classify.ClassifiedLog, error) {
	records, err := r.feed.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching logs: %w", err)
	}
	logs, err := r.classifier.ClassifyAll(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("classifying logs: %w", err)
	}
	return logs, nil
}

// Run executes one full cycle. A quiet batch is a success: the result carries
// Skipped=true and no report. An aggregation or persistence failure returns
// the error with the classified logs intact, so callers can still inspect
// what the cycle saw.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	logs, err := r.Classify(ctx)
	if err != nil {
		return Result{}, err
	}

	result := Result{Logs: logs, Triage: Triage(logs)}

	summary, err := r.aggregator.Aggregate(ctx, logs)
	if errors.Is(err, anomaly.ErrNoAnomalies) {
		r.logger.Info("cycle complete, no anomalies", "logs", len(logs))
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("aggregating anomalies: %w", err)
	}

	entry, err := r.reports.Append(summary)
	if err != nil {
		return result, fmt.Errorf("persisting report: %w", err)
	}
	r.logger.Info("cycle complete", "logs", len(logs), "report_index", entry.Index, "status", result.Triage.Status())
	result.Report = &entry
	return result, nil
}
