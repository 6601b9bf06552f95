package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/classify"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/pipeline"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/report"
)

// CycleRunner exposes the pipeline operations the API serves.
type CycleRunner interface {
	Classify(ctx context.Context) ([]classify.ClassifiedLog, error)
	Run(ctx context.Context) (pipeline.Result, error)
}

// ReportStore exposes the persisted report history.
type ReportStore interface {
	List() []report.Entry
	Clear() error
}

type AppDeps struct {
	Runner  CycleRunner
	Reports ReportStore
	Token   string // optional; empty disables bearer auth
	Version string
}

// NewAppHandler builds the HTTP surface. /health stays unauthenticated so
// probes work without credentials.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Get("/logs", handleLogs(deps))
		r.Post("/analyze", handleAnalyze(deps))
		r.Get("/reports", handleReports(deps))
		r.Delete("/reports", handleClearReports(deps))
	})

	return r
}

func handleHealth(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"version": deps.Version,
		})
	}
}

// LogsResponse carries a classified snapshot of the log feed.
type LogsResponse struct {
	Status pipeline.Status          `json:"status"`
	Triage pipeline.TriageCounts    `json:"triage"`
	Logs   []classify.ClassifiedLog `json:"logs"`
}

func handleLogs(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := deps.Runner.Classify(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "classifying logs: %v", err)
			return
		}
		triage := pipeline.Triage(logs)
		writeJSON(w, http.StatusOK, LogsResponse{
			Status: triage.Status(),
			Triage: triage,
			Logs:   logs,
		})
	}
}

// AnalyzeResponse reports the outcome of one analysis cycle.
type AnalyzeResponse struct {
	Status    pipeline.Status       `json:"status"`
	Triage    pipeline.TriageCounts `json:"triage"`
	Anomalies bool                  `json:"anomalies"`
	Report    *report.Entry         `json:"report,omitempty"`
}

func handleAnalyze(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := deps.Runner.Run(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "analysis cycle failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, AnalyzeResponse{
			Status:    result.Triage.Status(),
			Triage:    result.Triage,
			Anomalies: !result.Skipped,
			Report:    result.Report,
		})
	}
}

func handleReports(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history := deps.Reports.List()
		if history == nil {
			history = []report.Entry{}
		}
		writeJSON(w, http.StatusOK, history)
	}
}

func handleClearReports(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Reports.Clear(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "clearing reports: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
