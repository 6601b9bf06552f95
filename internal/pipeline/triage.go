package pipeline

import (
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/classify"
)

// Status summarizes cluster health from one classified batch.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// criticalRatio is the share of error-class logs above which a batch is
// considered critical rather than merely degraded.
const criticalRatio = 0.10

// TriageCounts tallies a batch by severity class.
type TriageCounts struct {
	Total    int            `json:"total"`
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	ByLabel  map[string]int `json:"by_label"`
}

// Triage counts a classified batch. Error-class categories are Workflow
// Error, Connectivity Issue and Security Alert; warning-class are
// Deprecation Warning and Resource Warning.
func Triage(logs []classify.ClassifiedLog) TriageCounts {
	counts := TriageCounts{
		Total:   len(logs),
		ByLabel: make(map[string]int),
	}
	for _, l := range logs {
		counts.ByLabel[string(l.Category)]++
		switch l.Category {
		case classify.WorkflowError, classify.ConnectivityIssue, classify.SecurityAlert:
			counts.Errors++
		case classify.DeprecationWarning, classify.ResourceWarning:
			counts.Warnings++
		}
	}
	return counts
}

// Status maps the tallies to a health verdict. Any error above 10% of the
// batch is critical; any error or warning at all is a warning; an empty
// batch is healthy.
func (c TriageCounts) Status() Status {
	if c.Total > 0 && float64(c.Errors)/float64(c.Total) > criticalRatio {
		return StatusCritical
	}
	if c.Errors > 0 || c.Warnings > 0 {
		return StatusWarning
	}
	return StatusHealthy
}
