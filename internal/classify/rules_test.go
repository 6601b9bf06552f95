package classify

import (
	"regexp"
	"testing"
)

func TestDefaultRules_CaseInsensitive(t *testing.T) {
	rs := DefaultRules()

	tests := []struct {
		text string
		want Category
	}{
		{"ERROR disk failure on node-3", WorkflowError},
		{"error disk failure on node-3", WorkflowError},
		{"Process CRASHED with exit code 137", WorkflowError},
		{"upstream TIMEOUT after 30s", ConnectivityIssue},
		{"connection refused by 10.0.0.12:5432", ConnectivityIssue},
		{"request was Unauthorized for service account", SecurityAlert},
		{"ACCESS DENIED for user bob", SecurityAlert},
		{"User alice logged in from 10.1.2.3", UserAction},
		{"Backup completed at 02:00", SystemNotification},
	}

	for _, tt := range tests {
		got, ok := rs.Classify(tt.text)
		if !ok {
			t.Errorf("Classify(%q) had no opinion, want %q", tt.text, tt.want)
			continue
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestDefaultRules_NoOpinion(t *testing.T) {
	rs := DefaultRules()

	for _, text := range []string{
		"INFO service listening on :8080",
		"WARN deprecated flag used",
		"reconciled 12 resources",
	} {
		if cat, ok := rs.Classify(text); ok {
			t.Errorf("Classify(%q) = %q, want no opinion", text, cat)
		}
	}
}

func TestRuleSet_OrderWins(t *testing.T) {
	// Both rules match; the first in the sequence must win.
	rs := NewRuleSet([]Rule{
		{regexp.MustCompile(`(?i)\berror\b`), WorkflowError},
		{regexp.MustCompile(`(?i)\btimeout\b`), ConnectivityIssue},
	})

	got, ok := rs.Classify("error: timeout waiting for lock")
	if !ok || got != WorkflowError {
		t.Errorf("Classify = %q (%v), want first rule %q", got, ok, WorkflowError)
	}
}
