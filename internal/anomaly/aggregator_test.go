package anomaly

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/classify"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/collector"
)

type fakeSummarizer struct {
	calls      atomic.Int64
	lastPrompt string
	summary    string
	err        error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.lastPrompt = prompt
	return f.summary, f.err
}

func classified(cat classify.Category, msg string) classify.ClassifiedLog {
	return classify.ClassifiedLog{
		Record:   collector.Record{Source: "api-1", Namespace: "default", Message: msg},
		Category: cat,
		Tier:     classify.TierRule,
	}
}

func TestAggregator_NoAnomaliesSkipsSummarizer(t *testing.T) {
	s := &fakeSummarizer{summary: "should not be called"}
	a := NewAggregator(s, nil)

	logs := []classify.ClassifiedLog{
		classified(classify.Normal, "INFO ok"),
		classified(classify.UserAction, "User alice logged in"),
	}
	_, err := a.Aggregate(context.Background(), logs)
	if !errors.Is(err, ErrNoAnomalies) {
		t.Fatalf("err = %v, want ErrNoAnomalies", err)
	}
	if s.calls.Load() != 0 {
		t.Errorf("summarizer called %d times, want 0", s.calls.Load())
	}
}

func TestAggregator_EmptyBatch(t *testing.T) {
	s := &fakeSummarizer{}
	a := NewAggregator(s, nil)
	if _, err := a.Aggregate(context.Background(), nil); !errors.Is(err, ErrNoAnomalies) {
		t.Fatalf("err = %v, want ErrNoAnomalies", err)
	}
	if s.calls.Load() != 0 {
		t.Error("summarizer must not run on an empty batch")
	}
}

func TestAggregator_SummarizesAnomalousOnly(t *testing.T) {
	s := &fakeSummarizer{summary: "root cause: disk"}
	a := NewAggregator(s, nil)

	logs := []classify.ClassifiedLog{
		classified(classify.Normal, "INFO ok"),
		classified(classify.WorkflowError, "ERROR disk failure"),
		classified(classify.DeprecationWarning, "WARN flag deprecated"),
	}
	summary, err := a.Aggregate(context.Background(), logs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if summary != "root cause: disk" {
		t.Errorf("summary = %q", summary)
	}
	if s.calls.Load() != 1 {
		t.Errorf("summarizer called %d times, want 1", s.calls.Load())
	}
	if !strings.HasPrefix(s.lastPrompt, "Analyze the following logs:\n\n") {
		t.Errorf("prompt missing header: %q", s.lastPrompt)
	}
	if strings.Contains(s.lastPrompt, "INFO ok") {
		t.Error("normal line leaked into the prompt")
	}
	if !strings.Contains(s.lastPrompt, "ERROR disk failure") || !strings.Contains(s.lastPrompt, "WARN flag deprecated") {
		t.Errorf("anomalous lines missing from prompt: %q", s.lastPrompt)
	}
}

func TestAggregator_NameBasedCategories(t *testing.T) {
	a := NewAggregator(&fakeSummarizer{}, []classify.Category{classify.WorkflowError})

	cases := []struct {
		cat  classify.Category
		want bool
	}{
		{classify.WorkflowError, true},
		{classify.Category("Quota Error"), true},
		{classify.Category("Capacity Warning"), true},
		{classify.ResourceWarning, true},
		{classify.Normal, false},
		{classify.SecurityAlert, false},
	}
	for _, tc := range cases {
		if got := a.IsAnomalous(tc.cat); got != tc.want {
			t.Errorf("IsAnomalous(%q) = %v, want %v", tc.cat, got, tc.want)
		}
	}
}

func TestAggregator_BatchCap(t *testing.T) {
	s := &fakeSummarizer{summary: "ok"}
	a := NewAggregator(s, nil, WithMaxBatch(3))

	var logs []classify.ClassifiedLog
	for i := 0; i < 10; i++ {
		logs = append(logs, classified(classify.WorkflowError, "ERROR line"))
	}
	if _, err := a.Aggregate(context.Background(), logs); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	lines := strings.Split(strings.TrimPrefix(s.lastPrompt, "Analyze the following logs:\n\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("prompt has %d lines, want 3", len(lines))
	}
}

func TestAggregator_TruncatesLongLines(t *testing.T) {
	s := &fakeSummarizer{summary: "ok"}
	a := NewAggregator(s, nil, WithMaxLogLength(16))

	long := "ERROR " + strings.Repeat("x", 100)
	if _, err := a.Aggregate(context.Background(), []classify.ClassifiedLog{classified(classify.WorkflowError, long)}); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	body := strings.TrimPrefix(s.lastPrompt, "Analyze the following logs:\n\n")
	if len(body) != 16 {
		t.Errorf("line length = %d, want 16", len(body))
	}
}

func TestAggregator_TruncationKeepsRunesIntact(t *testing.T) {
	s := &fakeSummarizer{summary: "ok"}
	a := NewAggregator(s, nil, WithMaxLogLength(16))

	// "日" is three bytes, so a 16-byte cut would land mid-rune.
	long := "ERROR " + strings.Repeat("日", 10)
	if _, err := a.Aggregate(context.Background(), []classify.ClassifiedLog{classified(classify.WorkflowError, long)}); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	body := strings.TrimPrefix(s.lastPrompt, "Analyze the following logs:\n\n")
	if len(body) > 16 {
		t.Errorf("line length = %d, want <= 16", len(body))
	}
	if !utf8.ValidString(body) {
		t.Errorf("prompt line is not valid UTF-8: %q", body)
	}
}

func TestAggregator_SummarizerFailure(t *testing.T) {
	s := &fakeSummarizer{err: errors.New("rate limited")}
	a := NewAggregator(s, nil)

	_, err := a.Aggregate(context.Background(), []classify.ClassifiedLog{classified(classify.WorkflowError, "ERROR boom")})
	if err == nil || errors.Is(err, ErrNoAnomalies) {
		t.Fatalf("err = %v, want summarizer failure", err)
	}
}
