package classify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/groq"
)

// fakeCompleter records requests and returns a canned response or error.
type fakeCompleter struct {
	calls    atomic.Int64
	lastReq  groq.ChatRequest
	response string
	err      error
}

func (f *fakeCompleter) Complete(ctx context.Context, req groq.ChatRequest) (string, error) {
	f.calls.Add(1)
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestGenerativeClassify(t *testing.T) {
	fake := &fakeCompleter{response: "Workflow Error"}
	g := NewGenerativeClassifier(fake, "llama3-8b-8192")

	cat, err := g.Classify(context.Background(), "Lead conversion failed due to quota breach")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cat != WorkflowError {
		t.Errorf("category = %q, want %q", cat, WorkflowError)
	}
	if fake.lastReq.Model != "llama3-8b-8192" {
		t.Errorf("model = %q", fake.lastReq.Model)
	}
	if len(fake.lastReq.Messages) != 2 || fake.lastReq.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", fake.lastReq.Messages)
	}
	if !strings.Contains(fake.lastReq.Messages[1].Content, "quota breach") {
		t.Errorf("user message missing log text: %q", fake.lastReq.Messages[1].Content)
	}
}

func TestGenerativeClassify_ParseVariants(t *testing.T) {
	tests := []struct {
		response string
		want     Category
	}{
		{"Workflow Error", WorkflowError},
		{" workflow error.\n", WorkflowError},
		{`"Deprecation Warning"`, DeprecationWarning},
		{"This looks like a Security Alert to me", SecurityAlert},
		{"no idea", Unclassified},
		{"", Unclassified},
	}
	for _, tt := range tests {
		fake := &fakeCompleter{response: tt.response}
		g := NewGenerativeClassifier(fake, "m")
		cat, err := g.Classify(context.Background(), "text")
		if err != nil {
			t.Fatalf("Classify(%q): %v", tt.response, err)
		}
		if cat != tt.want {
			t.Errorf("response %q parsed as %q, want %q", tt.response, cat, tt.want)
		}
	}
}

func TestGenerativeClassify_EndpointFailure(t *testing.T) {
	wantErr := &groq.APIError{Status: 500, Message: "boom"}
	fake := &fakeCompleter{err: wantErr}
	g := NewGenerativeClassifier(fake, "m")

	_, err := g.Classify(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *groq.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v does not unwrap to *groq.APIError", err)
	}
}

func TestSummarize(t *testing.T) {
	fake := &fakeCompleter{response: "Two pods are crash-looping due to a bad config map."}
	g := NewGenerativeClassifier(fake, "m")

	out, err := g.Summarize(context.Background(), "Analyze the following logs:\n\nERROR x")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != fake.response {
		t.Errorf("narrative = %q", out)
	}
	if fake.lastReq.MaxTokens != summarizeMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", fake.lastReq.MaxTokens, summarizeMaxTokens)
	}
}

func TestSummarize_PropagatesError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection refused")}
	g := NewGenerativeClassifier(fake, "m")
	if _, err := g.Summarize(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
}
