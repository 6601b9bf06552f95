package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/groq"
)

const (
	classifyMaxTokens  = 20
	summarizeMaxTokens = 1000

	classifySystemPrompt = "You are a log classification assistant. " +
		"Reply with exactly one category name from the provided list and nothing else."

	summarizeSystemPrompt = "You are a highly accurate AI system that analyzes Kubernetes logs. " +
		"Identify anomalies, group related logs, and explain root causes."
)

// Completer sends one chat completion request. *groq.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req groq.ChatRequest) (string, error)
}

// GenerativeClassifier is the expensive third tier: it asks an external
// completion endpoint to label a single log line, and produces the narrative
// anomaly report for batches. It never retries; retry policy belongs to the
// caller.
type GenerativeClassifier struct {
	client Completer
	model  string
}

// NewGenerativeClassifier creates a classifier calling the given model.
func NewGenerativeClassifier(client Completer, model string) *GenerativeClassifier {
	return &GenerativeClassifier{client: client, model: model}
}

// Classify asks the model to assign one of the known categories to text.
// Endpoint failures come back as inspectable errors (see groq package), never
// as a silently defaulted category. A successful response that names no known
// category maps to Unclassified.
func (g *GenerativeClassifier) Classify(ctx context.Context, text string) (Category, error) {
	names := make([]string, 0, len(KnownCategories()))
	for _, c := range KnownCategories() {
		names = append(names, string(c))
	}

	out, err := g.client.Complete(ctx, groq.ChatRequest{
		Model: g.model,
		Messages: []groq.Message{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Categories: %s\n\nLog line: %s", strings.Join(names, ", "), text)},
		},
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generative tier: %w", err)
	}

	return parseCategory(out), nil
}

// Summarize sends a pre-built anomaly prompt body and returns the narrative.
func (g *GenerativeClassifier) Summarize(ctx context.Context, prompt string) (string, error) {
	out, err := g.client.Complete(ctx, groq.ChatRequest{
		Model: g.model,
		Messages: []groq.Message{
			{Role: "system", Content: summarizeSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: summarizeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return out, nil
}

// parseCategory matches the model output against known category names,
// tolerating case differences and surrounding punctuation.
func parseCategory(out string) Category {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(out), `."'`))
	for _, c := range KnownCategories() {
		if cleaned == strings.ToLower(string(c)) {
			return c
		}
	}
	// Second chance: the model sometimes wraps the label in a sentence.
	for _, c := range KnownCategories() {
		if c != Unclassified && strings.Contains(cleaned, strings.ToLower(string(c))) {
			return c
		}
	}
	return Unclassified
}
