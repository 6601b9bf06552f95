package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/classify"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/collector"
)

// MCPClassifier abstracts single-line classification for the MCP layer.
type MCPClassifier interface {
	Classify(ctx context.Context, rec collector.Record) (classify.ClassifiedLog, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Classifier MCPClassifier
	Runner     CycleRunner
	Reports    ReportStore
	Version    string
}

// NewMCPServer creates an MCP server exposing log classification and the
// anomaly report history as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"kadet",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("kadet — Kubernetes log anomaly detection: classify log lines, run analysis cycles, and browse past anomaly reports."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("classify_line",
			mcp.WithDescription("Classify a single log line into a known category via the rule/semantic/generative cascade."),
			mcp.WithString("message", mcp.Description("The log line text"), mcp.Required()),
			mcp.WithString("source", mcp.Description("Origin system of the line (default mock-pod)")),
		),
		mcpClassifyLine(deps),
	)

	s.AddTool(
		mcp.NewTool("run_analysis",
			mcp.WithDescription("Run one full analysis cycle over the configured log feed and persist a report if anomalies are found."),
		),
		mcpRunAnalysis(deps),
	)

	s.AddTool(
		mcp.NewTool("recent_reports",
			mcp.WithDescription("Return the most recent anomaly reports, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of reports (default 5)")),
		),
		mcpRecentReports(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"kadet://reports",
			"Anomaly Reports",
			mcp.WithResourceDescription("Full anomaly report history as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceReports(deps),
	)

	return s
}

func mcpClassifyLine(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		source := req.GetString("source", "mock-pod")

		cl, err := deps.Classifier.Classify(ctx, collector.Record{Source: source, Namespace: "default", Message: message})
		if err != nil {
			return mcpError(fmt.Sprintf("classification failed: %v", err)), nil
		}

		b, err := json.Marshal(cl)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRunAnalysis(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := deps.Runner.Run(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("analysis cycle failed: %v", err)), nil
		}

		out := AnalyzeResponse{
			Status:    result.Triage.Status(),
			Triage:    result.Triage,
			Anomalies: !result.Skipped,
			Report:    result.Report,
		}
		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecentReports(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		history := deps.Reports.List()
		if len(history) > limit {
			history = history[:limit]
		}
		if len(history) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(history)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal reports: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceReports(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Reports.List())
		if err != nil {
			return nil, fmt.Errorf("marshaling reports: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "kadet://reports",
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
