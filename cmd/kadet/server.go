package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/anomaly"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/api"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/classify"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/collector"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/config"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/embed"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/exemplar"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/groq"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/pipeline"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/report"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the kadet server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running kadet server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show kadet system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "kadet.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "kadet version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Refuse a second instance: probe the health endpoint before claiming
	// the PID file.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("kadet is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("kadet is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Check embedding backend readiness.
	embedClient := embed.NewClient(cfg.Embed.BaseURL)
	if !embedClient.IsRunning(ctx) {
		return fmt.Errorf("embedding backend not reachable at %s", cfg.Embed.BaseURL)
	}
	slog.Info("embedding backend ready", "base_url", cfg.Embed.BaseURL, "model", cfg.Embed.Model)

	// Open storage for the exemplar vector cache.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Build the classification cascade.
	defs, err := exemplar.LoadDefinitions(cfg.Exemplars.Path)
	if err != nil {
		return fmt.Errorf("loading exemplar definitions: %w", err)
	}
	embedder := embed.NewEmbedder(embedClient, cfg.Embed.Model)
	set, err := exemplar.Build(ctx, defs, embedder, store, cfg.Embed.Model, cfg.Embed.Dimension)
	if err != nil {
		return fmt.Errorf("building exemplar set: %w", err)
	}
	semantic, err := classify.NewSemanticClassifier(embedder, set)
	if err != nil {
		return fmt.Errorf("building semantic classifier: %w", err)
	}
	groqClient := groq.New(cfg.Groq.Endpoint, cfg.Groq.APIKey)
	generative := classify.NewGenerativeClassifier(groqClient, cfg.Groq.Model)
	cascade := classify.NewCascade(classify.DefaultRules(), semantic, generative, cfg.LegacySources())

	// Assemble the analysis pipeline.
	feed := collector.NewFileFeed(cfg.Collector.LogFile)
	aggregator := anomaly.NewAggregator(generative, nil,
		anomaly.WithMaxBatch(cfg.Anomaly.MaxBatch),
		anomaly.WithMaxLogLength(cfg.Anomaly.MaxLogLength),
	)
	reports := report.NewStore(cfg.Reports.Path)
	runner := pipeline.NewRunner(feed, cascade, aggregator, reports)

	// Start the periodic analysis worker.
	worker := pipeline.NewWorker(runner, cfg.WorkerInterval())
	go worker.Run(ctx)

	handler := api.NewAppHandler(api.AppDeps{
		Runner:  runner,
		Reports: reports,
		Token:   cfg.Server.APIToken,
		Version: version,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Classifier: cascade,
		Runner:     runner,
		Reports:    reports,
		Version:    version,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "kadet listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("kadet is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop kadet (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to kadet (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	embedClient := embed.NewClient(cfg.Embed.BaseURL)
	probeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if embedClient.IsRunning(probeCtx) {
		printStatus("Embedding", "running at %s", cfg.Embed.BaseURL)
	} else {
		printStatus("Embedding", "not running")
	}

	printStatus("Groq model", "%s", cfg.Groq.Model)
	printStatus("Embed model", "%s", cfg.Embed.Model)
	printStatus("Log feed", "%s", cfg.Collector.LogFile)
	printStatus("Reports", "%s", cfg.Reports.Path)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
