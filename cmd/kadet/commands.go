package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/api"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/config"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/embed"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/exemplar"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/report"
	"github.com/Nikhilg27425/K8s-anamoly-detection/internal/storage"
)

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis cycle against the running server",
	Long: `Run one analysis cycle: classify the log feed, summarize anomalies,
and persist a report if any were found.

Examples:
  kadet analyze
  kadet analyze --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/analyze", nil)
		if err != nil {
			return err
		}

		var result api.AnalyzeResponse
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printStatus("Status", "%s", colorize(statusColor(string(result.Status)), string(result.Status)))
		printStatus("Logs", "%d (%d errors, %d warnings)", result.Triage.Total, result.Triage.Errors, result.Triage.Warnings)
		if !result.Anomalies {
			printSuccess("No anomalous logs to analyze")
			return nil
		}
		printSuccess("Report #%d written at %s", result.Report.Index, result.Report.Timestamp)
		fmt.Fprintln(os.Stdout, result.Report.Response)
		return nil
	},
}

// --- logs ---

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the classified log feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/logs")
		if err != nil {
			return err
		}

		var result api.LogsResponse
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printStatus("Status", "%s", colorize(statusColor(string(result.Status)), string(result.Status)))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tCATEGORY\tTIER\tMESSAGE")
		for _, l := range result.Logs {
			msg := l.Message
			if len(msg) > 80 {
				msg = msg[:77] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Source, l.Category, l.Tier, msg)
		}
		return w.Flush()
	},
}

// --- reports ---

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Manage persisted anomaly reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List anomaly reports, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/reports")
		if err != nil {
			return err
		}

		var history []report.Entry
		if err := decodeJSON(resp, &history); err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(history)
		}

		if len(history) == 0 {
			printWarning("no reports yet")
			return nil
		}
		for _, e := range history {
			fmt.Fprintf(os.Stdout, "--- #%d (%s) ---\n%s\n", e.Index, e.Timestamp, e.Response)
		}
		return nil
	},
}

var reportsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all persisted anomaly reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/reports")
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Report history cleared")
		return nil
	},
}

// --- exemplars ---

var exemplarsCmd = &cobra.Command{
	Use:   "exemplars",
	Short: "Manage semantic classifier exemplars",
}

var exemplarsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-embed all exemplars, discarding cached vectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		if err := store.PurgeExemplarVectors(); err != nil {
			return fmt.Errorf("purging cached vectors: %w", err)
		}
		printStep("Purged cached exemplar vectors")

		defs, err := exemplar.LoadDefinitions(cfg.Exemplars.Path)
		if err != nil {
			return fmt.Errorf("loading exemplar definitions: %w", err)
		}

		embedClient := embed.NewClient(cfg.Embed.BaseURL)
		if !embedClient.IsRunning(cmd.Context()) {
			return fmt.Errorf("embedding backend not reachable at %s", cfg.Embed.BaseURL)
		}
		embedder := embed.NewEmbedder(embedClient, cfg.Embed.Model)

		set, err := exemplar.Build(cmd.Context(), defs, embedder, store, cfg.Embed.Model, cfg.Embed.Dimension)
		if err != nil {
			return fmt.Errorf("building exemplar set: %w", err)
		}

		printSuccess("Embedded %d exemplars (dimension %d)", set.Len(), set.Dim())
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and modify configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE\tENV")
		for _, info := range config.ShowAll(cfg) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", info.Key, info.Value, info.EnvVar)
		}
		return w.Flush()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a config key to the platform backend",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kadet version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "kadet version %s\n", version)
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "emit raw JSON")
	logsCmd.Flags().Bool("json", false, "emit raw JSON")
	reportsListCmd.Flags().Bool("json", false, "emit raw JSON")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsClearCmd)
	exemplarsCmd.AddCommand(exemplarsRebuildCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
