package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Groq      GroqConfig
	Embed     EmbedConfig
	Storage   StorageConfig
	Reports   ReportsConfig
	Exemplars ExemplarsConfig
	Cascade   CascadeConfig
	Anomaly   AnomalyConfig
	Collector CollectorConfig
	Worker    WorkerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
	// APIToken guards the management endpoints; empty disables auth.
	APIToken string
}

type GroqConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

type EmbedConfig struct {
	BaseURL   string
	Model     string
	Dimension int
}

type StorageConfig struct {
	DataDir string
}

type ReportsConfig struct {
	Path string
}

type ExemplarsConfig struct {
	// Path points at a JSON exemplar file; empty means the built-in set.
	Path string
}

type CascadeConfig struct {
	// LegacySources is a comma-separated list of source names routed
	// straight to the generative tier.
	LegacySources string
}

type AnomalyConfig struct {
	MaxBatch     int
	MaxLogLength int
}

type CollectorConfig struct {
	LogFile string
}

type WorkerConfig struct {
	// Interval is a Go duration string, e.g. "30s".
	Interval string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Groq: GroqConfig{
			Endpoint: "https://api.groq.com/openai/v1/chat/completions",
			Model:    "llama3-8b-8192",
		},
		Embed: EmbedConfig{
			BaseURL:   "http://localhost:11434",
			Model:     "all-minilm",
			Dimension: 384,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Reports: ReportsConfig{
			Path: filepath.Join(dataDir, "reports.json"),
		},
		Cascade: CascadeConfig{
			LegacySources: "LegacyCRM",
		},
		Anomaly: AnomalyConfig{
			MaxBatch:     150,
			MaxLogLength: 500,
		},
		Collector: CollectorConfig{
			LogFile: "sample_logs.txt",
		},
		Worker: WorkerConfig{
			Interval: "30s",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.kadet.app) and the API
// key falls back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/kadet/config.json
// and secrets must be provided via environment variables.
//
// Environment variables (KADET_*, plus GROQ_API_KEY and GROQ_ENDPOINT)
// override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try platform keychain for the API key if still empty.
	if cfg.Groq.APIKey == "" {
		if key, err := kc.Get("kadet", "groq_api_key"); err == nil && key != "" {
			cfg.Groq.APIKey = key
		}
	}

	if cfg.Groq.APIKey == "" {
		msg := "missing required config: Groq API key. " +
			"Set it via environment variable GROQ_API_KEY" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}

	if _, err := time.ParseDuration(cfg.Worker.Interval); err != nil {
		return Config{}, fmt.Errorf("invalid worker.interval %q: %w", cfg.Worker.Interval, err)
	}

	return cfg, nil
}

// LegacySources splits the configured legacy source list.
func (c Config) LegacySources() []string {
	var out []string
	for _, s := range strings.Split(c.Cascade.LegacySources, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// WorkerInterval returns the parsed poll interval. Load validates the
// string, so this never fails on a loaded config.
func (c Config) WorkerInterval() time.Duration {
	d, err := time.ParseDuration(c.Worker.Interval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
