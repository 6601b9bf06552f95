package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "KADET_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "KADET_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "groq.endpoint", typ: kString, env: "GROQ_ENDPOINT",
		apply:   func(cfg *Config, v any) { cfg.Groq.Endpoint = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.Endpoint },
	},
	{
		key: "groq.api_key", typ: kString, env: "GROQ_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Groq.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.APIKey },
	},
	{
		key: "groq.model", typ: kString, env: "KADET_GROQ_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Groq.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.Model },
	},
	{
		key: "embed.base_url", typ: kString, env: "KADET_EMBED_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Embed.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Embed.BaseURL },
	},
	{
		key: "embed.model", typ: kString, env: "KADET_EMBED_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Embed.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Embed.Model },
	},
	{
		key: "embed.dimension", typ: kInt, env: "KADET_EMBED_DIMENSION",
		apply:   func(cfg *Config, v any) { cfg.Embed.Dimension = v.(int) },
		extract: func(cfg Config) any { return cfg.Embed.Dimension },
	},
	{
		key: "storage.data_dir", typ: kString, env: "KADET_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "reports.path", typ: kString, env: "KADET_REPORTS_PATH",
		apply:   func(cfg *Config, v any) { cfg.Reports.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Reports.Path },
	},
	{
		key: "exemplars.path", typ: kString, env: "KADET_EXEMPLARS_PATH",
		apply:   func(cfg *Config, v any) { cfg.Exemplars.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Exemplars.Path },
	},
	{
		key: "cascade.legacy_sources", typ: kString, env: "KADET_CASCADE_LEGACY_SOURCES",
		apply:   func(cfg *Config, v any) { cfg.Cascade.LegacySources = v.(string) },
		extract: func(cfg Config) any { return cfg.Cascade.LegacySources },
	},
	{
		key: "anomaly.max_batch", typ: kInt, env: "KADET_ANOMALY_MAX_BATCH",
		apply:   func(cfg *Config, v any) { cfg.Anomaly.MaxBatch = v.(int) },
		extract: func(cfg Config) any { return cfg.Anomaly.MaxBatch },
	},
	{
		key: "anomaly.max_log_length", typ: kInt, env: "KADET_ANOMALY_MAX_LOG_LENGTH",
		apply:   func(cfg *Config, v any) { cfg.Anomaly.MaxLogLength = v.(int) },
		extract: func(cfg Config) any { return cfg.Anomaly.MaxLogLength },
	},
	{
		key: "collector.log_file", typ: kString, env: "KADET_COLLECTOR_LOG_FILE",
		apply:   func(cfg *Config, v any) { cfg.Collector.LogFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Collector.LogFile },
	},
	{
		key: "worker.interval", typ: kString, env: "KADET_WORKER_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Worker.Interval = v.(string) },
		extract: func(cfg Config) any { return cfg.Worker.Interval },
	},
	{
		key: "log.level", typ: kString, env: "KADET_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
