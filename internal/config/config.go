// Package config loads and validates engine configuration from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all engine configuration. Loaded once at process start and
// passed explicitly; never mutated afterwards.
type Config struct {
	// Audit pipeline settings.
	AuditLogPath     string // Append-only JSONL file.
	AuditArchivePath string // Optional SQLite archive; empty disables it.
	AuditConsole     bool   // Human-readable diagnostic sink on stderr.
	DrainTimeout     time.Duration

	// Policy settings.
	PolicyVersion string

	// Downstream model descriptor, carried for audit only.
	ModelID         string
	ModelProvider   string
	ModelCompliance string
	ModelRiskLevel  string

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		AuditLogPath:     envStr("EDUSHIELD_AUDIT_LOG", "data/audit_log.jsonl"),
		AuditArchivePath: envStr("EDUSHIELD_AUDIT_ARCHIVE", ""),
		AuditConsole:     envBool("EDUSHIELD_AUDIT_CONSOLE", true),
		DrainTimeout:     envDuration("EDUSHIELD_DRAIN_TIMEOUT", 10*time.Second),
		PolicyVersion:    envStr("EDUSHIELD_POLICY_VERSION", "1.0"),
		ModelID:          envStr("EDUSHIELD_MODEL_ID", "edushield-connector"),
		ModelProvider:    envStr("EDUSHIELD_MODEL_PROVIDER", "local"),
		ModelCompliance:  envStr("EDUSHIELD_MODEL_COMPLIANCE", "internal"),
		ModelRiskLevel:   envStr("EDUSHIELD_MODEL_RISK", "low"),
		OTELEndpoint:     envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:     envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:      envStr("OTEL_SERVICE_NAME", "edushield"),
		LogLevel:         envStr("EDUSHIELD_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and coherent.
func (c Config) Validate() error {
	if c.AuditLogPath == "" {
		return fmt.Errorf("config: EDUSHIELD_AUDIT_LOG is required")
	}
	if c.PolicyVersion == "" {
		return fmt.Errorf("config: EDUSHIELD_POLICY_VERSION must not be empty")
	}
	if c.DrainTimeout <= 0 {
		return fmt.Errorf("config: EDUSHIELD_DRAIN_TIMEOUT must be positive")
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
