package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port         string
	DBPath       string
	LogRetention int
	DashboardURL string

	// Monitoring
	PollInterval    time.Duration
	ProbeMode       string
	ProbeTimeout    time.Duration
	ProbeTCPPort    int
	ProbePrivileged bool
	TargetsFile     string
	Targets         []Target

	// Geolocation
	IPInfoToken   string
	IPInfoBaseURL string
	GeoCacheTTL   time.Duration

	// Rate limiting
	StartRatePerMinute int

	// Alerts
	AlertCooldown      time.Duration
	AlertEmailsPerHour int
	BrevoAPIKey        string
	AlertEmailFrom     string
	AlertEmailTo       string
	WebhookURL         string
	WebhookSecret      string
}

// Target is a server started automatically at boot
type Target struct {
	Identifier string   `yaml:"identifier"`
	Threshold  *float64 `yaml:"threshold,omitempty"`
}

// Load reads configuration from .env and environment variables, then the targets file if one is set
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getenv("PORT", "5000"),
		DBPath:             getenv("DB_PATH", ":memory:"),
		LogRetention:       envInt("LOG_RETENTION", 10000),
		DashboardURL:       getenv("DASHBOARD_URL", ""),
		PollInterval:       envDurMillis("POLL_INTERVAL_MS", 2000),
		ProbeMode:          strings.ToLower(getenv("PROBE_MODE", "icmp")),
		ProbeTimeout:       envDurMillis("PROBE_TIMEOUT_MS", 1000),
		ProbeTCPPort:       envInt("PROBE_TCP_PORT", 443),
		ProbePrivileged:    envBool("PROBE_PRIVILEGED", false),
		TargetsFile:        getenv("TARGETS_FILE", ""),
		IPInfoToken:        getenv("IPINFO_TOKEN", ""),
		IPInfoBaseURL:      strings.TrimSuffix(getenv("IPINFO_BASE_URL", "https://ipinfo.io"), "/"),
		GeoCacheTTL:        envDurSecs("GEO_CACHE_SECONDS", 3600),
		StartRatePerMinute: envInt("START_RATE_PER_MINUTE", 30),
		AlertCooldown:      time.Duration(envInt("ALERT_COOLDOWN_MINUTES", 15)) * time.Minute,
		AlertEmailsPerHour: envInt("ALERT_EMAILS_PER_HOUR", 60),
		BrevoAPIKey:        getenv("BREVO_API_KEY", ""),
		AlertEmailFrom:     getenv("ALERT_EMAIL_FROM", ""),
		AlertEmailTo:       getenv("ALERT_EMAIL_TO", ""),
		WebhookURL:         getenv("WEBHOOK_URL", ""),
		WebhookSecret:      getenv("WEBHOOK_SECRET", ""),
	}

	if cfg.ProbeMode != "icmp" && cfg.ProbeMode != "tcp" {
		return nil, fmt.Errorf("PROBE_MODE must be icmp or tcp, got %q", cfg.ProbeMode)
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("POLL_INTERVAL_MS must be positive")
	}

	if cfg.TargetsFile != "" {
		targets, err := LoadTargets(cfg.TargetsFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = targets
	}

	return cfg, nil
}

// LoadTargets reads a YAML list of {identifier, threshold} entries
func LoadTargets(path string) ([]Target, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return ParseTargets(b)
}

// ParseTargets decodes and validates a targets document
func ParseTargets(b []byte) ([]Target, error) {
	var targets []Target
	if err := yaml.Unmarshal(b, &targets); err != nil {
		return nil, fmt.Errorf("parse targets yaml: %w", err)
	}

	seen := make(map[string]struct{}, len(targets))
	out := targets[:0]
	for i, t := range targets {
		t.Identifier = strings.TrimSpace(t.Identifier)
		if t.Identifier == "" {
			return nil, fmt.Errorf("targets[%d]: identifier is required", i)
		}
		if _, dup := seen[t.Identifier]; dup {
			return nil, fmt.Errorf("targets[%d]: duplicate identifier %q", i, t.Identifier)
		}
		seen[t.Identifier] = struct{}{}
		if t.Threshold != nil && *t.Threshold < 0 {
			return nil, fmt.Errorf("targets[%d]: threshold must be >= 0", i)
		}
		out = append(out, t)
	}
	return out, nil
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}

func envDurMillis(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Millisecond
}
