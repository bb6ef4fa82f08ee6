package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// --- helpers ---

func setEnvs(t *testing.T, m map[string]string) {
	t.Helper()
	for k, v := range m {
		t.Setenv(k, v)
	}
}

// --- getenv ---

func TestGetenv_Set(t *testing.T) {
	t.Setenv("TEST_KEY_GETENV", "hello")
	if got := getenv("TEST_KEY_GETENV", "fallback"); got != "hello" {
		t.Errorf("getenv returned %q, want %q", got, "hello")
	}
}

func TestGetenv_Unset(t *testing.T) {
	os.Unsetenv("TEST_KEY_GETENV_MISSING")
	if got := getenv("TEST_KEY_GETENV_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getenv returned %q, want %q", got, "fallback")
	}
}

func TestGetenv_EmptyStringUsesDefault(t *testing.T) {
	t.Setenv("TEST_KEY_EMPTY", "")
	if got := getenv("TEST_KEY_EMPTY", "default"); got != "default" {
		t.Errorf("getenv returned %q, want %q for empty env var", got, "default")
	}
}

// --- envInt ---

func TestEnvInt_ValidNumber(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := envInt("TEST_INT", 0); got != 42 {
		t.Errorf("envInt returned %d, want 42", got)
	}
}

func TestEnvInt_InvalidNumber(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "not_a_number")
	if got := envInt("TEST_INT_BAD", 99); got != 99 {
		t.Errorf("envInt returned %d, want default 99 for invalid input", got)
	}
}

func TestEnvInt_Unset(t *testing.T) {
	os.Unsetenv("TEST_INT_MISSING")
	if got := envInt("TEST_INT_MISSING", 7); got != 7 {
		t.Errorf("envInt returned %d, want default 7", got)
	}
}

func TestEnvInt_NegativeNumber(t *testing.T) {
	t.Setenv("TEST_INT_NEG", "-5")
	if got := envInt("TEST_INT_NEG", 0); got != -5 {
		t.Errorf("envInt returned %d, want -5", got)
	}
}

func TestEnvInt_Zero(t *testing.T) {
	t.Setenv("TEST_INT_ZERO", "0")
	if got := envInt("TEST_INT_ZERO", 99); got != 0 {
		t.Errorf("envInt returned %d, want 0", got)
	}
}

func TestEnvInt_FloatString(t *testing.T) {
	t.Setenv("TEST_INT_FLOAT", "3.14")
	if got := envInt("TEST_INT_FLOAT", 10); got != 10 {
		t.Errorf("envInt returned %d, want default 10 for float string", got)
	}
}

// --- envBool ---

func TestEnvBool_True(t *testing.T) {
	for _, val := range []string{"1", "true", "yes", "TRUE", "True", "YES", "Yes"} {
		t.Setenv("TEST_BOOL", val)
		if got := envBool("TEST_BOOL", false); !got {
			t.Errorf("envBool(%q) = false, want true", val)
		}
	}
}

func TestEnvBool_False(t *testing.T) {
	for _, val := range []string{"0", "false", "no", "FALSE", "random"} {
		t.Setenv("TEST_BOOL", val)
		if got := envBool("TEST_BOOL", true); got {
			t.Errorf("envBool(%q) = true, want false", val)
		}
	}
}

func TestEnvBool_Unset(t *testing.T) {
	os.Unsetenv("TEST_BOOL_MISSING")
	if got := envBool("TEST_BOOL_MISSING", true); !got {
		t.Error("envBool should return default true when unset")
	}
	if got := envBool("TEST_BOOL_MISSING", false); got {
		t.Error("envBool should return default false when unset")
	}
}

func TestEnvBool_EmptyString(t *testing.T) {
	t.Setenv("TEST_BOOL_EMPTY", "")
	if got := envBool("TEST_BOOL_EMPTY", true); !got {
		t.Error("envBool should return default true for empty string")
	}
}

// --- envDurSecs ---

func TestEnvDurSecs_Set(t *testing.T) {
	t.Setenv("TEST_DUR", "30")
	got := envDurSecs("TEST_DUR", 60)
	want := 30 * time.Second
	if got != want {
		t.Errorf("envDurSecs = %v, want %v", got, want)
	}
}

func TestEnvDurSecs_Default(t *testing.T) {
	os.Unsetenv("TEST_DUR_MISSING")
	got := envDurSecs("TEST_DUR_MISSING", 120)
	want := 120 * time.Second
	if got != want {
		t.Errorf("envDurSecs = %v, want %v", got, want)
	}
}

func TestEnvDurSecs_Zero(t *testing.T) {
	t.Setenv("TEST_DUR_ZERO", "0")
	got := envDurSecs("TEST_DUR_ZERO", 60)
	if got != 0 {
		t.Errorf("envDurSecs = %v, want 0", got)
	}
}

// --- envDurMillis ---

func TestEnvDurMillis(t *testing.T) {
	t.Setenv("TEST_DUR_MS", "250")
	if got := envDurMillis("TEST_DUR_MS", 2000); got != 250*time.Millisecond {
		t.Errorf("envDurMillis = %v, want 250ms", got)
	}
	os.Unsetenv("TEST_DUR_MS_MISSING")
	if got := envDurMillis("TEST_DUR_MS_MISSING", 2000); got != 2*time.Second {
		t.Errorf("envDurMillis = %v, want 2s", got)
	}
}

// --- Load ---

func clearEnv() {
	for _, k := range []string{
		"PORT", "DB_PATH", "LOG_RETENTION", "DASHBOARD_URL", "POLL_INTERVAL_MS",
		"PROBE_MODE", "PROBE_TIMEOUT_MS", "PROBE_TCP_PORT", "PROBE_PRIVILEGED",
		"TARGETS_FILE", "IPINFO_TOKEN", "IPINFO_BASE_URL", "GEO_CACHE_SECONDS",
		"START_RATE_PER_MINUTE", "ALERT_COOLDOWN_MINUTES", "ALERT_EMAILS_PER_HOUR",
		"BREVO_API_KEY", "ALERT_EMAIL_FROM", "ALERT_EMAIL_TO", "WEBHOOK_URL", "WEBHOOK_SECRET",
	} {
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.DBPath != ":memory:" {
		t.Errorf("DBPath = %q, want :memory:", cfg.DBPath)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.ProbeMode != "icmp" {
		t.Errorf("ProbeMode = %q, want icmp", cfg.ProbeMode)
	}
	if cfg.ProbeTimeout != time.Second {
		t.Errorf("ProbeTimeout = %v, want 1s", cfg.ProbeTimeout)
	}
	if cfg.ProbeTCPPort != 443 {
		t.Errorf("ProbeTCPPort = %d, want 443", cfg.ProbeTCPPort)
	}
	if cfg.ProbePrivileged {
		t.Error("ProbePrivileged should default to false")
	}
	if cfg.IPInfoBaseURL != "https://ipinfo.io" {
		t.Errorf("IPInfoBaseURL = %q", cfg.IPInfoBaseURL)
	}
	if cfg.GeoCacheTTL != time.Hour {
		t.Errorf("GeoCacheTTL = %v, want 1h", cfg.GeoCacheTTL)
	}
	if cfg.LogRetention != 10000 {
		t.Errorf("LogRetention = %d, want 10000", cfg.LogRetention)
	}
	if cfg.StartRatePerMinute != 30 {
		t.Errorf("StartRatePerMinute = %d, want 30", cfg.StartRatePerMinute)
	}
	if cfg.AlertCooldown != 15*time.Minute {
		t.Errorf("AlertCooldown = %v, want 15m", cfg.AlertCooldown)
	}
	if cfg.AlertEmailsPerHour != 60 {
		t.Errorf("AlertEmailsPerHour = %d, want 60", cfg.AlertEmailsPerHour)
	}
	if len(cfg.Targets) != 0 {
		t.Errorf("Targets = %v, want none", cfg.Targets)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv()
	setEnvs(t, map[string]string{
		"PORT":             "8080",
		"POLL_INTERVAL_MS": "500",
		"PROBE_MODE":       "TCP",
		"PROBE_TCP_PORT":   "22",
		"IPINFO_BASE_URL":  "http://localhost:9000/",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.PollInterval)
	}
	if cfg.ProbeMode != "tcp" {
		t.Errorf("ProbeMode = %q, want tcp", cfg.ProbeMode)
	}
	if cfg.ProbeTCPPort != 22 {
		t.Errorf("ProbeTCPPort = %d, want 22", cfg.ProbeTCPPort)
	}
	if cfg.IPInfoBaseURL != "http://localhost:9000" {
		t.Errorf("IPInfoBaseURL = %q, trailing slash should be stripped", cfg.IPInfoBaseURL)
	}
}

func TestLoad_InvalidProbeMode(t *testing.T) {
	clearEnv()
	t.Setenv("PROBE_MODE", "udp")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown probe mode")
	}
}

func TestLoad_NonPositiveInterval(t *testing.T) {
	clearEnv()
	t.Setenv("POLL_INTERVAL_MS", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero poll interval")
	}
}

func TestLoad_TargetsFile(t *testing.T) {
	clearEnv()
	path := filepath.Join(t.TempDir(), "targets.yaml")
	doc := "- identifier: 8.8.8.8\n  threshold: 100\n- identifier: 1.1.1.1\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TARGETS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("Targets = %d, want 2", len(cfg.Targets))
	}
	if cfg.Targets[0].Threshold == nil || *cfg.Targets[0].Threshold != 100 {
		t.Errorf("first target threshold = %v, want 100", cfg.Targets[0].Threshold)
	}
	if cfg.Targets[1].Threshold != nil {
		t.Errorf("second target should have no threshold, got %v", *cfg.Targets[1].Threshold)
	}
}

func TestLoad_MissingTargetsFile(t *testing.T) {
	clearEnv()
	t.Setenv("TARGETS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing targets file")
	}
}

// --- ParseTargets ---

func TestParseTargets_Errors(t *testing.T) {
	cases := map[string]string{
		"missing identifier": "- threshold: 10\n",
		"duplicate":          "- identifier: 8.8.8.8\n- identifier: 8.8.8.8\n",
		"negative threshold": "- identifier: 8.8.8.8\n  threshold: -1\n",
	}
	for name, doc := range cases {
		if _, err := ParseTargets([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseTargets_TrimsIdentifier(t *testing.T) {
	targets, err := ParseTargets([]byte("- identifier: \"  9.9.9.9 \"\n  threshold: 0\n"))
	if err != nil {
		t.Fatalf("ParseTargets failed: %v", err)
	}
	if targets[0].Identifier != "9.9.9.9" {
		t.Errorf("Identifier = %q, want 9.9.9.9", targets[0].Identifier)
	}
	if targets[0].Threshold == nil || *targets[0].Threshold != 0 {
		t.Error("threshold 0 should be kept")
	}
}

func TestParseTargets_Empty(t *testing.T) {
	targets, err := ParseTargets([]byte(""))
	if err != nil {
		t.Fatalf("ParseTargets failed: %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("expected no targets, got %d", len(targets))
	}
}
