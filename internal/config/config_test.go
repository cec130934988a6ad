package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/wayfinder/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080

[database]
host = "localhost"
name = "wayfinder"
user = "wayfinder"
password = "wayfinder"

[storage]
container_name = "itineraries"
connection_string = "DefaultEndpointsProtocol=http;AccountName=wayfinderstore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/wayfinderstore;"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[agent]
name = "flight-agent"

[agent.provider]
name = "ollama"

[agent.model]
name = "llama3.1:8b"

[workflow]
max_attempts = 5
decision_timeout = "30m"
`

const overlayConfig = `
[server]
port = 9090

[workflow]
max_price = 450.0

[auth]
enabled = true
issuer = "https://login.example.com/tenant/v2.0"
client_id = "wayfinder-api"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func loadBase(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadBase(t)

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"server addr", cfg.Server.Addr(), "0.0.0.0:8080"},
		{"db name", cfg.Database.Name, "wayfinder"},
		{"storage container", cfg.Storage.ContainerName, "itineraries"},
		{"storage enabled", cfg.Storage.Enabled(), true},
		{"base path", cfg.API.BasePath, "/api"},
		{"page size", cfg.API.Pagination.DefaultPageSize, 25},
		{"agent name", cfg.Agent.Name, "flight-agent"},
		{"provider", cfg.Agent.Provider.Name, "ollama"},
		{"max attempts", cfg.Workflow.MaxAttempts, 5},
		{"decision timeout", cfg.Workflow.DecisionTimeoutDuration(), 30 * time.Minute},
		{"departure window default", cfg.Workflow.DepartureWindowHours, 6},
		{"max price default", cfg.Workflow.MaxPrice, 1000.0},
		{"resume concurrency default", cfg.Workflow.ResumeConcurrency, 4},
		{"auth disabled", cfg.Auth.Enabled, false},
		{"tracing output", cfg.Tracing.Output, "stdout"},
		{"azure credential", cfg.Azure.Credential, config.CredentialNone},
		{"shutdown timeout", cfg.ShutdownTimeoutDuration(), 30 * time.Second},
		{"env", cfg.Env(), "local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv(config.EnvWayfinderEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Workflow.MaxPrice != 450 {
		t.Errorf("max price: got %v, want 450 (from overlay)", cfg.Workflow.MaxPrice)
	}
	if cfg.Workflow.MaxAttempts != 5 {
		t.Errorf("max attempts: got %d, want 5 (from base)", cfg.Workflow.MaxAttempts)
	}
	if !cfg.Auth.Enabled || cfg.Auth.ClientID != "wayfinder-api" {
		t.Errorf("auth: got %+v", cfg.Auth)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	t.Setenv("WAYFINDER_VERSION", "2.0.0")
	t.Setenv("WAYFINDER_SERVER_PORT", "3000")
	t.Setenv("WAYFINDER_WORKFLOW_DECISION_TIMEOUT", "90s")
	t.Setenv("WAYFINDER_WORKFLOW_DEPARTURE_WINDOW_HOURS", "12")
	t.Setenv("WAYFINDER_AZURE_CREDENTIAL", "cli")
	t.Setenv("WAYFINDER_TRACING_ENABLED", "true")
	t.Setenv("WAYFINDER_AGENT_MODEL_NAME", "gpt-4o")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Workflow.DecisionTimeoutDuration() != 90*time.Second {
		t.Errorf("decision timeout: got %v, want 90s", cfg.Workflow.DecisionTimeoutDuration())
	}
	if cfg.Workflow.DepartureWindowHours != 12 {
		t.Errorf("departure window: got %d, want 12", cfg.Workflow.DepartureWindowHours)
	}
	if cfg.Azure.Credential != config.CredentialCLI {
		t.Errorf("azure credential: got %s, want cli", cfg.Azure.Credential)
	}
	if !cfg.Tracing.Enabled {
		t.Error("tracing should be enabled from env")
	}
	if cfg.Agent.Model.Name != "gpt-4o" {
		t.Errorf("model name: got %s, want gpt-4o", cfg.Agent.Model.Name)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("WAYFINDER_DB_NAME", "journal")
	t.Setenv("WAYFINDER_DB_USER", "engine")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "journal" {
		t.Errorf("db name from env: got %s, want journal", cfg.Database.Name)
	}
	if cfg.Storage.Enabled() {
		t.Error("storage should be disabled without a connection string or service url")
	}
	if cfg.Workflow.MaxAttempts != 3 || cfg.Workflow.DecisionTimeoutDuration() != time.Hour {
		t.Errorf("workflow defaults: got %+v", cfg.Workflow)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, `[server`)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestValidation(t *testing.T) {
	const db = "\n[database]\nname = \"wayfinder\"\nuser = \"wayfinder\"\n"

	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"invalid port", "[server]\nport = 99999\n" + db, "invalid port"},
		{"invalid shutdown timeout", "shutdown_timeout = \"soon\"\n" + db, "invalid shutdown_timeout"},
		{"nested base path", "[api]\nbase_path = \"/api/v1\"\n" + db, "invalid base_path"},
		{"zero attempts", "[workflow]\nmax_attempts = -1\n" + db, "max_attempts must be positive"},
		{"bad decision timeout", "[workflow]\ndecision_timeout = \"later\"\n" + db, "invalid decision_timeout"},
		{"auth without issuer", "[auth]\nenabled = true\nclient_id = \"x\"\n" + db, "issuer required"},
		{"unknown credential", "[azure]\ncredential = \"managed\"\n" + db, "invalid credential"},
		{"missing db name", "[database]\nuser = \"wayfinder\"\n", "name required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, config.BaseConfigFile, tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
