package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/wayfinder/internal/api"
	"github.com/JaimeStill/wayfinder/internal/config"
	"github.com/JaimeStill/wayfinder/internal/infrastructure"
	"github.com/JaimeStill/wayfinder/pkg/database"
	"github.com/JaimeStill/wayfinder/pkg/module"
	"github.com/JaimeStill/wayfinder/pkg/pagination"
	"github.com/JaimeStill/wayfinder/pkg/storage"
)

func validConfig() *config.Config {
	return &config.Config{
		Agent: gaconfig.AgentConfig{
			Name: "flight-agent",
			Provider: &gaconfig.ProviderConfig{
				Name:    "ollama",
				BaseURL: "http://localhost:11434",
				Options: make(map[string]any),
			},
			Model: &gaconfig.ModelConfig{
				Name: "llama3.1:8b",
			},
		},
		Database: database.Config{
			Host:            "127.0.0.1",
			Port:            1,
			Name:            "wayfinder",
			User:            "wayfinder",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    1,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "1s",
		},
		Storage: storage.Config{ContainerName: "itineraries"},
		API: config.APIConfig{
			BasePath:   "/api",
			Pagination: pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		},
		Workflow: config.WorkflowConfig{
			MaxAttempts:          3,
			DecisionTimeout:      "1h",
			DepartureWindowHours: 6,
			MaxPrice:             1000,
			ResumeConcurrency:    4,
		},
		Azure:           config.AzureConfig{Credential: config.CredentialNone, Scope: "https://cognitiveservices.azure.com/.default"},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	t.Cleanup(func() { infra.Lifecycle.Shutdown(5 * time.Second) })
	return infra
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig()
	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))

	if runtime.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max page size: got %d, want 100", runtime.Pagination.MaxPageSize)
	}
	if runtime.Workflow.DecisionTimeoutDuration().String() != "1h0m0s" {
		t.Errorf("decision timeout: got %s", runtime.Workflow.DecisionTimeoutDuration())
	}
	if runtime.Agent.Name != "flight-agent" {
		t.Errorf("agent name: got %s", runtime.Agent.Name)
	}
	if runtime.Tokens != nil {
		t.Error("tokens should be nil without a credential")
	}
	if runtime.Storage != nil {
		t.Error("storage should be nil when disabled")
	}
}

func TestNewModuleRoutes(t *testing.T) {
	cfg := validConfig()

	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}

	router := module.NewRouter()
	router.Mount(m)

	tests := []struct {
		name    string
		method  string
		path    string
		status  int
		message string
	}{
		{"status without id", "GET", "/api/travel/status", http.StatusBadRequest, "Missing instanceId"},
		{"choice without id", "POST", "/api/travel/choice/", http.StatusBadRequest, "Missing instanceId in route."},
		{"status with malformed id", "GET", "/api/travel/status/abc", http.StatusNotFound, "Instance not found."},
		{"prompt with malformed id", "GET", "/api/prompts/abc", http.StatusBadRequest, "invalid prompt id"},
		{"instructions for unknown stage", "GET", "/api/prompts/boarding/instructions", http.StatusBadRequest, "stage must be search, interpret, or summarize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.status)
			}

			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.message {
				t.Errorf("error: got %q, want %q", body.Error, tt.message)
			}
		})
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig()
	domain := api.NewDomain(api.NewRuntime(cfg, setupInfra(t, cfg)))

	if domain.Travel == nil {
		t.Error("travel system should be set")
	}
	if domain.Prompts == nil {
		t.Error("prompts system should be set")
	}
}

func TestNewModuleAuthDiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := validConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, Issuer: srv.URL, ClientID: "wayfinder-api"}

	if _, err := api.NewModule(cfg, setupInfra(t, cfg)); err == nil {
		t.Fatal("expected error when the issuer cannot be discovered")
	}
}
