package api

import (
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/wayfinder/internal/config"
	"github.com/JaimeStill/wayfinder/internal/infrastructure"
	"github.com/JaimeStill/wayfinder/internal/workflow"
	"github.com/JaimeStill/wayfinder/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Agent      gaconfig.AgentConfig
	Workflow   config.WorkflowConfig
	Pagination pagination.Config
	Tokens     workflow.TokenSource
}

// NewRuntime creates an API runtime with a module-scoped logger. Agent calls
// carry Azure bearer tokens when a credential is configured.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	rt := &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:  infra.Lifecycle,
			Logger:     infra.Logger.With("module", "api"),
			Database:   infra.Database,
			Storage:    infra.Storage,
			Credential: infra.Credential,
		},
		Agent:      cfg.Agent,
		Workflow:   cfg.Workflow,
		Pagination: cfg.API.Pagination,
	}

	if ts := infrastructure.NewTokenSource(infra.Credential, cfg.Azure.Scope); ts != nil {
		rt.Tokens = ts
	}

	return rt
}
