package api

import (
	"github.com/JaimeStill/wayfinder/internal/prompts"
	"github.com/JaimeStill/wayfinder/internal/travel"
	"github.com/JaimeStill/wayfinder/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Prompts prompts.System
	Travel  travel.System
}

// NewDomain creates all domain systems from the API runtime. Agent stages
// resolve their instructions through the prompts system so active overrides
// apply to the next agent call.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	defaults := workflow.SearchDefaults{
		DepartureWindowHours: runtime.Workflow.DepartureWindowHours,
		MaxPrice:             runtime.Workflow.MaxPrice,
	}

	promptsSys := prompts.New(db, defaults, runtime.Logger, runtime.Pagination)

	store := travel.NewStore(db, runtime.Logger)

	agent := workflow.NewChatAgent(
		runtime.Agent,
		runtime.Tokens,
		promptsSys,
		workflow.NewFlightGenerator(defaults, nil, nil),
		runtime.Logger,
	)

	engine := workflow.NewEngine(
		&workflow.Runtime{
			Agent:      agent,
			Activities: workflow.NewNotifier(runtime.Storage, runtime.Logger),
			Store:      store,
			Logger:     runtime.Logger.With("workflow", "travel"),
		},
		workflow.Options{
			MaxAttempts:       runtime.Workflow.MaxAttempts,
			DecisionTimeout:   runtime.Workflow.DecisionTimeoutDuration(),
			ResumeConcurrency: runtime.Workflow.ResumeConcurrency,
		},
	)

	return &Domain{
		Prompts: promptsSys,
		Travel:  travel.New(engine, store, runtime.Logger, runtime.Pagination),
	}
}
