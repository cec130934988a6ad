package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/wayfinder/pkg/formatting"
)

// Agent is the generative capability the orchestrator depends on. Each call
// receives the instance thread so the model sees the accumulated conversation.
type Agent interface {
	Search(ctx context.Context, thread Thread, prompt string) (Result, error)
	Interpret(ctx context.Context, thread Thread, payload string) (Result, error)
	Summarize(ctx context.Context, thread Thread, option Option) (Result, error)
}

// TokenSource supplies bearer tokens for providers that authenticate per call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// AgentFactory builds the go-agents client used for a single call.
type AgentFactory func(cfg *gaconfig.AgentConfig) (agent.Agent, error)

// ChatAgent implements Agent over a go-agents chat model.
type ChatAgent struct {
	config       gaconfig.AgentConfig
	tokens       TokenSource
	instructions InstructionSource
	flights      *FlightGenerator
	factory      AgentFactory
	logger       *slog.Logger
}

// NewChatAgent creates a ChatAgent. tokens may be nil when the provider
// configuration already carries its credentials. flights answers the flight
// search tool offered during the search stage.
func NewChatAgent(
	cfg gaconfig.AgentConfig,
	tokens TokenSource,
	instructions InstructionSource,
	flights *FlightGenerator,
	logger *slog.Logger,
) *ChatAgent {
	return &ChatAgent{
		config:       cfg,
		tokens:       tokens,
		instructions: instructions,
		flights:      flights,
		factory:      agent.New,
		logger:       logger.With("agent", cfg.Name),
	}
}

// WithFactory replaces the go-agents constructor.
func (a *ChatAgent) WithFactory(factory AgentFactory) *ChatAgent {
	a.factory = factory
	return a
}

// Search offers the model the flight search tool. Tool calls are answered by
// the flight generator and returned as a structured batch; a reply without
// tool calls is returned as text.
func (a *ChatAgent) Search(ctx context.Context, thread Thread, prompt string) (Result, error) {
	ag, composed, err := a.prepare(ctx, StageSearch, thread, prompt)
	if err != nil {
		return Result{}, err
	}

	resp, err := ag.Tools(ctx, composed, []agent.Tool{FlightTool()})
	if err != nil {
		return Result{}, fmt.Errorf("%s: tools call: %w", StageSearch, err)
	}

	result, err := a.flights.Answer(resp)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", StageSearch, err)
	}

	a.logger.DebugContext(ctx, "agent call complete",
		"stage", StageSearch,
		"thread", thread.ID,
		"tool_result", len(result.Structured) > 0,
	)
	return result, nil
}

// Interpret asks the model to classify the reviewer payload. When the reply
// holds a JSON object, possibly fenced, it is surfaced as the structured payload.
func (a *ChatAgent) Interpret(ctx context.Context, thread Thread, payload string) (Result, error) {
	content, err := a.chat(ctx, StageInterpret, thread, payload)
	if err != nil {
		return Result{}, err
	}

	result := Result{Response: content}
	if object, err := formatting.Parse[map[string]json.RawMessage](content); err == nil && object != nil {
		if structured, err := json.Marshal(object); err == nil {
			result.Structured = structured
		}
	}
	return result, nil
}

func (a *ChatAgent) Summarize(ctx context.Context, thread Thread, option Option) (Result, error) {
	message, err := json.Marshal(option)
	if err != nil {
		return Result{}, fmt.Errorf("marshal option: %w", err)
	}

	content, err := a.chat(ctx, StageSummarize, thread, string(message))
	if err != nil {
		return Result{}, err
	}
	return Result{Response: content}, nil
}

func (a *ChatAgent) chat(ctx context.Context, stage Stage, thread Thread, message string) (string, error) {
	ag, prompt, err := a.prepare(ctx, stage, thread, message)
	if err != nil {
		return "", err
	}

	resp, err := ag.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: chat call: %w", stage, err)
	}

	a.logger.DebugContext(ctx, "agent call complete", "stage", stage, "thread", thread.ID)
	return resp.Content(), nil
}

// prepare builds the per-call agent and composes the stage prompt.
func (a *ChatAgent) prepare(ctx context.Context, stage Stage, thread Thread, message string) (agent.Agent, string, error) {
	cfg, err := a.callConfig(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", stage, err)
	}

	ag, err := a.factory(&cfg)
	if err != nil {
		return nil, "", fmt.Errorf("%s: create agent: %w", stage, err)
	}

	instructions, err := a.instructions.Resolve(ctx, stage)
	if err != nil {
		return nil, "", fmt.Errorf("%s: resolve instructions: %w", stage, err)
	}

	return ag, Compose(instructions, thread, message), nil
}

// callConfig copies the agent config for a single call, injecting a fresh
// bearer token when a TokenSource is configured.
func (a *ChatAgent) callConfig(ctx context.Context) (gaconfig.AgentConfig, error) {
	cfg := a.config
	if a.tokens == nil || cfg.Provider == nil {
		return cfg, nil
	}

	token, err := a.tokens.Token(ctx)
	if err != nil {
		return cfg, fmt.Errorf("acquire token: %w", err)
	}

	provider := *cfg.Provider
	provider.Options = maps.Clone(provider.Options)
	if provider.Options == nil {
		provider.Options = make(map[string]any)
	}
	provider.Options["token"] = token
	cfg.Provider = &provider

	return cfg, nil
}
