package workflow

import (
	"context"
	"fmt"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// State bag keys shared by the step graph nodes.
const (
	KeyInstance = "instance"
	KeyNext     = "next"
)

const (
	nodeRoute     = "route"
	nodeSearch    = "search"
	nodeNotify    = "notify"
	nodeAwait     = "await"
	nodeInterpret = "interpret"
	nodeSummarize = "summarize"
	nodeDeliver   = "deliver"
	nodeFinish    = "finish"
)

var stepNodes = []string{
	nodeSearch,
	nodeNotify,
	nodeAwait,
	nodeInterpret,
	nodeSummarize,
	nodeDeliver,
}

// drive runs the step graph from inst's current state until the instance
// suspends or terminates, returning the last persisted instance.
func (e *Engine) drive(ctx context.Context, inst *Instance) (*Instance, error) {
	graph, err := e.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyInstance, *inst)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractInstance(finalState)
}

// buildGraph wires a hub: route inspects the folded state and selects one
// step node, every step records its transition and returns to route, and
// route exits through finish once the instance suspends or terminates.
func (e *Engine) buildGraph() (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("wayfinder-travel")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode(nodeRoute, RouteNode(e)); err != nil {
		return nil, err
	}
	if err := graph.AddNode(nodeFinish, FinishNode(e)); err != nil {
		return nil, err
	}

	steps := map[string]stepFunc{
		nodeSearch:    e.search,
		nodeNotify:    e.notify,
		nodeAwait:     e.await,
		nodeInterpret: e.interpret,
		nodeSummarize: e.summarize,
		nodeDeliver:   e.deliver,
	}

	for _, name := range stepNodes {
		if err := graph.AddNode(name, e.stepNode(name, steps[name])); err != nil {
			return nil, err
		}

		// route → step (when selected)
		if err := graph.AddEdge(nodeRoute, name, nextIs(name)); err != nil {
			return nil, err
		}

		// step → route (unconditional)
		if err := graph.AddEdge(name, nodeRoute, nil); err != nil {
			return nil, err
		}
	}

	// route → finish (suspended or terminal)
	if err := graph.AddEdge(nodeRoute, nodeFinish, nextIs(nodeFinish)); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint(nodeRoute); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint(nodeFinish); err != nil {
		return nil, err
	}

	return graph, nil
}

// RouteNode returns the hub node that records which step runs next.
func RouteNode(e *Engine) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		inst, err := extractInstance(s)
		if err != nil {
			return s, fmt.Errorf("route: %w", err)
		}

		s = s.Set(KeyNext, next(inst))
		return s, nil
	})
}

// FinishNode returns the exit node, logging where the instance came to rest.
func FinishNode(e *Engine) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		inst, err := extractInstance(s)
		if err != nil {
			return s, fmt.Errorf("finish: %w", err)
		}

		e.rt.Logger.InfoContext(
			ctx, "instance suspended",
			"instance_id", inst.ID,
			"state", inst.State,
			"attempt", inst.Attempt,
		)
		return s, nil
	})
}

func next(inst *Instance) string {
	switch inst.State {
	case StateSearching:
		return nodeSearch
	case StateNotifying:
		return nodeNotify
	case StateAwaitingDecision:
		if inst.WindowOpen() {
			return nodeFinish
		}
		return nodeAwait
	case StateDeciding:
		return nodeInterpret
	case StateSummarizing:
		return nodeSummarize
	case StateDelivering:
		return nodeDeliver
	default:
		return nodeFinish
	}
}

func nextIs(name string) func(state.State) bool {
	return func(s state.State) bool {
		val, ok := s.Get(KeyNext)
		if !ok {
			return false
		}
		n, ok := val.(string)
		return ok && n == name
	}
}

func extractInstance(s state.State) (*Instance, error) {
	val, ok := s.Get(KeyInstance)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", KeyInstance)
	}

	inst, ok := val.(Instance)
	if !ok {
		return nil, fmt.Errorf("%s is not Instance", KeyInstance)
	}

	return &inst, nil
}
