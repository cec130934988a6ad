package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/wayfinder/pkg/tracing"
)

const tracerName = "github.com/JaimeStill/wayfinder/internal/workflow"

// Engine drives instances through the flight selection loop. All state
// changes go through Advance, which folds the journal, applies at most one
// external event and runs the step graph until the instance suspends on a
// decision window or reaches a terminal state.
type Engine struct {
	rt     *Runtime
	opts   Options
	tracer trace.Tracer
	locks  *keyedMutex

	ctx    context.Context
	cancel context.CancelFunc
	work   sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	windows map[uuid.UUID]*window
}

// NewEngine creates an Engine. Close must be called to release armed windows.
func NewEngine(rt *Runtime, opts Options) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		rt:      rt,
		opts:    opts.withDefaults(),
		tracer:  otel.Tracer(tracerName),
		locks:   newKeyedMutex(),
		ctx:     ctx,
		cancel:  cancel,
		windows: make(map[uuid.UUID]*window),
	}
}

// Start journals a new instance for prompt. The instance does not search
// until it is advanced.
func (e *Engine) Start(ctx context.Context, prompt string) (*Instance, error) {
	inst := &Instance{ID: uuid.New()}

	inst, err := e.record(ctx, inst, Event{
		Kind:     EventStarted,
		Prompt:   prompt,
		ThreadID: uuid.NewString(),
		Status:   "Starting flight search",
	})
	if err != nil {
		return nil, err
	}

	e.rt.Logger.InfoContext(ctx, "instance started", "instance_id", inst.ID)
	return inst, nil
}

// Advance is the single entry point for state changes. A nil event resumes
// the instance from its journal. External events that do not match the open
// decision window are ignored. Fatal workflow outcomes are journaled as
// failures and never returned; returned errors leave the instance resumable.
func (e *Engine) Advance(ctx context.Context, id uuid.UUID, ev *Event) (inst *Instance, err error) {
	unlock := e.locks.lock(id)
	defer unlock()

	ctx, span := e.tracer.Start(
		ctx, "workflow.advance",
		trace.WithAttributes(attribute.String("instance.id", id.String())),
	)
	defer func() { tracing.End(span, err) }()

	events, err := e.rt.Store.Events(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load journal %s: %w", id, err)
	}

	inst, err = Fold(id, events)
	if err != nil {
		return nil, err
	}

	if ev != nil {
		if !inst.accepts(*ev) {
			e.rt.Logger.InfoContext(
				ctx, "event ignored",
				"instance_id", id,
				"event", ev.Kind,
				"iteration", ev.Iteration,
				"state", inst.State,
			)
			return inst, nil
		}

		if inst, err = e.record(ctx, inst, *ev); err != nil {
			return nil, err
		}
		e.disarmIteration(id, ev.Iteration)
	}

	inst, err = e.drive(ctx, inst)
	if err != nil {
		return nil, err
	}

	e.arm(inst)
	return inst, nil
}

// Dispatch runs Advance in the background on the engine's own context.
func (e *Engine) Dispatch(id uuid.UUID, ev *Event) {
	e.spawn(func() {
		if _, err := e.Advance(e.ctx, id, ev); err != nil {
			e.rt.Logger.Error("dispatched advance failed", "instance_id", id, "error", err)
		}
	})
}

// Raise delivers a reviewer payload to the instance's open decision window.
// Payloads for instances that are not awaiting a decision are ignored.
func (e *Engine) Raise(ctx context.Context, id uuid.UUID, payload string) error {
	inst, err := e.rt.Store.Find(ctx, id)
	if err != nil {
		return err
	}

	if !inst.WindowOpen() {
		e.rt.Logger.InfoContext(
			ctx, "decision ignored, no open window",
			"instance_id", id,
			"state", inst.State,
		)
		return nil
	}

	if e.signal(id, inst.Window.Iteration, payload) {
		return nil
	}

	ev := DecisionEvent(inst.Window.Iteration, payload)
	e.Dispatch(id, &ev)
	return nil
}

// Find returns the latest snapshot of an instance.
func (e *Engine) Find(ctx context.Context, id uuid.UUID) (*Instance, error) {
	return e.rt.Store.Find(ctx, id)
}

// ResumeAll advances every non-terminal instance from its journal, re-arming
// decision windows from their persisted deadlines.
func (e *Engine) ResumeAll(ctx context.Context) error {
	ids, err := e.rt.Store.Active(ctx)
	if err != nil {
		return fmt.Errorf("list active instances: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.ResumeConcurrency)

	for _, id := range ids {
		g.Go(func() error {
			if _, err := e.Advance(gctx, id, nil); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.rt.Logger.Error("resume failed", "instance_id", id, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("resume instances: %w", err)
	}

	e.rt.Logger.Info("instances resumed", "count", len(ids))
	return nil
}

// Close cancels armed windows and waits for in-flight work to stop.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.work.Wait()
}

func (e *Engine) spawn(fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	e.work.Go(fn)
	return true
}

// record stamps events with their sequence and time, applies them to a copy
// of inst and persists them with the resulting snapshot.
func (e *Engine) record(ctx context.Context, inst *Instance, events ...Event) (*Instance, error) {
	next := *inst
	now := e.opts.Clock().UTC()

	for i := range events {
		events[i].Seq = next.Seq + 1
		if events[i].At.IsZero() {
			events[i].At = now
		}
		if err := next.apply(events[i]); err != nil {
			return nil, err
		}
	}

	if err := e.rt.Store.Append(ctx, &next, events...); err != nil {
		return nil, fmt.Errorf("append to %s: %w", inst.ID, err)
	}

	return &next, nil
}
