package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/wayfinder/pkg/tracing"
)

type stepFunc func(ctx context.Context, inst *Instance) (*Instance, error)

// stepNode adapts a step to a graph node, tracing it and carrying the
// persisted instance forward in the state bag.
func (e *Engine) stepNode(name string, step stepFunc) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (_ state.State, err error) {
		inst, err := extractInstance(s)
		if err != nil {
			return s, fmt.Errorf("%s: %w", name, err)
		}

		ctx, span := e.tracer.Start(
			ctx, "workflow."+name,
			trace.WithAttributes(
				attribute.String("instance.id", inst.ID.String()),
				attribute.Int("instance.attempt", inst.Attempt),
				attribute.String("instance.state", string(inst.State)),
			),
		)
		defer func() { tracing.End(span, err) }()

		inst, err = step(ctx, inst)
		if err != nil {
			return s, fmt.Errorf("%s: %w", name, err)
		}

		s = s.Set(KeyInstance, *inst)
		return s, nil
	})
}

func (e *Engine) search(ctx context.Context, inst *Instance) (*Instance, error) {
	if inst.Attempt == inst.Generated {
		if inst.Attempt >= e.opts.MaxAttempts {
			return e.fail(ctx, inst, CategoryExhausted, fmt.Sprintf(
				"retry budget exhausted: could not resolve after %d attempts",
				e.opts.MaxAttempts,
			))
		}

		n := inst.Attempt + 1
		started, err := e.record(ctx, inst, Event{
			Kind:      EventAttemptStarted,
			Iteration: n,
			Status:    fmt.Sprintf("Generating flight options. Iteration #%d.", n),
		})
		if err != nil {
			return nil, err
		}
		inst = started
	}

	res, err := e.rt.Agent.Search(ctx, inst.Thread, inst.Prompt)
	if err != nil {
		return e.agentFailed(ctx, inst, StageSearch, err)
	}

	content := res.Response
	if hasPayload(res.Structured) {
		content = string(res.Structured)
	}

	batch, err := ParseBatch(content)
	if err != nil {
		return e.fail(ctx, inst, categorize(err), err.Error(), exchange(inst.Prompt, res)...)
	}

	e.rt.Logger.InfoContext(
		ctx, "search node complete",
		"instance_id", inst.ID,
		"iteration", inst.Attempt,
		"options", len(batch.Flights),
	)

	return e.record(ctx, inst, Event{
		Kind:      EventOptionsGenerated,
		Iteration: inst.Attempt,
		Options:   batch.Flights,
		Turns:     exchange(inst.Prompt, res),
		Status: fmt.Sprintf(
			"Requesting choice of flight or further refinement. Iteration #%d. %s max wait time.",
			inst.Attempt, waitText(e.opts.DecisionTimeout),
		),
	})
}

// notify is best effort: a failed notification is logged and journaled but
// never aborts the instance or gets retried.
func (e *Engine) notify(ctx context.Context, inst *Instance) (*Instance, error) {
	ev := Event{Kind: EventNotified, Iteration: inst.Attempt}

	if err := e.rt.Activities.Notify(ctx, Ref{ID: inst.ID, Iteration: inst.Attempt}, inst.Options); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.rt.Logger.WarnContext(
			ctx, "notification failed",
			"instance_id", inst.ID,
			"iteration", inst.Attempt,
			"error", err,
		)
		ev.Error = err.Error()
	}

	return e.record(ctx, inst, ev)
}

func (e *Engine) await(ctx context.Context, inst *Instance) (*Instance, error) {
	now := e.opts.Clock().UTC()
	return e.record(ctx, inst, Event{
		Kind:      EventWindowOpened,
		At:        now,
		Iteration: inst.Attempt,
		Deadline:  now.Add(e.opts.DecisionTimeout),
	})
}

func (e *Engine) interpret(ctx context.Context, inst *Instance) (*Instance, error) {
	res, err := e.rt.Agent.Interpret(ctx, inst.Thread, inst.Payload)
	if err != nil {
		return e.agentFailed(ctx, inst, StageInterpret, err)
	}
	turns := exchange(inst.Payload, res)

	decision, err := Coerce[Decision](res, "Decision")
	if err != nil {
		return e.fail(ctx, inst, categorize(err), err.Error(), turns...)
	}

	resolution, err := decision.Resolve(len(inst.Options))
	if err != nil {
		return e.fail(ctx, inst, categorize(err), err.Error(), turns...)
	}

	e.rt.Logger.InfoContext(
		ctx, "interpret node complete",
		"instance_id", inst.ID,
		"iteration", inst.Attempt,
		"selected", resolution.Selected,
	)

	if resolution.Selected {
		index := resolution.Index
		return e.record(ctx, inst, Event{
			Kind:      EventOptionSelected,
			Iteration: inst.Attempt,
			Index:     &index,
			Turns:     turns,
			Status:    "Flight selected by human reviewer. Summarizing flight...",
		})
	}

	return e.record(ctx, inst, Event{
		Kind:      EventRefined,
		Iteration: inst.Attempt,
		Prompt:    resolution.Prompt,
		Turns:     turns,
		Status:    fmt.Sprintf("Refinement received. Regenerating flight options. Iteration #%d.", inst.Attempt),
	})
}

func (e *Engine) summarize(ctx context.Context, inst *Instance) (*Instance, error) {
	res, err := e.rt.Agent.Summarize(ctx, inst.Thread, *inst.Selected)
	if err != nil {
		return e.agentFailed(ctx, inst, StageSummarize, err)
	}

	message, err := json.Marshal(*inst.Selected)
	if err != nil {
		return nil, fmt.Errorf("marshal selection: %w", err)
	}

	return e.record(ctx, inst, Event{
		Kind:    EventSummarized,
		Summary: res.Response,
		Turns:   exchange(string(message), res),
	})
}

// deliver publishes the summary and completes the instance in one append.
func (e *Engine) deliver(ctx context.Context, inst *Instance) (*Instance, error) {
	delivered := Event{Kind: EventSummaryDelivered}

	if err := e.rt.Activities.Summarize(ctx, Ref{ID: inst.ID, Iteration: inst.Attempt}, inst.Summary); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.rt.Logger.WarnContext(ctx, "summary delivery failed", "instance_id", inst.ID, "error", err)
		delivered.Error = err.Error()
	}

	now := e.opts.Clock().UTC()
	completed := Event{
		Kind:   EventCompleted,
		At:     now,
		Status: fmt.Sprintf("Flight booked successfully at %s", now.Format("2006-01-02T15:04:05")),
	}

	done, err := e.record(ctx, inst, delivered, completed)
	if err != nil {
		return nil, err
	}

	e.rt.Logger.InfoContext(
		ctx, "instance completed",
		"instance_id", done.ID,
		"flight", done.Output.Flight.FlightNumber,
	)
	return done, nil
}

// agentFailed fails the instance unless the call was cut short by
// cancellation, in which case the step is left to be re-run on resume.
func (e *Engine) agentFailed(ctx context.Context, inst *Instance, stage Stage, err error) (*Instance, error) {
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s interrupted: %w", stage, ctx.Err())
	}
	return e.fail(ctx, inst, CategoryAgent, fmt.Sprintf("%s agent call failed: %v", stage, err))
}

func (e *Engine) fail(ctx context.Context, inst *Instance, category Category, msg string, turns ...Turn) (*Instance, error) {
	e.rt.Logger.WarnContext(
		ctx, "instance failed",
		"instance_id", inst.ID,
		"category", category,
		"reason", msg,
	)

	return e.record(ctx, inst, Event{
		Kind:      EventFailed,
		Iteration: inst.Attempt,
		Turns:     turns,
		Failure: &Failure{
			Category: category,
			Message:  msg,
		},
	})
}

func waitText(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
