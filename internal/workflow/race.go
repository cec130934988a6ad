package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// First waits for whichever completes first: a signal, the delay elapsing, or
// ctx ending. The timer is always stopped before returning, so a losing
// timer can never fire later.
func First(ctx context.Context, signals <-chan string, delay time.Duration) (payload string, timedOut bool, err error) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case payload = <-signals:
		return payload, false, nil
	case <-timer.C:
		return "", true, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// window is the live race for one iteration of one instance.
type window struct {
	iteration int
	signals   chan string
	cancel    context.CancelFunc
}

// DecisionEvent is the external event carrying a reviewer payload for an iteration.
func DecisionEvent(iteration int, payload string) Event {
	return Event{
		Kind:      EventDecisionReceived,
		Iteration: iteration,
		Payload:   payload,
		Status:    fmt.Sprintf("Interpreting reviewer response. Iteration #%d.", iteration),
	}
}

// TimeoutEvent is the external event raised when an iteration's window expires.
func TimeoutEvent(iteration int) Event {
	return Event{
		Kind:      EventTimerFired,
		Iteration: iteration,
		Status:    "User choice timed out. Treating as rejection.",
		Failure: &Failure{
			Category: CategoryTimeout,
			Message:  "decision timed out",
		},
	}
}

// arm starts the race for inst's open window unless one is already live.
// A deadline already in the past fires immediately.
func (e *Engine) arm(inst *Instance) {
	if !inst.WindowOpen() || e.ctx.Err() != nil {
		return
	}

	e.mu.Lock()
	if w, ok := e.windows[inst.ID]; ok {
		if w.iteration == inst.Window.Iteration {
			e.mu.Unlock()
			return
		}
		w.cancel()
	}

	ctx, cancel := context.WithCancel(e.ctx)
	w := &window{
		iteration: inst.Window.Iteration,
		signals:   make(chan string, 1),
		cancel:    cancel,
	}
	e.windows[inst.ID] = w
	e.mu.Unlock()

	id := inst.ID
	delay := inst.Window.Deadline.Sub(e.opts.Clock())

	e.rt.Logger.Info(
		"decision window armed",
		"instance_id", id,
		"iteration", w.iteration,
		"deadline", inst.Window.Deadline,
	)

	if !e.spawn(func() { e.race(ctx, id, w, delay) }) {
		e.disarm(id, w)
	}
}

func (e *Engine) race(ctx context.Context, id uuid.UUID, w *window, delay time.Duration) {
	defer e.disarm(id, w)

	payload, timedOut, err := First(ctx, w.signals, delay)
	if err != nil {
		return
	}

	ev := DecisionEvent(w.iteration, payload)
	if timedOut {
		ev = TimeoutEvent(w.iteration)
	}

	if _, err := e.Advance(e.ctx, id, &ev); err != nil {
		e.rt.Logger.Error(
			"advance after window resolved failed",
			"instance_id", id,
			"event", ev.Kind,
			"error", err,
		)
	}
}

// signal hands payload to the live window for iteration. It reports false
// when no such window exists in this process.
func (e *Engine) signal(id uuid.UUID, iteration int, payload string) bool {
	e.mu.Lock()
	w, ok := e.windows[id]
	e.mu.Unlock()

	if !ok || w.iteration != iteration {
		return false
	}

	select {
	case w.signals <- payload:
	default:
		e.rt.Logger.Warn(
			"duplicate decision ignored",
			"instance_id", id,
			"iteration", iteration,
		)
	}
	return true
}

func (e *Engine) disarm(id uuid.UUID, w *window) {
	e.mu.Lock()
	if e.windows[id] == w {
		delete(e.windows, id)
	}
	e.mu.Unlock()
	w.cancel()
}

func (e *Engine) disarmIteration(id uuid.UUID, iteration int) {
	e.mu.Lock()
	w, ok := e.windows[id]
	e.mu.Unlock()

	if ok && w.iteration == iteration {
		e.disarm(id, w)
	}
}
