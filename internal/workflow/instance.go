package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the position of an instance in the search, decide, refine loop.
type State string

const (
	StateSearching        State = "searching"
	StateNotifying        State = "notifying"
	StateAwaitingDecision State = "awaiting_decision"
	StateDeciding         State = "deciding"
	StateSummarizing      State = "summarizing"
	StateDelivering       State = "delivering"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Category classifies a terminal failure.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryCoercion   Category = "coercion"
	CategoryTimeout    Category = "timeout"
	CategoryExhausted  Category = "exhausted"
	CategoryAgent      Category = "agent"
)

// Failure is the terminal failure detail of an instance.
type Failure struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// Output is the terminal success payload of an instance.
type Output struct {
	Flight Option `json:"flight"`
}

// Window is the decision window opened for one iteration. The deadline is
// fixed when the window opens and survives restarts unchanged.
type Window struct {
	Iteration int       `json:"iteration"`
	Deadline  time.Time `json:"deadline"`
}

// Instance is the folded state of one orchestration journal.
type Instance struct {
	ID        uuid.UUID `json:"id"`
	Seq       int       `json:"seq"`
	Input     string    `json:"input"`
	Prompt    string    `json:"prompt"`
	Attempt   int       `json:"attempt"`
	Generated int       `json:"generated"`
	State     State     `json:"state"`
	Thread    Thread    `json:"thread"`
	Options   []Option  `json:"options,omitempty"`
	Window    *Window   `json:"window,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	Selected  *Option   `json:"selected,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Status    string    `json:"status"`
	Output    *Output   `json:"output,omitempty"`
	Failure   *Failure  `json:"failure,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fold rebuilds an instance from its journal. Events must be contiguous
// starting at sequence 1.
func Fold(id uuid.UUID, events []Event) (*Instance, error) {
	if len(events) == 0 {
		return nil, ErrInstanceNotFound
	}

	inst := &Instance{ID: id}
	for _, ev := range events {
		if err := inst.apply(ev); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// WindowOpen reports whether the instance is waiting on a decision window
// opened for its current iteration.
func (i *Instance) WindowOpen() bool {
	return i.State == StateAwaitingDecision &&
		i.Window != nil &&
		i.Window.Iteration == i.Attempt
}

// accepts reports whether an external event resolves the open window.
// Anything else, including a late signal after the timer won, is ignored.
func (i *Instance) accepts(ev Event) bool {
	return ev.external() && i.WindowOpen() && ev.Iteration == i.Window.Iteration
}

func (i *Instance) apply(ev Event) error {
	if ev.Seq != i.Seq+1 {
		return fmt.Errorf("%w: instance %s expected seq %d, got %d", ErrJournal, i.ID, i.Seq+1, ev.Seq)
	}
	if i.State.Terminal() {
		return fmt.Errorf("%w: instance %s has %s after terminal state", ErrJournal, i.ID, ev.Kind)
	}

	i.Seq = ev.Seq
	i.UpdatedAt = ev.At
	if ev.Status != "" {
		i.Status = ev.Status
	}
	if len(ev.Turns) > 0 {
		i.Thread.Turns = append(i.Thread.Turns, ev.Turns...)
	}

	switch ev.Kind {
	case EventStarted:
		i.Input = ev.Prompt
		i.Prompt = ev.Prompt
		i.Thread.ID = ev.ThreadID
		i.State = StateSearching
		i.CreatedAt = ev.At
	case EventAttemptStarted:
		i.Attempt = ev.Iteration
	case EventOptionsGenerated:
		i.Generated = ev.Iteration
		i.Options = ev.Options
		i.State = StateNotifying
	case EventNotified:
		i.State = StateAwaitingDecision
	case EventWindowOpened:
		i.Window = &Window{Iteration: ev.Iteration, Deadline: ev.Deadline}
	case EventDecisionReceived:
		i.Payload = ev.Payload
		i.State = StateDeciding
	case EventTimerFired:
		i.State = StateFailed
		i.Failure = ev.Failure
	case EventOptionSelected:
		if ev.Index == nil || *ev.Index < 0 || *ev.Index >= len(i.Options) {
			return fmt.Errorf("%w: instance %s selected option outside batch", ErrJournal, i.ID)
		}
		selected := i.Options[*ev.Index]
		i.Selected = &selected
		i.State = StateSummarizing
	case EventRefined:
		i.Prompt = ev.Prompt
		i.State = StateSearching
	case EventSummarized:
		i.Summary = ev.Summary
		i.State = StateDelivering
	case EventSummaryDelivered:
	case EventCompleted:
		if i.Selected == nil {
			return fmt.Errorf("%w: instance %s completed without a selection", ErrJournal, i.ID)
		}
		i.Output = &Output{Flight: *i.Selected}
		i.State = StateCompleted
	case EventFailed:
		i.Failure = ev.Failure
		i.State = StateFailed
	default:
		return fmt.Errorf("%w: instance %s has unknown event %q", ErrJournal, i.ID, ev.Kind)
	}

	return nil
}
