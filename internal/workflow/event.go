package workflow

import "time"

// EventKind names a journaled transition.
type EventKind string

const (
	EventStarted          EventKind = "started"
	EventAttemptStarted   EventKind = "attempt_started"
	EventOptionsGenerated EventKind = "options_generated"
	EventNotified         EventKind = "notified"
	EventWindowOpened     EventKind = "window_opened"
	EventDecisionReceived EventKind = "decision_received"
	EventTimerFired       EventKind = "timer_fired"
	EventOptionSelected   EventKind = "option_selected"
	EventRefined          EventKind = "refined"
	EventSummarized       EventKind = "summarized"
	EventSummaryDelivered EventKind = "summary_delivered"
	EventCompleted        EventKind = "completed"
	EventFailed           EventKind = "failed"
)

// Event is one entry in an instance journal. Every value that influences
// control flow (timestamps, deadlines, agent output, status text) is captured
// here when the event is recorded and replayed verbatim afterwards.
type Event struct {
	Seq       int       `json:"seq"`
	Kind      EventKind `json:"kind"`
	At        time.Time `json:"at"`
	Iteration int       `json:"iteration,omitempty"`
	Status    string    `json:"status,omitempty"`

	Prompt   string    `json:"prompt,omitempty"`
	ThreadID string    `json:"thread_id,omitempty"`
	Turns    []Turn    `json:"turns,omitempty"`
	Options  []Option  `json:"options,omitempty"`
	Deadline time.Time `json:"deadline,omitzero"`
	Payload  string    `json:"payload,omitempty"`
	Index    *int      `json:"index,omitempty"`
	Summary  string    `json:"summary,omitempty"`
	Error    string    `json:"error,omitempty"`
	Failure  *Failure  `json:"failure,omitempty"`
}

// external reports whether the event originates outside the engine and must
// be matched against the open decision window.
func (e Event) external() bool {
	return e.Kind == EventDecisionReceived || e.Kind == EventTimerFired
}
