package workflow

import (
	"log/slog"
	"time"
)

// Runtime bundles the collaborators the engine drives.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	Agent      Agent
	Activities Activities
	Store      Store
	Logger     *slog.Logger
}

// Options tune the engine. Zero values fall back to DefaultOptions.
type Options struct {
	MaxAttempts       int
	DecisionTimeout   time.Duration
	ResumeConcurrency int
	Clock             func() time.Time
}

// DefaultOptions returns three attempts, a one hour decision window and a
// resume concurrency of four.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:       3,
		DecisionTimeout:   time.Hour,
		ResumeConcurrency: 4,
		Clock:             time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.DecisionTimeout <= 0 {
		o.DecisionTimeout = d.DecisionTimeout
	}
	if o.ResumeConcurrency <= 0 {
		o.ResumeConcurrency = d.ResumeConcurrency
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}
