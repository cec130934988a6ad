package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/wayfinder/pkg/storage"
)

const usageHint = "Use the choice endpoint to choose a flight by number or provide a clarifying prompt."

// Ref identifies the instance iteration an activity runs for.
type Ref struct {
	ID        uuid.UUID
	Iteration int
}

// Activities are the externally visible side effects of an instance. They
// may run more than once for the same Ref and must not touch instance state.
type Activities interface {
	Notify(ctx context.Context, ref Ref, options []Option) error
	Summarize(ctx context.Context, ref Ref, summary string) error
}

// Notifier logs notifications and, when blob storage is configured, archives
// them under deterministic keys. A key already present is left untouched, so a
// repeated run writes each archive at most once.
type Notifier struct {
	storage storage.System
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. store may be nil to disable archival.
func NewNotifier(store storage.System, logger *slog.Logger) *Notifier {
	return &Notifier{
		storage: store,
		logger:  logger.With("activity", "notifier"),
	}
}

// NotificationKey is the blob key of an iteration's option listing.
func NotificationKey(ref Ref) string {
	return fmt.Sprintf("notifications/%s/iteration-%d.txt", ref.ID, ref.Iteration)
}

// SummaryKey is the blob key of an instance's final summary.
func SummaryKey(id uuid.UUID) string {
	return fmt.Sprintf("summaries/%s.txt", id)
}

func (n *Notifier) Notify(ctx context.Context, ref Ref, options []Option) error {
	lines := Listing(options)

	n.logger.InfoContext(
		ctx, "NOTIFICATION: please review the following flight options",
		"instance_id", ref.ID,
		"iteration", ref.Iteration,
	)
	for _, line := range lines {
		n.logger.InfoContext(ctx, line, "instance_id", ref.ID)
	}
	n.logger.InfoContext(ctx, usageHint, "instance_id", ref.ID)

	body := strings.Join(append(lines, usageHint), "\n") + "\n"
	return n.archive(ctx, NotificationKey(ref), body)
}

func (n *Notifier) Summarize(ctx context.Context, ref Ref, summary string) error {
	n.logger.InfoContext(ctx, summary, "instance_id", ref.ID)
	return n.archive(ctx, SummaryKey(ref.ID), summary)
}

func (n *Notifier) archive(ctx context.Context, key, body string) error {
	if n.storage == nil {
		return nil
	}

	exists, err := n.storage.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	if exists {
		n.logger.DebugContext(ctx, "archive already present", "key", key)
		return nil
	}

	if err := n.storage.Upload(ctx, key, strings.NewReader(body), "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}
