package travel

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/wayfinder/internal/workflow"
	"github.com/JaimeStill/wayfinder/pkg/pagination"
	"github.com/JaimeStill/wayfinder/pkg/query"
	"github.com/JaimeStill/wayfinder/pkg/repository"
)

const (
	insertInstance = `
		INSERT INTO instances(id, seq, state, runtime_status, attempt, input, workflow_status, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	updateInstance = `
		UPDATE instances
		SET seq = $3, state = $4, runtime_status = $5, attempt = $6,
			workflow_status = $7, snapshot = $8, updated_at = $9
		WHERE id = $1 AND seq = $2`

	insertEvent = `
		INSERT INTO instance_events(instance_id, seq, kind, data, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`
)

// Store is the PostgreSQL journal. Each append writes the events and the
// resulting snapshot in one transaction, guarded by the snapshot's sequence.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With("system", "journal"),
	}
}

func (s *Store) Append(ctx context.Context, snapshot *workflow.Instance, events ...workflow.Event) error {
	if len(events) == 0 {
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	first := events[0].Seq

	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if first == 1 {
			if _, err := tx.ExecContext(
				ctx, insertInstance,
				snapshot.ID, snapshot.Seq, snapshot.State, snapshot.Runtime(), snapshot.Attempt,
				snapshot.Input, snapshot.Status, data, snapshot.CreatedAt, snapshot.UpdatedAt,
			); err != nil {
				return err
			}
		} else {
			if err := repository.ExecExpectOne(
				ctx, tx, updateInstance,
				snapshot.ID, first-1, snapshot.Seq, snapshot.State, snapshot.Runtime(),
				snapshot.Attempt, snapshot.Status, data, snapshot.UpdatedAt,
			); err != nil {
				return err
			}
		}

		for _, ev := range events {
			payload, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("marshal event %d: %w", ev.Seq, err)
			}
			if _, err := tx.ExecContext(ctx, insertEvent, snapshot.ID, ev.Seq, ev.Kind, payload, ev.At); err != nil {
				return err
			}
		}
		return nil
	})

	return repository.MapError(err, workflow.ErrConflict, workflow.ErrConflict)
}

func (s *Store) Events(ctx context.Context, id uuid.UUID) ([]workflow.Event, error) {
	events, err := repository.QueryMany(
		ctx, s.db,
		"SELECT data FROM instance_events WHERE instance_id = $1 ORDER BY seq",
		[]any{id},
		scanEvent,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}

func (s *Store) Find(ctx context.Context, id uuid.UUID) (*workflow.Instance, error) {
	inst, err := repository.QueryOne(
		ctx, s.db,
		"SELECT snapshot FROM instances WHERE id = $1",
		[]any{id},
		scanSnapshot,
	)
	if err != nil {
		return nil, repository.MapError(err, workflow.ErrInstanceNotFound, workflow.ErrConflict)
	}
	return &inst, nil
}

// Active returns the ids of non-terminal instances, oldest first.
func (s *Store) Active(ctx context.Context) ([]uuid.UUID, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "CreatedAt"}).
		WhereNotIn("State", []any{workflow.StateCompleted, workflow.StateFailed}).
		Build()

	rows, err := repository.QueryMany(ctx, s.db, q, args, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("query active instances: %w", err)
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

// List returns a page of instance summaries. Search matches the initial prompt
// and the latest status text.
func (s *Store) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Input", "WorkflowStatus")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count instances: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	rows, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}

	result := pagination.NewPageResult(rows, total, page.Page, page.PageSize)
	return &result, nil
}

func scanEvent(s repository.Scanner) (workflow.Event, error) {
	var data []byte
	if err := s.Scan(&data); err != nil {
		return workflow.Event{}, err
	}

	var ev workflow.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return workflow.Event{}, fmt.Errorf("%w: %w", workflow.ErrJournal, err)
	}
	return ev, nil
}

func scanSnapshot(s repository.Scanner) (workflow.Instance, error) {
	var data []byte
	if err := s.Scan(&data); err != nil {
		return workflow.Instance{}, err
	}

	var inst workflow.Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return workflow.Instance{}, fmt.Errorf("%w: %w", workflow.ErrJournal, err)
	}
	return inst, nil
}
