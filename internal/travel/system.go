package travel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/wayfinder/internal/workflow"
	"github.com/JaimeStill/wayfinder/pkg/lifecycle"
	"github.com/JaimeStill/wayfinder/pkg/pagination"
)

// System defines the public contract for travel orchestration operations.
type System interface {
	Handler(basePath string) *Handler

	// Run starts an orchestration for prompt and advances it in the background.
	Run(ctx context.Context, prompt string) (*workflow.Instance, error)

	// Choose delivers a reviewer payload to the instance's open decision window.
	Choose(ctx context.Context, id uuid.UUID, payload string) error

	Status(ctx context.Context, id uuid.UUID) (*workflow.Status, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Summary], error)

	// Start registers instance resumption on startup and engine shutdown.
	Start(lc *lifecycle.Coordinator) error
}

// Lister pages over persisted instances.
type Lister interface {
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Summary], error)
}

type system struct {
	engine     *workflow.Engine
	lister     Lister
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the travel system over engine. lister backs instance listings.
func New(
	engine *workflow.Engine,
	lister Lister,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &system{
		engine:     engine,
		lister:     lister,
		logger:     logger.With("system", "travel"),
		pagination: pagination,
	}
}

func (s *system) Handler(basePath string) *Handler {
	return NewHandler(s, s.logger, s.pagination, basePath)
}

func (s *system) Run(ctx context.Context, prompt string) (*workflow.Instance, error) {
	inst, err := s.engine.Start(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("start instance: %w", err)
	}

	s.engine.Dispatch(inst.ID, nil)
	return inst, nil
}

func (s *system) Choose(ctx context.Context, id uuid.UUID, payload string) error {
	return s.engine.Raise(ctx, id, payload)
}

func (s *system) Status(ctx context.Context, id uuid.UUID) (*workflow.Status, error) {
	inst, err := s.engine.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return workflow.Project(inst)
}

func (s *system) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(s.pagination)
	return s.lister.List(ctx, page, filters)
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting travel system")

	lc.OnStartupErr(func() error {
		return s.engine.ResumeAll(lc.Context())
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.logger.Info("stopping workflow engine")
		s.engine.Close()
		s.logger.Info("workflow engine stopped")
	})

	return nil
}
