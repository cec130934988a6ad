package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/wayfinder/internal/workflow"
	"github.com/JaimeStill/wayfinder/pkg/pagination"
)

// System manages stage overrides and resolves the instructions each agent
// stage runs with.
type System interface {
	workflow.InstructionSource

	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error)
	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd Command) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error)
}
