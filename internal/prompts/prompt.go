// Package prompts manages named instruction overrides for the agent stages
// of the travel workflow. At most one override is active per stage; stages
// without one run with the built-in instructions.
package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/wayfinder/internal/workflow"
)

// Prompt is a named instruction override for an agent stage.
type Prompt struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Stage        workflow.Stage `json:"stage"`
	Instructions string         `json:"instructions"`
	Description  *string        `json:"description"`
	Active       bool           `json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Command carries the writable fields of a prompt for create and update.
type Command struct {
	Name         string         `json:"name"`
	Stage        workflow.Stage `json:"stage"`
	Instructions string         `json:"instructions"`
	Description  *string        `json:"description"`
}

// Validate trims the command and checks its required fields.
func (c *Command) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Instructions = strings.TrimSpace(c.Instructions)

	if !c.Stage.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStage, c.Stage)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCommand)
	}
	if c.Instructions == "" {
		return fmt.Errorf("%w: instructions are required", ErrInvalidCommand)
	}
	return nil
}

// StageContent pairs a stage with the instructions it currently runs with.
type StageContent struct {
	Stage   workflow.Stage `json:"stage"`
	Content string         `json:"content"`
}
