package travel

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/wayfinder/internal/workflow"
)

// Summary is the listing row of an orchestration instance.
type Summary struct {
	ID             uuid.UUID              `json:"id"`
	State          workflow.State         `json:"state"`
	RuntimeStatus  workflow.RuntimeStatus `json:"runtime_status"`
	Attempt        int                    `json:"attempt"`
	Input          string                 `json:"input"`
	WorkflowStatus string                 `json:"workflow_status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// RunResponse is the body returned when an orchestration is started.
type RunResponse struct {
	Message           string `json:"message"`
	InstanceID        string `json:"instanceId"`
	StatusQueryGetURI string `json:"statusQueryGetUri"`
}
