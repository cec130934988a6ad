package workflow

// RuntimeStatus is the coarse lifecycle status reported to pollers.
type RuntimeStatus string

const (
	RuntimePending   RuntimeStatus = "pending"
	RuntimeRunning   RuntimeStatus = "running"
	RuntimeCompleted RuntimeStatus = "completed"
	RuntimeFailed    RuntimeStatus = "failed"
)

// Status is the externally visible projection of an instance.
type Status struct {
	InstanceID     string        `json:"instanceId"`
	RuntimeStatus  RuntimeStatus `json:"runtimeStatus"`
	WorkflowStatus string        `json:"workflowStatus"`
	Input          *string       `json:"input,omitempty"`
	Output         *Output       `json:"output,omitempty"`
	FailureDetails *Failure      `json:"failureDetails,omitempty"`
}

// Runtime derives the coarse runtime status of an instance.
func (i *Instance) Runtime() RuntimeStatus {
	switch {
	case i.State == StateCompleted:
		return RuntimeCompleted
	case i.State == StateFailed:
		return RuntimeFailed
	case i.Attempt == 0:
		return RuntimePending
	default:
		return RuntimeRunning
	}
}

// Project builds the status report for inst. A nil instance is reported as
// ErrInstanceNotFound, never as an empty status.
func Project(inst *Instance) (*Status, error) {
	if inst == nil {
		return nil, ErrInstanceNotFound
	}

	input := inst.Input
	status := &Status{
		InstanceID:     inst.ID.String(),
		RuntimeStatus:  inst.Runtime(),
		WorkflowStatus: inst.Status,
		Input:          &input,
	}

	switch inst.State {
	case StateCompleted:
		status.Output = inst.Output
	case StateFailed:
		status.FailureDetails = inst.Failure
	}

	return status, nil
}
