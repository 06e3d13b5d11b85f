package runner

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// TaskState describes where a task is in the wrapper's state machine:
// PENDING -> RUNNING -> {ADVANCED | HELD | FAILED}. States are surfaced in
// logs; the wire result carries the success flag and pathway instead.
type TaskState string

const (
	// StatePending means the task has been described but not yet executed.
	StatePending TaskState = "PENDING"

	// StateRunning means dependencies are being resolved or the handler is
	// executing.
	StateRunning TaskState = "RUNNING"

	// StateAdvanced means the handler returned a pathway and the task was
	// moved along it.
	StateAdvanced TaskState = "ADVANCED"

	// StateHeld means the handler returned no pathway and the task was left
	// in place.
	StateHeld TaskState = "HELD"

	// StateFailed means dependency resolution, the handler, or routing
	// failed; the task was not moved.
	StateFailed TaskState = "FAILED"
)

// String returns the string representation of the task state.
func (s TaskState) String() string {
	return string(s)
}

// TaskDescriptor is the minimal serialized form of a workflow task, suitable
// for placing on a work queue. A wrapped handler re-fetches the full task
// (and, when needed, the label row) from the descriptor.
type TaskDescriptor struct {
	// TaskUUID identifies the task in the workflow queueing system.
	TaskUUID uuid.UUID `json:"task_uuid"`

	// DataHash identifies the underlying data asset.
	DataHash uuid.UUID `json:"data_hash"`

	// DataTitle is the asset title used in the platform.
	DataTitle string `json:"data_title"`

	// LabelBranchName is the branch name of the associated labels.
	LabelBranchName string `json:"label_branch_name"`
}

// ParseTaskDescriptor decodes and validates a serialized task descriptor.
func ParseTaskDescriptor(data []byte) (*TaskDescriptor, error) {
	var d TaskDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid task descriptor: %w", err)
	}
	if d.TaskUUID == uuid.Nil {
		return nil, fmt.Errorf("task descriptor missing task_uuid")
	}
	if d.DataHash == uuid.Nil {
		return nil, fmt.Errorf("task descriptor missing data_hash")
	}
	return &d, nil
}

// Encode serializes the descriptor to its wire form.
func (d *TaskDescriptor) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// CompletionResult is the structured outcome of executing one task through a
// wrapped handler. Ordinary handler failures are encoded here rather than
// returned as errors, so a queue worker never loses a task silently.
type CompletionResult struct {
	// TaskUUID identifies the task that was executed.
	TaskUUID uuid.UUID `json:"task_uuid"`

	// StageUUID identifies the stage the handler was registered on. Nil when
	// the stage could not be identified from the descriptor.
	StageUUID *uuid.UUID `json:"stage_uuid,omitempty"`

	// Success reports whether the handler executed without errors.
	Success bool `json:"success"`

	// Pathway is the UUID of the pathway the task was advanced along. Nil
	// when the task was held in place or the handler failed.
	Pathway *uuid.UUID `json:"pathway,omitempty"`

	// Error carries the error message when Success is false.
	Error *string `json:"error,omitempty"`
}

// Encode serializes the result to its wire form.
func (r *CompletionResult) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// ParseCompletionResult decodes a serialized completion result.
func ParseCompletionResult(data []byte) (*CompletionResult, error) {
	var r CompletionResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid completion result: %w", err)
	}
	return &r, nil
}

// State derives the task state the result describes.
func (r *CompletionResult) State() TaskState {
	switch {
	case !r.Success:
		return StateFailed
	case r.Pathway != nil:
		return StateAdvanced
	default:
		return StateHeld
	}
}
