package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// FrameData is the webhook trigger payload sent by the label editor when an
// editor agent is invoked. The wire format uses camelCase field names; this
// type is the translation boundary between the wire format and the SDK.
type FrameData struct {
	// ProjectHash identifies the project the trigger came from.
	ProjectHash uuid.UUID `json:"projectHash"`

	// DataHash identifies the data asset open in the editor.
	DataHash uuid.UUID `json:"dataHash"`

	// Frame is the frame (video) or page (document) index the editor was on
	// when the agent was triggered. Legacy callers omit it, which means 0.
	Frame int `json:"frame"`
}

// ParseFrameData decodes and validates a webhook trigger payload.
// ProjectHash and DataHash are required; Frame defaults to 0 and must be
// non-negative.
func ParseFrameData(data []byte) (*FrameData, error) {
	var fd FrameData
	if err := json.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("invalid trigger payload: %w", err)
	}
	if err := fd.Validate(); err != nil {
		return nil, err
	}
	return &fd, nil
}

// Validate checks the payload invariants.
func (fd *FrameData) Validate() error {
	if fd.ProjectHash == uuid.Nil {
		return fmt.Errorf("trigger payload missing projectHash")
	}
	if fd.DataHash == uuid.Nil {
		return fmt.Errorf("trigger payload missing dataHash")
	}
	if fd.Frame < 0 {
		return fmt.Errorf("trigger payload frame must be non-negative, got %d", fd.Frame)
	}
	return nil
}
