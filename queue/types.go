package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Item is a single unit of work on a queue: a serialized task descriptor
// plus the stage it belongs to, so a worker holding several stage handlers
// can dispatch it to the right one.
type Item struct {
	// StageUUID identifies the workflow stage whose handler should process
	// this item.
	StageUUID uuid.UUID `json:"stage_uuid"`

	// Spec is the serialized task descriptor (runner.TaskDescriptor JSON).
	Spec json.RawMessage `json:"spec"`

	// SubmittedAt is the Unix timestamp in milliseconds when the item was
	// pushed.
	SubmittedAt int64 `json:"submitted_at"`
}

// NewItem creates a queue item for a stage, stamped with the current time.
func NewItem(stageUUID uuid.UUID, spec []byte) Item {
	return Item{
		StageUUID:   stageUUID,
		Spec:        spec,
		SubmittedAt: time.Now().UnixMilli(),
	}
}

// Validate checks that the item carries a stage and a payload.
func (i Item) Validate() error {
	if i.StageUUID == uuid.Nil {
		return fmt.Errorf("queue item missing stage_uuid")
	}
	if len(i.Spec) == 0 {
		return fmt.Errorf("queue item missing spec")
	}
	return nil
}
