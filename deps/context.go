package deps

import (
	"fmt"

	"github.com/labelworks/agents"
	"github.com/labelworks/agents/workflow"
)

// Context is the immutable bundle of ambient values for one invocation.
// Invocation wrappers construct a fresh Context per invocation, after
// deciding which expensive values are actually needed (see
// Dependant.NeedsRecord), and never mutate or share it afterwards.
//
// Which fields are populated depends on the invocation style: task agents
// get Task and (on demand) Record; editor agents get Frame and (on demand)
// Record. Client and Project are always populated.
type Context struct {
	// Client is the process-wide authenticated platform client.
	Client workflow.Client

	// Project is the project the invocation belongs to.
	Project workflow.Project

	// Task is the workflow task being processed; nil for editor agents.
	Task workflow.Task

	// Record is the label row for the current data asset; nil unless some
	// parameter in the graph needs it.
	Record workflow.LabelRow

	// Frame is the parsed webhook trigger payload; nil for task agents.
	Frame *workflow.FrameData
}

// field returns the context value for a tag, or a resolution error when the
// invocation did not populate it.
func (c *Context) field(tag ContextField) (any, error) {
	var v any
	switch tag {
	case FieldClient:
		if c.Client != nil {
			v = c.Client
		}
	case FieldTask:
		if c.Task != nil {
			v = c.Task
		}
	case FieldRecord:
		if c.Record != nil {
			v = c.Record
		}
	case FieldProject:
		if c.Project != nil {
			v = c.Project
		}
	case FieldFrame:
		if c.Frame != nil {
			v = c.Frame
		}
	}
	if v == nil {
		return nil, agents.NewResolutionError("deps.Solve",
			fmt.Errorf("field %q: %w", tag, agents.ErrFieldUnavailable))
	}
	return v, nil
}
