// Package workflow defines the data model of the annotation platform as
// consumed by the SDK: projects, workflow stages, pathways, tasks and label
// rows, plus the webhook trigger payload.
//
// The platform itself is an external collaborator. The SDK only depends on
// the interfaces in this package; workflowtest provides an in-memory
// implementation for tests.
package workflow

import (
	"context"

	"github.com/google/uuid"
)

// StageType identifies the kind of a workflow stage.
type StageType string

const (
	// StageTypeAgent is a stage driven by an agent function. Only agent
	// stages can have handlers registered on them.
	StageTypeAgent StageType = "AGENT"

	// StageTypeAnnotation is a manual annotation stage.
	StageTypeAnnotation StageType = "ANNOTATION"

	// StageTypeReview is a manual review stage.
	StageTypeReview StageType = "REVIEW"

	// StageTypeComplete is the terminal stage of a workflow.
	StageTypeComplete StageType = "COMPLETE"
)

// String returns the string representation of the stage type.
func (s StageType) String() string {
	return string(s)
}

// Pathway is a named edge a task can follow out of its current stage.
type Pathway struct {
	// UUID uniquely identifies the pathway within the workflow.
	UUID uuid.UUID

	// Name is the human-readable pathway name shown in the workflow editor.
	Name string
}

// Client is the authenticated platform client. It is constructed once at
// startup from credential material (see the settings package) and must be
// safe for concurrent read-only use across invocations.
type Client interface {
	// Project fetches a project handle by its project hash.
	Project(ctx context.Context, projectHash uuid.UUID) (Project, error)
}

// Project is a handle to one annotation project and its workflow graph.
type Project interface {
	// Hash returns the project hash.
	Hash() uuid.UUID

	// Title returns the project title.
	Title() string

	// Stages returns all stages of the project workflow, in graph order.
	Stages() []Stage

	// LabelRows fetches the label rows for the given data hashes. The
	// returned rows are not initialized; call LabelRow.Initialize to load
	// annotation content.
	LabelRows(ctx context.Context, dataHashes []uuid.UUID, opts LabelRowOptions) ([]LabelRow, error)
}

// Stage is one step of a project workflow where tasks can reside.
type Stage interface {
	// UUID returns the stage identifier.
	UUID() uuid.UUID

	// Title returns the stage name as shown in the workflow editor.
	Title() string

	// Type returns the kind of the stage.
	Type() StageType

	// Pathways returns the edges leading out of this stage.
	Pathways() []Pathway

	// Tasks lists the tasks currently sitting at this stage.
	Tasks(ctx context.Context) ([]Task, error)

	// TaskByDataHash returns the task at this stage bound to the given data
	// hash, or an error wrapping agents.ErrTaskNotFound when there is none.
	TaskByDataHash(ctx context.Context, dataHash uuid.UUID) (Task, error)
}

// Task is a unit of work bound to one data asset, currently sitting at one
// workflow stage.
type Task interface {
	// UUID returns the task identifier.
	UUID() uuid.UUID

	// DataHash returns the identifier of the underlying data asset.
	DataHash() uuid.UUID

	// DataTitle returns the title of the underlying data asset.
	DataTitle() string

	// LabelBranch returns the name of the label branch the task operates on.
	LabelBranch() string

	// Proceed advances the task along the given pathway. The pathway must
	// belong to the task's current stage.
	Proceed(ctx context.Context, pathway Pathway) error
}

// LabelRow is the annotation data object associated with one data asset.
type LabelRow interface {
	// DataHash returns the identifier of the underlying data asset.
	DataHash() uuid.UUID

	// DataTitle returns the title of the underlying data asset.
	DataTitle() string

	// BranchName returns the label branch this row belongs to.
	BranchName() string

	// Initialize loads the annotation content of the row from the platform.
	// It must be called before reading or writing annotations.
	Initialize(ctx context.Context) error

	// AssetURL returns a signed URL for downloading the underlying asset.
	// Only populated when the row was fetched with IncludeSignedURL.
	AssetURL() string
}

// LabelRowOptions controls which optional data is included when fetching
// label rows. Including less is cheaper; invocation wrappers only fetch rows
// at all when some dependency actually needs them.
type LabelRowOptions struct {
	// IncludeWorkflowGraphNode includes the row's position in the workflow.
	IncludeWorkflowGraphNode bool

	// IncludeClientMetadata includes client-attached metadata. Reading
	// metadata through label rows is fine; writing requires the storage API.
	IncludeClientMetadata bool

	// IncludeImagesData includes per-image data for image groups.
	IncludeImagesData bool

	// IncludeAllLabelBranches includes rows from every label branch instead
	// of only the requested one.
	IncludeAllLabelBranches bool

	// IncludeSignedURL requests a signed download URL for the asset.
	IncludeSignedURL bool
}

// DefaultLabelRowOptions returns the options used by the invocation wrappers
// when none are configured.
func DefaultLabelRowOptions() LabelRowOptions {
	return LabelRowOptions{
		IncludeWorkflowGraphNode: true,
		IncludeSignedURL:         true,
	}
}
