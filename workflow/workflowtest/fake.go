// Package workflowtest provides an in-memory implementation of the workflow
// interfaces for testing agents without a live platform connection.
package workflowtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/labelworks/agents"
	"github.com/labelworks/agents/workflow"
)

// Client is an in-memory workflow.Client holding fake projects.
type Client struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*Project

	// AuthErr, when set, is returned from every call that reaches the
	// platform. Use agents.ErrUnauthorized to simulate permission failures.
	AuthErr error
}

// NewClient creates an empty fake client.
func NewClient() *Client {
	return &Client{projects: make(map[uuid.UUID]*Project)}
}

// AddProject registers a fake project with the client.
func (c *Client) AddProject(p *Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects[p.ProjectHash] = p
}

// Project implements workflow.Client.
func (c *Client) Project(_ context.Context, projectHash uuid.UUID) (workflow.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AuthErr != nil {
		return nil, c.AuthErr
	}
	p, ok := c.projects[projectHash]
	if !ok {
		return nil, agents.NewNotFoundError("workflowtest.Client.Project",
			fmt.Errorf("project %s: not found", projectHash))
	}
	return p, nil
}

// Project is an in-memory workflow.Project.
type Project struct {
	ProjectHash  uuid.UUID
	ProjectTitle string

	mu         sync.Mutex
	stages     []*Stage
	rows       map[uuid.UUID]*LabelRow
	RowFetches int // number of LabelRows calls, for asserting lazy fetching

	// RowErr, when set, is returned from LabelRows.
	RowErr error
}

// NewProject creates an empty fake project with a random hash.
func NewProject(title string) *Project {
	return &Project{
		ProjectHash:  uuid.New(),
		ProjectTitle: title,
		rows:         make(map[uuid.UUID]*LabelRow),
	}
}

// AddStage appends a stage to the project workflow.
func (p *Project) AddStage(s *Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s.project = p
	p.stages = append(p.stages, s)
}

// AddLabelRow registers a label row for a data hash.
func (p *Project) AddLabelRow(row *LabelRow) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows[row.Hash] = row
}

// Hash implements workflow.Project.
func (p *Project) Hash() uuid.UUID { return p.ProjectHash }

// Title implements workflow.Project.
func (p *Project) Title() string { return p.ProjectTitle }

// Stages implements workflow.Project.
func (p *Project) Stages() []workflow.Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]workflow.Stage, len(p.stages))
	for i, s := range p.stages {
		out[i] = s
	}
	return out
}

// LabelRows implements workflow.Project.
func (p *Project) LabelRows(_ context.Context, dataHashes []uuid.UUID, _ workflow.LabelRowOptions) ([]workflow.LabelRow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RowFetches++
	if p.RowErr != nil {
		return nil, p.RowErr
	}
	out := make([]workflow.LabelRow, 0, len(dataHashes))
	for _, h := range dataHashes {
		row, ok := p.rows[h]
		if !ok {
			return nil, fmt.Errorf("label row %s: not found", h)
		}
		out = append(out, row)
	}
	return out, nil
}

// Stage is an in-memory workflow.Stage.
type Stage struct {
	StageUUID  uuid.UUID
	StageTitle string
	StageType  workflow.StageType
	Paths      []workflow.Pathway

	project *Project

	mu    sync.Mutex
	tasks []*Task
}

// NewAgentStage creates an agent stage with the given title and pathway
// names, assigning fresh UUIDs throughout.
func NewAgentStage(title string, pathwayNames ...string) *Stage {
	s := &Stage{
		StageUUID:  uuid.New(),
		StageTitle: title,
		StageType:  workflow.StageTypeAgent,
	}
	for _, name := range pathwayNames {
		s.Paths = append(s.Paths, workflow.Pathway{UUID: uuid.New(), Name: name})
	}
	return s
}

// AddTask places a task at this stage.
func (s *Stage) AddTask(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.stage = s
	s.tasks = append(s.tasks, t)
}

// UUID implements workflow.Stage.
func (s *Stage) UUID() uuid.UUID { return s.StageUUID }

// Title implements workflow.Stage.
func (s *Stage) Title() string { return s.StageTitle }

// Type implements workflow.Stage.
func (s *Stage) Type() workflow.StageType { return s.StageType }

// Pathways implements workflow.Stage.
func (s *Stage) Pathways() []workflow.Pathway { return s.Paths }

// Tasks implements workflow.Stage.
func (s *Stage) Tasks(_ context.Context) ([]workflow.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]workflow.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t
	}
	return out, nil
}

// TaskByDataHash implements workflow.Stage.
func (s *Stage) TaskByDataHash(_ context.Context, dataHash uuid.UUID) (workflow.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.Hash == dataHash {
			return t, nil
		}
	}
	return nil, agents.NewNotFoundError("workflowtest.Stage.TaskByDataHash",
		fmt.Errorf("data hash %s: %w", dataHash, agents.ErrTaskNotFound))
}

// Task is an in-memory workflow.Task that records pathway transitions.
type Task struct {
	TaskUUID uuid.UUID
	Hash     uuid.UUID
	Title    string
	Branch   string

	stage *Stage

	mu       sync.Mutex
	advanced *workflow.Pathway

	// ProceedErr, when set, is returned from Proceed.
	ProceedErr error
}

// NewTask creates a task bound to a fresh data hash on the "main" branch.
func NewTask(title string) *Task {
	return &Task{
		TaskUUID: uuid.New(),
		Hash:     uuid.New(),
		Title:    title,
		Branch:   "main",
	}
}

// UUID implements workflow.Task.
func (t *Task) UUID() uuid.UUID { return t.TaskUUID }

// DataHash implements workflow.Task.
func (t *Task) DataHash() uuid.UUID { return t.Hash }

// DataTitle implements workflow.Task.
func (t *Task) DataTitle() string { return t.Title }

// LabelBranch implements workflow.Task.
func (t *Task) LabelBranch() string { return t.Branch }

// Proceed implements workflow.Task.
func (t *Task) Proceed(_ context.Context, pathway workflow.Pathway) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ProceedErr != nil {
		return t.ProceedErr
	}
	if t.stage != nil {
		found := false
		for _, pw := range t.stage.Paths {
			if pw.UUID == pathway.UUID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("pathway %s does not belong to stage %s", pathway.UUID, t.stage.StageTitle)
		}
	}
	t.advanced = &pathway
	return nil
}

// Advanced returns the pathway the task was advanced along, or nil when the
// task is still in place.
func (t *Task) Advanced() *workflow.Pathway {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.advanced
}

// LabelRow is an in-memory workflow.LabelRow.
type LabelRow struct {
	Hash   uuid.UUID
	Title  string
	Branch string
	URL    string

	mu          sync.Mutex
	initialized bool

	// InitErr, when set, is returned from Initialize.
	InitErr error
}

// NewLabelRow creates a label row for the given task's data asset.
func NewLabelRow(t *Task) *LabelRow {
	return &LabelRow{
		Hash:   t.Hash,
		Title:  t.Title,
		Branch: t.Branch,
	}
}

// DataHash implements workflow.LabelRow.
func (r *LabelRow) DataHash() uuid.UUID { return r.Hash }

// DataTitle implements workflow.LabelRow.
func (r *LabelRow) DataTitle() string { return r.Title }

// BranchName implements workflow.LabelRow.
func (r *LabelRow) BranchName() string { return r.Branch }

// Initialize implements workflow.LabelRow.
func (r *LabelRow) Initialize(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.InitErr != nil {
		return r.InitErr
	}
	r.initialized = true
	return nil
}

// Initialized reports whether Initialize has been called.
func (r *LabelRow) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// AssetURL implements workflow.LabelRow.
func (r *LabelRow) AssetURL() string { return r.URL }
