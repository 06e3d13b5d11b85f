package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/labelworks/agents"
	"github.com/labelworks/agents/deps"
	"github.com/labelworks/agents/workflow"
)

// HandlerFunc is a task-agent function. It receives the values resolved for
// its declared params and returns a routing decision: the name or UUID of
// the pathway the task should follow, or "" to hold the task in place.
type HandlerFunc func(v deps.Values) (string, error)

// TaskFunc is a wrapped task handler suitable for queueing systems: it takes
// a serialized TaskDescriptor and returns a serialized CompletionResult.
//
// Ordinary failures - a provider erroring, the handler erroring, an unknown
// pathway - are encoded into the result, never returned; the returned error
// is non-nil only when the descriptor itself cannot be parsed or the result
// cannot be encoded.
type TaskFunc func(ctx context.Context, spec []byte) ([]byte, error)

// taskFields are the context fields available to task agents.
var taskFields = []deps.ContextField{deps.FieldClient, deps.FieldTask, deps.FieldRecord, deps.FieldProject}

// stageAgent couples a registered handler with its stage, its built
// dependency graph and the stage's pathway lookup tables. Built once at
// registration, immutable afterwards.
type stageAgent struct {
	stage    workflow.Stage
	funcName string
	handler  HandlerFunc
	node     *deps.Dependant
	byUUID   map[uuid.UUID]workflow.Pathway
	byName   map[string]workflow.Pathway
}

// Runner registers task-agent handlers on the agent stages of one project
// and executes them, either through its own polling loop (Run) or through
// wrapped TaskFuncs driven from a work queue.
type Runner struct {
	client  workflow.Client
	project workflow.Project
	logger  *slog.Logger
	tracer  trace.Tracer
	rowOpts workflow.LabelRowOptions

	mu     sync.Mutex
	agents map[uuid.UUID]*stageAgent
	order  []*stageAgent
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger for the runner.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for the runner. If not provided, a
// noop tracer is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithLabelRowOptions overrides the options used when fetching label rows
// for handlers that need them.
func WithLabelRowOptions(opts workflow.LabelRowOptions) Option {
	return func(r *Runner) {
		r.rowOpts = opts
	}
}

// New creates a runner bound to one project. The project is fetched eagerly
// so that stage registration can be validated against the live workflow.
func New(ctx context.Context, client workflow.Client, projectHash uuid.UUID, opts ...Option) (*Runner, error) {
	project, err := client.Project(ctx, projectHash)
	if err != nil {
		return nil, agents.NewConfigurationError("runner.New",
			fmt.Errorf("fetching project %s: %w", projectHash, err))
	}

	r := &Runner{
		client:  client,
		project: project,
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("labelworks-agents"),
		rowOpts: workflow.DefaultLabelRowOptions(),
		agents:  make(map[uuid.UUID]*stageAgent),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Project returns the project the runner is bound to.
func (r *Runner) Project() workflow.Project {
	return r.project
}

// Stage registers a handler on a workflow stage, identified by name or by
// UUID string, and returns the queue-style wrapped TaskFunc for it.
//
// All validation happens here, before any task is processed: the stage must
// exist, be an agent stage and not already have a handler, and the params
// must build into a valid dependency graph using only task-agent context
// fields. Errors list the valid alternatives where that helps.
func (r *Runner) Stage(stage string, handler HandlerFunc, params ...deps.Param) (TaskFunc, error) {
	const op = "Runner.Stage"

	ws, err := r.resolveStage(op, stage)
	if err != nil {
		return nil, err
	}

	funcName := fmt.Sprintf("handler for stage %q", ws.Title())
	node, err := deps.Build(funcName, params)
	if err != nil {
		return nil, err
	}
	if err := node.CheckFields(funcName, taskFields...); err != nil {
		return nil, err
	}

	ag := &stageAgent{
		stage:    ws,
		funcName: funcName,
		handler:  handler,
		node:     node,
		byUUID:   make(map[uuid.UUID]workflow.Pathway),
		byName:   make(map[string]workflow.Pathway),
	}
	for _, pw := range ws.Pathways() {
		ag.byUUID[pw.UUID] = pw
		ag.byName[pw.Name] = pw
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[ws.UUID()]; exists {
		return nil, agents.NewConstructionError(op,
			fmt.Errorf("stage %q already has a handler; each agent stage takes exactly one", ws.Title()))
	}
	r.agents[ws.UUID()] = ag
	r.order = append(r.order, ag)

	return r.taskFunc(ag), nil
}

// AgentStages returns the stages a handler has been registered on, in
// registration order. Intended for populating external queueing systems with
// the tasks of exactly those stages.
func (r *Runner) AgentStages() []workflow.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]workflow.Stage, len(r.order))
	for i, ag := range r.order {
		out[i] = ag.stage
	}
	return out
}

// resolveStage finds an agent stage by UUID string or by title, erroring
// with the list of valid agent stage names otherwise.
func (r *Runner) resolveStage(op, stage string) (workflow.Stage, error) {
	var match workflow.Stage
	if id, err := uuid.Parse(stage); err == nil {
		for _, s := range r.project.Stages() {
			if s.UUID() == id {
				match = s
				break
			}
		}
	} else {
		for _, s := range r.project.Stages() {
			if s.Title() == stage {
				match = s
				break
			}
		}
	}

	if match == nil || match.Type() != workflow.StageTypeAgent {
		return nil, agents.NewConstructionError(op,
			fmt.Errorf("stage %q: %w; valid agent stages are [%s]",
				stage, agents.ErrStageNotFound, strings.Join(r.agentStageNames(), ", ")))
	}
	return match, nil
}

func (r *Runner) agentStageNames() []string {
	var names []string
	for _, s := range r.project.Stages() {
		if s.Type() == workflow.StageTypeAgent {
			names = append(names, s.Title())
		}
	}
	sort.Strings(names)
	return names
}
