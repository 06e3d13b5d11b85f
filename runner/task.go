package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/labelworks/agents"
	"github.com/labelworks/agents/deps"
	"github.com/labelworks/agents/workflow"
)

// taskFunc wraps a registered handler into its queue-style form.
func (r *Runner) taskFunc(ag *stageAgent) TaskFunc {
	return func(ctx context.Context, spec []byte) ([]byte, error) {
		desc, err := ParseTaskDescriptor(spec)
		if err != nil {
			return nil, err
		}
		result := r.executeDescriptor(ctx, ag, desc)
		return result.Encode()
	}
}

// executeDescriptor runs one serialized task end to end: re-fetch the task,
// conditionally fetch the record, resolve dependencies, call the handler and
// route the task. Every failure is captured into the result.
func (r *Runner) executeDescriptor(ctx context.Context, ag *stageAgent, desc *TaskDescriptor) *CompletionResult {
	stageUUID := ag.stage.UUID()
	result := &CompletionResult{TaskUUID: desc.TaskUUID, StageUUID: &stageUUID}

	task, err := ag.stage.TaskByDataHash(ctx, desc.DataHash)
	if err != nil {
		return r.failTask(ag, result, fmt.Errorf("failed to obtain task from platform: %w", err))
	}
	result.TaskUUID = task.UUID()

	record, err := r.fetchRecord(ctx, ag, desc.DataHash)
	if err != nil {
		return r.failTask(ag, result, err)
	}

	pathway, err := r.executeTask(ctx, ag, task, record)
	if err != nil {
		return r.failTask(ag, result, err)
	}

	result.Success = true
	if pathway != nil {
		result.Pathway = &pathway.UUID
	}
	r.logTask(ag, task, result)
	return result
}

// fetchRecord loads and initializes the label row for a data hash, but only
// when some parameter in the handler's graph actually needs it.
func (r *Runner) fetchRecord(ctx context.Context, ag *stageAgent, dataHash uuid.UUID) (workflow.LabelRow, error) {
	if !ag.node.NeedsRecord() {
		return nil, nil
	}

	rows, err := r.project.LabelRows(ctx, []uuid.UUID{dataHash}, r.rowOpts)
	if err != nil {
		return nil, fmt.Errorf("fetching label row %s: %w", dataHash, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fetching label row %s: no row returned", dataHash)
	}
	if err := rows[0].Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing label row %s: %w", dataHash, err)
	}
	return rows[0], nil
}

// executeTask resolves the handler's dependency graph, calls the handler
// inside the exit stack's scope and advances the task according to the
// routing decision. It returns the pathway the task followed, or nil when
// the task was held.
func (r *Runner) executeTask(ctx context.Context, ag *stageAgent, task workflow.Task, record workflow.LabelRow) (*workflow.Pathway, error) {
	ctx, span := r.tracer.Start(ctx, "runner.executeTask", trace.WithAttributes(
		attribute.String("task.uuid", task.UUID().String()),
		attribute.String("stage.title", ag.stage.Title()),
	))
	defer span.End()

	rctx := &deps.Context{
		Client:  r.client,
		Project: r.project,
		Task:    task,
		Record:  record,
	}

	stack := deps.NewExitStack()
	decision, err := func() (string, error) {
		values, err := deps.Solve(rctx, ag.node, stack, deps.NewCache())
		if err != nil {
			return "", err
		}
		return ag.handler(values)
	}()
	if cerr := stack.Close(); cerr != nil {
		r.logger.Warn("scoped resource release failed",
			"stage", ag.stage.Title(),
			"task_uuid", task.UUID(),
			"error", cerr)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if decision == "" {
		return nil, nil
	}

	pathway, err := ag.resolvePathway(decision)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := task.Proceed(ctx, pathway); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("advancing task %s along %q: %w", task.UUID(), pathway.Name, err)
	}
	span.SetAttributes(attribute.String("pathway.name", pathway.Name))
	return &pathway, nil
}

// resolvePathway maps a routing decision to a pathway of the agent's stage.
// A decision that parses as a UUID is looked up by UUID, anything else by
// name. Unknown decisions are routing errors listing the valid pathways.
func (ag *stageAgent) resolvePathway(decision string) (workflow.Pathway, error) {
	const op = "Runner.executeTask"

	if id, err := uuid.Parse(decision); err == nil {
		if pw, ok := ag.byUUID[id]; ok {
			return pw, nil
		}
		valid := make([]string, 0, len(ag.byUUID))
		for u := range ag.byUUID {
			valid = append(valid, u.String())
		}
		sort.Strings(valid)
		return workflow.Pathway{}, agents.NewRoutingError(op,
			fmt.Errorf("%w: handler returned pathway UUID %q, stage %q only accepts [%s]",
				agents.ErrPathwayNotFound, decision, ag.stage.Title(), strings.Join(valid, ", ")))
	}

	if pw, ok := ag.byName[decision]; ok {
		return pw, nil
	}
	valid := make([]string, 0, len(ag.byName))
	for name := range ag.byName {
		valid = append(valid, name)
	}
	sort.Strings(valid)
	return workflow.Pathway{}, agents.NewRoutingError(op,
		fmt.Errorf("%w: handler returned pathway name %q, stage %q only accepts [%s]",
			agents.ErrPathwayNotFound, decision, ag.stage.Title(), strings.Join(valid, ", ")))
}

// isRoutingError reports whether err is a routing failure (unknown pathway).
func isRoutingError(err error) bool {
	return errors.Is(err, &agents.Error{Kind: agents.KindRouting})
}

func (r *Runner) logTask(ag *stageAgent, task workflow.Task, result *CompletionResult) {
	attrs := []any{
		"stage", ag.stage.Title(),
		"task_uuid", task.UUID(),
		"state", result.State(),
	}
	if result.Pathway != nil {
		attrs = append(attrs, "pathway", *result.Pathway)
	}
	r.logger.Info("task executed", attrs...)
}

// failTask encodes a failure into the result and logs it. Task failures are
// isolated: they never propagate out of the wrapper.
func (r *Runner) failTask(ag *stageAgent, result *CompletionResult, err error) *CompletionResult {
	result.fail(err)
	r.logger.Error("task failed",
		"stage", ag.stage.Title(),
		"task_uuid", result.TaskUUID,
		"state", StateFailed,
		"error", err)
	return result
}

func (c *CompletionResult) fail(err error) *CompletionResult {
	msg := err.Error()
	c.Success = false
	c.Error = &msg
	c.Pathway = nil
	return c
}
