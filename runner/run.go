package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/labelworks/agents/workflow"
)

// runConfig holds the polling executor's tunables.
type runConfig struct {
	numWorkers      int
	numRetries      int
	taskBatchSize   int
	refreshInterval time.Duration
	singlePass      bool
}

// RunOption configures a call to Run.
type RunOption func(*runConfig)

// WithNumWorkers sets how many tasks may execute concurrently. Each worker
// resolves with its own context, cache and exit stack. Default 1.
func WithNumWorkers(n int) RunOption {
	return func(c *runConfig) {
		c.numWorkers = n
	}
}

// WithNumRetries sets how many times a failing task is retried within one
// pass before being given up on. Default 3.
func WithNumRetries(n int) RunOption {
	return func(c *runConfig) {
		c.numRetries = n
	}
}

// WithTaskBatchSize sets how many tasks have their label rows loaded into
// memory at once. Default 300.
func WithTaskBatchSize(n int) RunOption {
	return func(c *runConfig) {
		c.taskBatchSize = n
	}
}

// WithRefreshInterval sets how long to wait between polling passes.
// Default 1 hour.
func WithRefreshInterval(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.refreshInterval = d
	}
}

// WithSinglePass makes Run return after one pass over all registered stages
// instead of polling forever.
func WithSinglePass() RunOption {
	return func(c *runConfig) {
		c.singlePass = true
	}
}

// Run executes registered handlers against their stages' tasks in a polling
// loop, until the context is cancelled (or one pass completes, with
// WithSinglePass). Task failures are retried per task and never abort the
// loop; only platform errors while listing work do.
func (r *Runner) Run(ctx context.Context, opts ...RunOption) error {
	cfg := &runConfig{
		numWorkers:      1,
		numRetries:      3,
		taskBatchSize:   300,
		refreshInterval: time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r.mu.Lock()
	agents := make([]*stageAgent, len(r.order))
	copy(agents, r.order)
	r.mu.Unlock()

	if len(agents) == 0 {
		return fmt.Errorf("runner has no registered stage handlers")
	}

	for {
		for _, ag := range agents {
			if err := r.runStage(ctx, ag, cfg); err != nil {
				return err
			}
		}

		if cfg.singlePass {
			return nil
		}

		r.logger.Info("pass complete, sleeping until next poll",
			"refresh_interval", cfg.refreshInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.refreshInterval):
		}
	}
}

// runStage lists a stage's tasks and executes them in label-row batches.
func (r *Runner) runStage(ctx context.Context, ag *stageAgent, cfg *runConfig) error {
	tasks, err := ag.stage.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("listing tasks for stage %q: %w", ag.stage.Title(), err)
	}

	r.logger.Info("executing stage tasks",
		"stage", ag.stage.Title(),
		"tasks", len(tasks))

	for start := 0; start < len(tasks); start += cfg.taskBatchSize {
		end := start + cfg.taskBatchSize
		if end > len(tasks) {
			end = len(tasks)
		}
		if err := r.runBatch(ctx, ag, cfg, tasks[start:end]); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

// runBatch prefetches label rows for one batch (when the handler needs them)
// and fans the tasks out over the worker pool.
func (r *Runner) runBatch(ctx context.Context, ag *stageAgent, cfg *runConfig, tasks []workflow.Task) error {
	records := make(map[uuid.UUID]workflow.LabelRow)
	if ag.node.NeedsRecord() {
		hashes := make([]uuid.UUID, len(tasks))
		for i, t := range tasks {
			hashes[i] = t.DataHash()
		}
		rows, err := r.project.LabelRows(ctx, hashes, r.rowOpts)
		if err != nil {
			return fmt.Errorf("fetching label rows for stage %q: %w", ag.stage.Title(), err)
		}
		for _, row := range rows {
			if err := row.Initialize(ctx); err != nil {
				return fmt.Errorf("initializing label row %s: %w", row.DataHash(), err)
			}
			records[row.DataHash()] = row
		}
	}

	sem := make(chan struct{}, cfg.numWorkers)
	var wg sync.WaitGroup
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(task workflow.Task) {
			defer wg.Done()
			defer func() { <-sem }()
			r.runTaskWithRetries(ctx, ag, cfg, task, records[task.DataHash()])
		}(task)
	}
	wg.Wait()
	return nil
}

// runTaskWithRetries executes one task, retrying ordinary failures. Routing
// errors are not retried: the handler would just return the same unknown
// pathway again.
func (r *Runner) runTaskWithRetries(ctx context.Context, ag *stageAgent, cfg *runConfig, task workflow.Task, record workflow.LabelRow) {
	for attempt := 1; attempt <= cfg.numRetries; attempt++ {
		pathway, err := r.executeTask(ctx, ag, task, record)
		if err == nil {
			result := &CompletionResult{TaskUUID: task.UUID(), Success: true}
			if pathway != nil {
				result.Pathway = &pathway.UUID
			}
			r.logTask(ag, task, result)
			return
		}

		r.logger.Error("task attempt failed",
			"stage", ag.stage.Title(),
			"task_uuid", task.UUID(),
			"attempt", attempt,
			"max_attempts", cfg.numRetries,
			"error", err)

		if isRoutingError(err) {
			return
		}
	}
}
