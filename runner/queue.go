package runner

import (
	"context"
	"fmt"

	"github.com/labelworks/agents/queue"
)

// Populate pushes a queue item for every task currently sitting at every
// registered stage, and returns the number of items pushed. Workers pick the
// items up with Work, possibly on other machines.
func (r *Runner) Populate(ctx context.Context, qc queue.Client, queueName string) (int, error) {
	r.mu.Lock()
	agents := make([]*stageAgent, len(r.order))
	copy(agents, r.order)
	r.mu.Unlock()

	pushed := 0
	for _, ag := range agents {
		tasks, err := ag.stage.Tasks(ctx)
		if err != nil {
			return pushed, fmt.Errorf("listing tasks for stage %q: %w", ag.stage.Title(), err)
		}
		for _, task := range tasks {
			desc := &TaskDescriptor{
				TaskUUID:        task.UUID(),
				DataHash:        task.DataHash(),
				DataTitle:       task.DataTitle(),
				LabelBranchName: task.LabelBranch(),
			}
			spec, err := desc.Encode()
			if err != nil {
				return pushed, fmt.Errorf("encoding descriptor for task %s: %w", task.UUID(), err)
			}
			if err := qc.Push(ctx, queueName, queue.NewItem(ag.stage.UUID(), spec)); err != nil {
				return pushed, err
			}
			pushed++
		}
	}

	r.logger.Info("queue populated", "queue", queueName, "items", pushed)
	return pushed, nil
}

// Work pops items from the queue and executes them against the registered
// handlers until the context is cancelled, publishing every completion
// result to the result channel. Per-task failures are encoded into results
// and never stop the loop.
func (r *Runner) Work(ctx context.Context, qc queue.Client, queueName, resultChannel string) error {
	for {
		item, err := qc.Pop(ctx, queueName)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("popping from queue %s: %w", queueName, err)
		}
		if item == nil {
			continue
		}

		result := r.executeItem(ctx, item)
		data, err := result.Encode()
		if err != nil {
			return fmt.Errorf("encoding completion result for task %s: %w", result.TaskUUID, err)
		}
		if err := qc.PublishResult(ctx, resultChannel, data); err != nil {
			r.logger.Error("failed to publish completion result",
				"task_uuid", result.TaskUUID,
				"channel", resultChannel,
				"error", err)
		}
	}
}

// executeItem dispatches one queue item to the handler registered for its
// stage. An item for an unregistered stage becomes a failed result rather
// than an error: queues routinely outlive handler rollouts, and one stale
// item must not stop the worker.
func (r *Runner) executeItem(ctx context.Context, item *queue.Item) *CompletionResult {
	r.mu.Lock()
	ag, ok := r.agents[item.StageUUID]
	r.mu.Unlock()

	desc, err := ParseTaskDescriptor(item.Spec)
	if err != nil {
		result := &CompletionResult{}
		return result.fail(err)
	}

	if !ok {
		result := &CompletionResult{TaskUUID: desc.TaskUUID}
		return result.fail(fmt.Errorf("no handler registered for stage %s", item.StageUUID))
	}

	return r.executeDescriptor(ctx, ag, desc)
}

// CollectResults subscribes to a result channel and decodes completion
// results until the context is done, forwarding them on the returned
// channel. Undecodable payloads are logged and skipped.
func (r *Runner) CollectResults(ctx context.Context, qc queue.Client, resultChannel string) (<-chan *CompletionResult, error) {
	raw, err := qc.SubscribeResults(ctx, resultChannel)
	if err != nil {
		return nil, err
	}

	out := make(chan *CompletionResult)
	go func() {
		defer close(out)
		for data := range raw {
			result, err := ParseCompletionResult(data)
			if err != nil {
				r.logger.Warn("skipping undecodable completion result",
					"channel", resultChannel,
					"error", err)
				continue
			}
			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
