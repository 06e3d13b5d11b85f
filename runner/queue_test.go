package runner

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelworks/agents/deps"
	"github.com/labelworks/agents/queue"
	"github.com/labelworks/agents/workflow/workflowtest"
)

func newQueueClient(t *testing.T) queue.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	qc, err := queue.NewRedisClient(queue.RedisOptions{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { qc.Close() })
	return qc
}

func TestPopulateAndWork(t *testing.T) {
	f := newFixture(t)
	qc := newQueueClient(t)

	extra := workflowtest.NewTask("second.mp4")
	f.stage.AddTask(extra)
	f.project.AddLabelRow(workflowtest.NewLabelRow(extra))

	_, err := f.runner.Stage("Review", func(v deps.Values) (string, error) {
		return "Approved", nil
	}, taskRecordParams()...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pushed, err := f.runner.Populate(ctx, qc, "tasks")
	require.NoError(t, err)
	assert.Equal(t, 2, pushed)

	results, err := f.runner.CollectResults(ctx, qc, "results")
	require.NoError(t, err)

	workDone := make(chan error, 1)
	go func() {
		workDone <- f.runner.Work(ctx, qc, "tasks", "results")
	}()

	collected := make([]*CompletionResult, 0, pushed)
	for len(collected) < pushed {
		select {
		case result := <-results:
			collected = append(collected, result)
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for completion results")
		}
	}

	cancel()
	select {
	case err := <-workDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop on cancellation")
	}

	for _, result := range collected {
		assert.True(t, result.Success)
		require.NotNil(t, result.Pathway)
		assert.Equal(t, f.stage.Paths[0].UUID, *result.Pathway)
	}
	require.NotNil(t, f.task.Advanced())
	require.NotNil(t, extra.Advanced())
}

func TestExecuteItem_UnregisteredStage(t *testing.T) {
	f := newFixture(t)

	desc := &TaskDescriptor{TaskUUID: uuid.New(), DataHash: uuid.New()}
	spec, err := desc.Encode()
	require.NoError(t, err)

	result := f.runner.executeItem(context.Background(), &queue.Item{
		StageUUID: uuid.New(),
		Spec:      spec,
	})

	assert.False(t, result.Success)
	assert.Equal(t, desc.TaskUUID, result.TaskUUID)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "no handler registered")
}

func TestExecuteItem_BadSpec(t *testing.T) {
	f := newFixture(t)

	result := f.runner.executeItem(context.Background(), &queue.Item{
		StageUUID: f.stage.StageUUID,
		Spec:      []byte("not json"),
	})
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
}
