package runner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelworks/agents/deps"
	"github.com/labelworks/agents/workflow"
	"github.com/labelworks/agents/workflow/workflowtest"
)

func TestRun_SinglePassAdvancesAllTasks(t *testing.T) {
	f := newFixture(t)

	// Two more tasks beyond the fixture's one.
	for i := 0; i < 2; i++ {
		task := workflowtest.NewTask("extra.mp4")
		f.stage.AddTask(task)
		f.project.AddLabelRow(workflowtest.NewLabelRow(task))
	}

	var mu sync.Mutex
	seen := 0
	_, err := f.runner.Stage("Review", func(v deps.Values) (string, error) {
		mu.Lock()
		seen++
		mu.Unlock()
		return "Approved", nil
	}, taskRecordParams()...)
	require.NoError(t, err)

	err = f.runner.Run(context.Background(), WithSinglePass(), WithNumWorkers(2), WithTaskBatchSize(2))
	require.NoError(t, err)
	assert.Equal(t, 3, seen)

	tasks, err := f.stage.Tasks(context.Background())
	require.NoError(t, err)
	for _, task := range tasks {
		advanced := task.(*workflowtest.Task).Advanced()
		require.NotNil(t, advanced)
		assert.Equal(t, "Approved", advanced.Name)
	}
}

func TestRun_RetriesFailingTask(t *testing.T) {
	f := newFixture(t)

	attempts := 0
	_, err := f.runner.Stage("Review", func(v deps.Values) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("flaky")
		}
		return "Approved", nil
	})
	require.NoError(t, err)

	err = f.runner.Run(context.Background(), WithSinglePass(), WithNumRetries(3))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	require.NotNil(t, f.task.Advanced())
}

func TestRun_GivesUpAfterRetries(t *testing.T) {
	f := newFixture(t)

	attempts := 0
	_, err := f.runner.Stage("Review", func(v deps.Values) (string, error) {
		attempts++
		return "", errors.New("always broken")
	})
	require.NoError(t, err)

	err = f.runner.Run(context.Background(), WithSinglePass(), WithNumRetries(2))
	require.NoError(t, err, "per-task failures must not abort the pass")
	assert.Equal(t, 2, attempts)
	assert.Nil(t, f.task.Advanced())
}

func TestRun_RoutingErrorIsNotRetried(t *testing.T) {
	f := newFixture(t)

	attempts := 0
	_, err := f.runner.Stage("Review", func(v deps.Values) (string, error) {
		attempts++
		return "NoSuchPathway", nil
	})
	require.NoError(t, err)

	err = f.runner.Run(context.Background(), WithSinglePass(), WithNumRetries(5))
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "an unknown pathway will not become known by retrying")
}

func TestRun_NoHandlers(t *testing.T) {
	f := newFixture(t)
	err := f.runner.Run(context.Background(), WithSinglePass())
	assert.Error(t, err)
}

func TestRun_IsolatesTaskFailures(t *testing.T) {
	f := newFixture(t)

	bad := workflowtest.NewTask("bad.mp4")
	f.stage.AddTask(bad)
	f.project.AddLabelRow(workflowtest.NewLabelRow(bad))

	_, err := f.runner.Stage("Review", func(v deps.Values) (string, error) {
		task := deps.MustGet[workflow.Task](v, "task")
		if task.DataTitle() == "bad.mp4" {
			return "", errors.New("cannot process this asset")
		}
		return "Approved", nil
	}, deps.FromContext("task", deps.FieldTask))
	require.NoError(t, err)

	err = f.runner.Run(context.Background(), WithSinglePass(), WithNumRetries(1))
	require.NoError(t, err, "one failing task must not abort the batch")
	require.NotNil(t, f.task.Advanced(), "the healthy task still advances")
	assert.Nil(t, bad.Advanced())
}
