package deps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelworks/agents"
	"github.com/labelworks/agents/workflow"
	"github.com/labelworks/agents/workflow/workflowtest"
)

func testContext(t *testing.T) *Context {
	t.Helper()
	task := workflowtest.NewTask("clip.mp4")
	return &Context{
		Project: workflowtest.NewProject("demo"),
		Task:    task,
		Record:  workflowtest.NewLabelRow(task),
	}
}

func TestSolve_FieldsFromContext(t *testing.T) {
	rctx := testContext(t)
	node, err := Build("fn", []Param{
		FromContext("task", FieldTask),
		FromContext("record", FieldRecord),
		FromContext("project", FieldProject),
	})
	require.NoError(t, err)

	values, err := Solve(rctx, node, NewExitStack(), NewCache())
	require.NoError(t, err)
	require.Len(t, values, 3)

	task, err := Get[workflow.Task](values, "task")
	require.NoError(t, err)
	assert.Equal(t, rctx.Task.UUID(), task.UUID())

	record := MustGet[workflow.LabelRow](values, "record")
	assert.Equal(t, rctx.Record.DataHash(), record.DataHash())

	project := MustGet[workflow.Project](values, "project")
	assert.Equal(t, rctx.Project.Hash(), project.Hash())
}

func TestSolve_ClientField(t *testing.T) {
	client := workflowtest.NewClient()
	rctx := &Context{Client: client}

	node, err := Build("fn", []Param{FromContext("client", FieldClient)})
	require.NoError(t, err)

	values, err := Solve(rctx, node, NewExitStack(), NewCache())
	require.NoError(t, err)
	got := MustGet[workflow.Client](values, "client")
	assert.Same(t, client, got)

	// A context built without a client cannot satisfy the field.
	_, err = Solve(&Context{}, node, NewExitStack(), NewCache())
	require.Error(t, err)
	assert.ErrorIs(t, err, agents.ErrFieldUnavailable)
}

func TestSolve_FieldUnavailable(t *testing.T) {
	rctx := &Context{Project: workflowtest.NewProject("demo")}
	node, err := Build("fn", []Param{FromContext("task", FieldTask)})
	require.NoError(t, err)

	_, err = Solve(rctx, node, NewExitStack(), NewCache())
	require.Error(t, err)
	assert.ErrorIs(t, err, agents.ErrFieldUnavailable)
	assert.Contains(t, err.Error(), "task")
}

func TestSolve_ProviderOrderAndSubValues(t *testing.T) {
	rctx := testContext(t)

	base := NewProvider("base", func(Values) (any, error) { return 10, nil })
	double := NewProvider("double", func(v Values) (any, error) {
		return MustGet[int](v, "n") * 2, nil
	}, FromProvider("n", base))

	node, err := Build("fn", []Param{FromProvider("result", double)})
	require.NoError(t, err)

	values, err := Solve(rctx, node, NewExitStack(), NewCache())
	require.NoError(t, err)
	assert.Equal(t, 20, MustGet[int](values, "result"))
}

func TestSolve_CachesSharedProvider(t *testing.T) {
	rctx := testContext(t)

	calls := 0
	counted := NewProvider("counted", func(Values) (any, error) {
		calls++
		return calls, nil
	})
	indirect := NewProvider("indirect", func(v Values) (any, error) {
		return MustGet[int](v, "c"), nil
	}, FromProvider("c", counted))

	node, err := Build("fn", []Param{
		FromProvider("direct", counted),
		FromProvider("indirect", indirect),
	})
	require.NoError(t, err)

	values, err := Solve(rctx, node, NewExitStack(), NewCache())
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "shared provider must run exactly once per pass")
	assert.Equal(t, 1, MustGet[int](values, "direct"))
	assert.Equal(t, 1, MustGet[int](values, "indirect"))

	// A fresh pass gets a fresh cache: the provider runs again.
	_, err = Solve(rctx, node, NewExitStack(), NewCache())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSolve_ScopedProviderRelease(t *testing.T) {
	rctx := testContext(t)

	var events []string
	scoped := NewScopedProvider("conn", func(Values) (any, func() error, error) {
		events = append(events, "acquire")
		return "connection", func() error {
			events = append(events, "release")
			return nil
		}, nil
	})

	node, err := Build("fn", []Param{FromProvider("conn", scoped)})
	require.NoError(t, err)

	stack := NewExitStack()
	values, err := Solve(rctx, node, stack, NewCache())
	require.NoError(t, err)
	assert.Equal(t, "connection", MustGet[string](values, "conn"))
	assert.Equal(t, []string{"acquire"}, events, "release must not run before Close")

	require.NoError(t, stack.Close())
	assert.Equal(t, []string{"acquire", "release"}, events)

	// Closing again must not re-run releases.
	require.NoError(t, stack.Close())
	assert.Equal(t, []string{"acquire", "release"}, events)
}

func TestSolve_ScopedReleaseOrderIsReversed(t *testing.T) {
	rctx := testContext(t)

	var releases []string
	mk := func(name string) *Provider {
		return NewScopedProvider(name, func(Values) (any, func() error, error) {
			return name, func() error {
				releases = append(releases, name)
				return nil
			}, nil
		})
	}

	node, err := Build("fn", []Param{
		FromProvider("first", mk("first")),
		FromProvider("second", mk("second")),
	})
	require.NoError(t, err)

	stack := NewExitStack()
	_, err = Solve(rctx, node, stack, NewCache())
	require.NoError(t, err)
	require.NoError(t, stack.Close())
	assert.Equal(t, []string{"second", "first"}, releases)
}

func TestSolve_ProviderErrorPropagates(t *testing.T) {
	rctx := testContext(t)

	boom := errors.New("boom")
	failing := NewProvider("failing", func(Values) (any, error) { return nil, boom })
	dependent := NewProvider("dependent", func(Values) (any, error) {
		t.Fatal("dependent must not run when its dependency failed")
		return nil, nil
	}, FromProvider("f", failing))

	var opened, released bool
	scoped := NewScopedProvider("scoped", func(Values) (any, func() error, error) {
		opened = true
		return nil, func() error {
			released = true
			return nil
		}, nil
	})

	node, err := Build("fn", []Param{
		FromProvider("scoped", scoped),
		FromProvider("dep", dependent),
	})
	require.NoError(t, err)

	stack := NewExitStack()
	_, err = Solve(rctx, node, stack, NewCache())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `provider "failing"`)

	// Resources opened before the failure are still released by Close.
	require.True(t, opened)
	require.NoError(t, stack.Close())
	assert.True(t, released)
}

func TestGet_TypeMismatch(t *testing.T) {
	v := Values{"n": 7}

	_, err := Get[string](v, "n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "int")

	_, err = Get[int](v, "missing")
	require.Error(t, err)

	assert.Panics(t, func() { MustGet[string](v, "n") })
}
