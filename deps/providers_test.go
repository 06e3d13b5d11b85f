package deps

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelworks/agents/workflow/workflowtest"
)

func assetContext(t *testing.T, url string) *Context {
	t.Helper()
	task := workflowtest.NewTask("clip.mp4")
	row := workflowtest.NewLabelRow(task)
	row.URL = url
	return &Context{Record: row}
}

func TestAsset_DownloadsAndRemovesTempFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("frame bytes"))
	}))
	defer srv.Close()

	node, err := Build("fn", []Param{FromProvider("asset", Asset())})
	require.NoError(t, err)

	stack := NewExitStack()
	values, err := Solve(assetContext(t, srv.URL), node, stack, NewCache())
	require.NoError(t, err)

	path := MustGet[string](values, "asset")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "frame bytes", string(data))

	require.NoError(t, stack.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "temp file must be removed when the invocation completes")
}

func TestAsset_NoSignedURL(t *testing.T) {
	node, err := Build("fn", []Param{FromProvider("asset", Asset())})
	require.NoError(t, err)

	stack := NewExitStack()
	_, err = Solve(assetContext(t, ""), node, stack, NewCache())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signed asset URL")
	assert.Equal(t, 0, stack.Len(), "nothing to release when the download never started")
}

func TestAsset_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "signature expired", http.StatusForbidden)
	}))
	defer srv.Close()

	node, err := Build("fn", []Param{FromProvider("asset", Asset())})
	require.NoError(t, err)

	stack := NewExitStack()
	_, err = Solve(assetContext(t, srv.URL), node, stack, NewCache())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
	assert.Equal(t, 0, stack.Len())
}
