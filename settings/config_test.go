package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelworks/agents"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRunnerConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "project_hash: f4b1d1b2-6f3e-4c7a-9a1e-000000000001\n")

	cfg, err := LoadRunnerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "f4b1d1b2-6f3e-4c7a-9a1e-000000000001", cfg.ProjectHash)
	assert.Equal(t, 300, cfg.TaskBatchSize)
	assert.Equal(t, 3, cfg.NumRetries)
	assert.Equal(t, 1, cfg.NumWorkers)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, "agents:tasks", cfg.QueueName)
	assert.Equal(t, "agents:results", cfg.ResultChannel)
}

func TestLoadRunnerConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
task_batch_size: 50
num_workers: 8
refresh_interval: 5m
redis_url: redis://queue.internal:6379
webhook_addr: ":9000"
`)

	cfg, err := LoadRunnerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.TaskBatchSize)
	assert.Equal(t, 8, cfg.NumWorkers)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "redis://queue.internal:6379", cfg.RedisURL)
	assert.Equal(t, ":9000", cfg.WebhookAddr)
	// Unset fields keep their defaults.
	assert.Equal(t, 3, cfg.NumRetries)
}

func TestLoadRunnerConfig_MissingFile(t *testing.T) {
	_, err := LoadRunnerConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var e *agents.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, agents.KindConfiguration, e.Kind)
}

func TestLoadRunnerConfig_BadYAML(t *testing.T) {
	path := writeConfig(t, "task_batch_size: [not an int\n")

	_, err := LoadRunnerConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, &agents.Error{Kind: agents.KindConfiguration})
}

func TestRunnerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RunnerConfig)
		wantErr string
	}{
		{"defaults are valid", func(*RunnerConfig) {}, ""},
		{"zero batch size", func(c *RunnerConfig) { c.TaskBatchSize = 0 }, "task_batch_size"},
		{"negative retries", func(c *RunnerConfig) { c.NumRetries = -1 }, "num_retries"},
		{"zero workers", func(c *RunnerConfig) { c.NumWorkers = 0 }, "num_workers"},
		{"zero refresh interval", func(c *RunnerConfig) { c.RefreshInterval = 0 }, "refresh_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunnerConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, agents.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
