package settings

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/labelworks/agents"
)

// RunnerConfig is the optional agent.yaml configuration file controlling the
// polling executor and queue integration. All fields have workable defaults;
// the file exists so deployments can tune them without code changes.
type RunnerConfig struct {
	// ProjectHash is the project the runner binds to.
	ProjectHash string `yaml:"project_hash,omitempty"`

	// TaskBatchSize is how many tasks have label rows loaded at once.
	TaskBatchSize int `yaml:"task_batch_size,omitempty"`

	// NumRetries is how many times a failing task is retried per pass.
	NumRetries int `yaml:"num_retries,omitempty"`

	// NumWorkers is the concurrent task execution limit.
	NumWorkers int `yaml:"num_workers,omitempty"`

	// RefreshInterval is the pause between polling passes.
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`

	// QueueName is the Redis list used by Populate/Work.
	QueueName string `yaml:"queue_name,omitempty"`

	// ResultChannel is the pub/sub channel completion results go to.
	ResultChannel string `yaml:"result_channel,omitempty"`

	// RedisURL is the Redis connection string for queue mode.
	RedisURL string `yaml:"redis_url,omitempty"`

	// WebhookAddr is the bind address for editor-agent serving.
	WebhookAddr string `yaml:"webhook_addr,omitempty"`
}

// DefaultRunnerConfig returns the defaults applied when fields are omitted.
func DefaultRunnerConfig() *RunnerConfig {
	return &RunnerConfig{
		TaskBatchSize:   300,
		NumRetries:      3,
		NumWorkers:      1,
		RefreshInterval: time.Hour,
		QueueName:       "agents:tasks",
		ResultChannel:   "agents:results",
		RedisURL:        "redis://localhost:6379",
		WebhookAddr:     ":8080",
	}
}

// LoadRunnerConfig reads a YAML runner configuration file, filling omitted
// fields with defaults.
func LoadRunnerConfig(path string) (*RunnerConfig, error) {
	const op = "settings.LoadRunnerConfig"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, agents.NewConfigurationError(op,
			fmt.Errorf("reading %s: %w", path, err))
	}

	cfg := DefaultRunnerConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, agents.NewConfigurationError(op,
			fmt.Errorf("parsing %s: %w", path, err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c *RunnerConfig) Validate() error {
	const op = "settings.RunnerConfig"

	if c.TaskBatchSize <= 0 {
		return agents.NewConfigurationError(op,
			fmt.Errorf("%w: task_batch_size must be positive, got %d", agents.ErrInvalidConfig, c.TaskBatchSize))
	}
	if c.NumRetries <= 0 {
		return agents.NewConfigurationError(op,
			fmt.Errorf("%w: num_retries must be positive, got %d", agents.ErrInvalidConfig, c.NumRetries))
	}
	if c.NumWorkers <= 0 {
		return agents.NewConfigurationError(op,
			fmt.Errorf("%w: num_workers must be positive, got %d", agents.ErrInvalidConfig, c.NumWorkers))
	}
	if c.RefreshInterval <= 0 {
		return agents.NewConfigurationError(op,
			fmt.Errorf("%w: refresh_interval must be positive, got %s", agents.ErrInvalidConfig, c.RefreshInterval))
	}
	return nil
}
