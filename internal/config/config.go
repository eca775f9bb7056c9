package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main sequent configuration
type Config struct {
	// Sequencer core settings
	Sequencer SequencerConfig `json:"sequencer" mapstructure:"sequencer"`

	// Metrics endpoint
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Workload generator used by the serve command
	Workload WorkloadConfig `json:"workload" mapstructure:"workload"`
}

// SequencerConfig holds factory construction settings
type SequencerConfig struct {
	Strategy             string `json:"strategy" mapstructure:"strategy"` // staging, pooled
	MaxConcurrency       int    `json:"max_concurrency" mapstructure:"max_concurrency"`
	PoolSize             int    `json:"pool_size" mapstructure:"pool_size"`
	SerializedSubmission bool   `json:"serialized_submission" mapstructure:"serialized_submission"`
	FairSubmission       bool   `json:"fair_submission" mapstructure:"fair_submission"`
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// WorkloadConfig shapes the synthetic load driven by the serve command
type WorkloadConfig struct {
	Keys          int    `json:"keys" mapstructure:"keys"`
	TaskDuration  string `json:"task_duration" mapstructure:"task_duration"`
	SubmitPeriod  string `json:"submit_period" mapstructure:"submit_period"`
	StatsSchedule string `json:"stats_schedule" mapstructure:"stats_schedule"` // cron expression
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Sequencer: SequencerConfig{
			Strategy: "staging",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9157",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		Workload: WorkloadConfig{
			Keys:          16,
			TaskDuration:  "5ms",
			SubmitPeriod:  "10ms",
			StatsSchedule: "@every 30s",
		},
	}
}

// String returns the config as indented JSON
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("config (marshal error: %v)", err)
	}
	return string(data)
}
