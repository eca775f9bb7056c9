package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the whole config and returns the first problem found
func (v *Validator) Validate(cfg *Config) error {
	if err := v.ValidateStrategy(cfg.Sequencer.Strategy); err != nil {
		return err
	}
	if cfg.Sequencer.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be zero (unbounded) or positive, got %d", cfg.Sequencer.MaxConcurrency)
	}
	if cfg.Sequencer.PoolSize < 0 {
		return fmt.Errorf("pool_size must be zero (default) or positive, got %d", cfg.Sequencer.PoolSize)
	}
	if err := v.ValidateWorkload(&cfg.Workload); err != nil {
		return err
	}
	return nil
}

// ValidateStrategy checks the lane strategy name
func (v *Validator) ValidateStrategy(strategy string) error {
	switch strategy {
	case "staging", "pooled":
		return nil
	}
	return fmt.Errorf("unknown strategy %q (expected staging or pooled)", strategy)
}

// ValidateWorkload checks the serve command's workload settings
func (v *Validator) ValidateWorkload(w *WorkloadConfig) error {
	if w.Keys <= 0 {
		return fmt.Errorf("workload keys must be positive, got %d", w.Keys)
	}
	if _, err := time.ParseDuration(w.TaskDuration); err != nil {
		return fmt.Errorf("invalid workload task_duration: %w", err)
	}
	if _, err := time.ParseDuration(w.SubmitPeriod); err != nil {
		return fmt.Errorf("invalid workload submit_period: %w", err)
	}
	if _, err := cron.ParseStandard(w.StatsSchedule); err != nil {
		return fmt.Errorf("invalid workload stats_schedule: %w", err)
	}
	return nil
}
