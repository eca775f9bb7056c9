package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harun/sequent/internal/logger"
	"github.com/harun/sequent/pkg/sequencer"
)

var (
	benchTasks        int
	benchKeys         int
	benchStrategy     string
	benchConcurrency  int
	benchTaskDuration time.Duration
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a synthetic workload through the sequencer",
	Long: `Submit a fixed number of tasks spread across a set of sequence keys,
wait for completion, and report wall time plus lane drain.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchTasks, "tasks", 1000, "total tasks to submit")
	benchCmd.Flags().IntVar(&benchKeys, "keys", 100, "distinct sequence keys")
	benchCmd.Flags().StringVar(&benchStrategy, "strategy", "staging", "lane strategy (staging, pooled)")
	benchCmd.Flags().IntVar(&benchConcurrency, "max-concurrency", 0, "max simultaneously active lanes (0 = unbounded)")
	benchCmd.Flags().DurationVar(&benchTaskDuration, "task-duration", 2*time.Millisecond, "simulated work per task")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	lg, err := logger.New(logger.Config{Level: logLevel, Console: true, Pretty: true})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer lg.Close()

	strategy, err := parseStrategy(benchStrategy)
	if err != nil {
		return err
	}
	if benchTasks <= 0 || benchKeys <= 0 {
		return fmt.Errorf("tasks and keys must be positive")
	}

	opts := []sequencer.Option{sequencer.WithStrategy(strategy)}
	if benchConcurrency > 0 {
		opts = append(opts, sequencer.WithMaxConcurrency(benchConcurrency))
	}
	factory := sequencer.New(opts...)

	keys := make([]uuid.UUID, benchKeys)
	for i := range keys {
		keys[i] = uuid.New()
	}

	ctx := context.Background()
	futures := make([]*sequencer.Future, 0, benchTasks)
	start := time.Now()
	for i := 0; i < benchTasks; i++ {
		exec := factory.Executor(keys[i%benchKeys])
		fut, err := exec.Submit(ctx, func(ctx context.Context) (any, error) {
			time.Sleep(benchTaskDuration)
			return nil, nil
		})
		if err != nil {
			factory.Close()
			return fmt.Errorf("submission failed: %w", err)
		}
		futures = append(futures, fut)
	}

	for _, fut := range futures {
		if _, err := fut.Wait(ctx); err != nil {
			factory.Close()
			return fmt.Errorf("task failed: %w", err)
		}
	}
	elapsed := time.Since(start)
	lanes := factory.ActiveLanes()
	factory.Close()

	fmt.Printf("tasks:          %d\n", benchTasks)
	fmt.Printf("keys:           %d\n", benchKeys)
	fmt.Printf("strategy:       %s\n", strategy)
	fmt.Printf("wall time:      %s\n", elapsed)
	fmt.Printf("tasks/sec:      %.0f\n", float64(benchTasks)/elapsed.Seconds())
	fmt.Printf("lanes on drain: %d\n", lanes)
	return nil
}

func parseStrategy(name string) (sequencer.Strategy, error) {
	switch name {
	case "staging":
		return sequencer.StrategyStaging, nil
	case "pooled":
		return sequencer.StrategyPooled, nil
	}
	return 0, fmt.Errorf("unknown strategy %q (expected staging or pooled)", name)
}
