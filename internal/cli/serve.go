package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harun/sequent/internal/config"
	"github.com/harun/sequent/internal/logger"
	"github.com/harun/sequent/internal/observability"
	"github.com/harun/sequent/pkg/sequencer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a continuous workload with metrics and stats reporting",
	Long: `Run the sequencer under a continuous synthetic workload, expose
Prometheus metrics over HTTP, and log lane statistics on a cron schedule.
Intended for soak testing and observing sweep behavior over time.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logCfg := logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	}
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	lg, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer lg.Close()

	strategy, err := parseStrategy(cfg.Sequencer.Strategy)
	if err != nil {
		return err
	}
	opts := []sequencer.Option{
		sequencer.WithStrategy(strategy),
		sequencer.WithPoolSize(cfg.Sequencer.PoolSize),
	}
	if cfg.Sequencer.MaxConcurrency > 0 {
		opts = append(opts, sequencer.WithMaxConcurrency(cfg.Sequencer.MaxConcurrency))
	}
	if cfg.Sequencer.SerializedSubmission {
		opts = append(opts, sequencer.WithSerializedSubmission(cfg.Sequencer.FairSubmission))
	}
	factory := sequencer.New(opts...)
	defer factory.Close()

	// Metrics endpoint
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("Metrics endpoint listening")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Metrics endpoint failed")
			}
		}()
	}

	// Scheduled stats reporting
	reporter := cron.New()
	if _, err := reporter.AddFunc(cfg.Workload.StatsSchedule, func() {
		log.Info().
			Int("activeLanes", factory.ActiveLanes()).
			Str("strategy", cfg.Sequencer.Strategy).
			Msg("Sequencer stats")
	}); err != nil {
		return fmt.Errorf("failed to schedule stats reporting: %w", err)
	}
	reporter.Start()
	defer reporter.Stop()

	// Hot-reload the workload shape on config change. Sequencer options are
	// fixed at construction and require a restart.
	workload := make(chan config.WorkloadConfig, 1)
	if err := loader.Watch(func(next *config.Config) {
		select {
		case workload <- next.Workload:
		default:
		}
	}); err != nil {
		log.Debug().Err(err).Msg("Config watch disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("strategy", cfg.Sequencer.Strategy).
		Int("keys", cfg.Workload.Keys).
		Msg("Workload started")
	runWorkload(ctx, factory, cfg.Workload, workload)

	log.Info().Msg("Shutting down")
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// runWorkload submits tasks round-robin across a rotating key set until ctx
// is cancelled, picking up workload changes between submissions.
func runWorkload(ctx context.Context, factory *sequencer.Factory, w config.WorkloadConfig, updates <-chan config.WorkloadConfig) {
	keys := makeKeys(w.Keys)
	taskDuration, _ := time.ParseDuration(w.TaskDuration)
	submitPeriod, _ := time.ParseDuration(w.SubmitPeriod)

	ticker := time.NewTicker(submitPeriod)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case next := <-updates:
			if next.Keys != len(keys) {
				keys = makeKeys(next.Keys)
			}
			if d, err := time.ParseDuration(next.TaskDuration); err == nil {
				taskDuration = d
			}
			if d, err := time.ParseDuration(next.SubmitPeriod); err == nil {
				ticker.Reset(d)
			}
		case <-ticker.C:
			exec := factory.Executor(keys[i%len(keys)])
			if err := exec.Execute(ctx, func(ctx context.Context) (any, error) {
				time.Sleep(taskDuration)
				return nil, nil
			}); err != nil {
				log.Warn().Err(err).Msg("Workload submission failed")
			}
		}
	}
}

func makeKeys(n int) []uuid.UUID {
	keys := make([]uuid.UUID, n)
	for i := range keys {
		keys[i] = uuid.New()
	}
	return keys
}
