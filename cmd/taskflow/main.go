package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskflow/internal/logging"
	"taskflow/internal/sched"
)

// options holds the flag values of one root command.
type options struct {
	config    string
	capacity  int
	tasks     int
	maxCost   time.Duration
	timeout   time.Duration
	seed      int64
	logLevel  string
	logFormat string
	eventCSV  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd, _ := newRootCmdWithOptions()
	return cmd
}

func newRootCmdWithOptions() (*cobra.Command, *options) {
	opts := &options{}
	root := &cobra.Command{
		Use:          "taskflow",
		Short:        "Run a batch of simulated tasks through the priority scheduler",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := root.Flags()
	f.StringVar(&opts.config, "config", "config.yml", "Path to the YAML config file")
	f.IntVar(&opts.capacity, "capacity", 0, "Number of concurrent slots (overrides config)")
	f.IntVar(&opts.tasks, "tasks", 10, "Number of random tasks to submit")
	f.DurationVar(&opts.maxCost, "max-cost", 500*time.Millisecond, "Upper bound of a task's simulated cost")
	f.DurationVar(&opts.timeout, "shutdown-timeout", 0, "Shutdown grace period (overrides config)")
	f.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "Random seed for priorities and costs")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format: console, json (overrides config)")
	f.StringVar(&opts.eventCSV, "event-csv", "", "Also write lifecycle events to this CSV file (overrides config)")
	return root, opts
}

// loadConfig is lenient for the default path and strict for one the
// user named explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (sched.Config, error) {
	if !cmd.Flags().Changed("config") {
		return sched.Load(opts.config), nil
	}
	cfg, err := sched.LoadStrict(opts.config)
	if err != nil {
		return cfg, fmt.Errorf("loading %s: %w", opts.config, err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, &cfg)

	log := logging.Build(cfg.LogLevel, cfg.LogEncoding)
	defer func() { _ = log.Sync() }()
	log.Debug("loaded config", zap.Any("config", cfg))

	var events sched.EventLogger = sched.NewZapEventLogger(log.Named("events"))
	if cfg.EventCSV != "" {
		csvLog, err := sched.OpenCSVEventLogger(cfg.EventCSV)
		if err != nil {
			return fmt.Errorf("opening event csv: %w", err)
		}
		defer csvLog.Close()
		events = sched.MultiEventLogger{events, csvLog}
	}

	s := sched.New(cfg, events)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rng := rand.New(rand.NewSource(opts.seed))
	ids := make([]sched.TaskID, 0, opts.tasks)
	for i := 0; i < opts.tasks; i++ {
		priority := rng.Intn(10)
		cost := time.Duration(rng.Int63n(int64(opts.maxCost) + 1))
		id, err := s.Schedule(priority, cost)
		if err != nil {
			return fmt.Errorf("scheduling task %d: %w", i, err)
		}
		ids = append(ids, id)
	}

	waitAll(ctx, s, ids)
	s.Shutdown(cfg.ShutdownTimeout())

	for _, id := range ids {
		if t, ok := s.Lookup(id); ok {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
	}
	return nil
}

// applyFlags overrides cfg with every flag the user set explicitly.
func applyFlags(cmd *cobra.Command, opts *options, cfg *sched.Config) {
	f := cmd.Flags()
	if f.Changed("capacity") && opts.capacity > 0 {
		cfg.Capacity = opts.capacity
	}
	if f.Changed("shutdown-timeout") && opts.timeout > 0 {
		cfg.ShutdownTimeoutMS = int(opts.timeout / time.Millisecond)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.LogEncoding = opts.logFormat
	}
	if opts.eventCSV != "" {
		cfg.EventCSV = opts.eventCSV
	}
}

// waitAll polls until every task is terminal or ctx is cancelled.
func waitAll(ctx context.Context, s *sched.Scheduler, ids []sched.TaskID) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		done := true
		for _, id := range ids {
			if t, ok := s.Lookup(id); ok && !t.Status().Terminal() {
				done = false
				break
			}
		}
		if done {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
