// Package schedule runs aggregation cycles and retention sweeps in the
// background.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/IshaanNene/NewsGoat/internal/aggregate"
	"github.com/IshaanNene/NewsGoat/internal/config"
)

// Runner is the work the scheduler triggers.
type Runner interface {
	RunCycle(ctx context.Context, maxPerSource int) (*aggregate.CycleResult, error)
	Sweep(ctx context.Context, retention time.Duration) (int64, error)
}

// Scheduler triggers a cycle every interval and a retention sweep on its own
// cron schedule. Every tick runs with its own context and result values, so
// overlapping ticks share nothing but the store.
type Scheduler struct {
	runner       Runner
	cfg          config.ScheduleConfig
	maxPerSource int
	cron         *cron.Cron

	cycleID cron.EntryID
	sweepID cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cycles atomic.Int64
	logger *slog.Logger
}

// New registers the cycle and retention jobs. Retention is skipped when
// RetentionDays is zero.
func New(runner Runner, cfg config.ScheduleConfig, maxPerSource int, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("schedule: interval must be > 0, got %s", cfg.Interval)
	}

	logger = logger.With("component", "scheduler")
	s := &Scheduler{
		runner:       runner,
		cfg:          cfg,
		maxPerSource: maxPerSource,
		logger:       logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cl := cronLogger{logger}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))

	var err error
	if s.cycleID, err = s.cron.AddFunc("@every "+cfg.Interval.String(), s.cycle); err != nil {
		return nil, fmt.Errorf("schedule cycle: %w", err)
	}

	if cfg.RetentionDays > 0 {
		spec := cfg.RetentionEvery
		if spec == "" {
			spec = "@daily"
		}
		if s.sweepID, err = s.cron.AddFunc(spec, s.sweep); err != nil {
			return nil, fmt.Errorf("schedule retention %q: %w", spec, err)
		}
	}
	return s, nil
}

// Start begins ticking. With RunOnStart a first cycle runs immediately.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler starting",
		"interval", s.cfg.Interval,
		"retention_days", s.cfg.RetentionDays,
		"run_on_start", s.cfg.RunOnStart,
	)
	if s.cfg.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("initial cycle panicked", "panic", r)
				}
			}()
			s.cycle()
		}()
	}
	s.cron.Start()
}

// Stop cancels running ticks and waits for them to return.
func (s *Scheduler) Stop() {
	s.logger.Info("scheduler stopping")
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped", "cycles", s.cycles.Load())
}

// Cycles returns how many cycles were triggered.
func (s *Scheduler) Cycles() int64 { return s.cycles.Load() }

// Next returns the next activation time of each job.
func (s *Scheduler) Next() []time.Time {
	entries := s.cron.Entries()
	out := make([]time.Time, len(entries))
	for i, e := range entries {
		out[i] = e.Next
	}
	return out
}

func (s *Scheduler) cycle() {
	n := s.cycles.Add(1)
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	res, err := s.runner.RunCycle(ctx, s.maxPerSource)
	if err != nil {
		s.logger.Error("scheduled cycle failed", "tick", n, "error", err)
		return
	}
	s.logger.Info("scheduled cycle done", "tick", n, "processed", res.Processed, "new", res.New, "failed_sources", res.Failed())
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	retention := time.Duration(s.cfg.RetentionDays) * 24 * time.Hour
	n, err := s.runner.Sweep(ctx, retention)
	if err != nil {
		s.logger.Error("retention sweep failed", "error", err)
		return
	}
	s.logger.Info("retention sweep done", "deactivated", n)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
