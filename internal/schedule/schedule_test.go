package schedule

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/NewsGoat/internal/aggregate"
	"github.com/IshaanNene/NewsGoat/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeRunner struct {
	mu        sync.Mutex
	contexts  []context.Context
	results   []*aggregate.CycleResult
	sweeps    []time.Duration
	cycleErr  error
	panicking bool
	block     bool
	started   chan struct{}
}

func (f *fakeRunner) RunCycle(ctx context.Context, maxPerSource int) (*aggregate.CycleResult, error) {
	if f.panicking {
		panic("cycle blew up")
	}
	if f.block {
		close(f.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	res := &aggregate.CycleResult{Processed: maxPerSource}
	f.mu.Lock()
	f.contexts = append(f.contexts, ctx)
	f.results = append(f.results, res)
	f.mu.Unlock()
	return res, f.cycleErr
}

func (f *fakeRunner) Sweep(_ context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps = append(f.sweeps, retention)
	return 2, nil
}

func scheduleConfig() config.ScheduleConfig {
	return config.ScheduleConfig{Interval: time.Hour, RetentionDays: 30, RetentionEvery: "@daily"}
}

// --- Scheduler Tests ---

func TestTicksAreIsolated(t *testing.T) {
	r := &fakeRunner{}
	s, err := New(r, scheduleConfig(), 7, testLogger)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.cycle()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), s.Cycles())
	require.Len(t, r.contexts, 5)
	seenCtx := map[context.Context]bool{}
	seenRes := map[*aggregate.CycleResult]bool{}
	for i := range r.contexts {
		seenCtx[r.contexts[i]] = true
		seenRes[r.results[i]] = true
		assert.Error(t, r.contexts[i].Err(), "tick context must end with its tick")
		assert.Equal(t, 7, r.results[i].Processed)
	}
	assert.Len(t, seenCtx, 5)
	assert.Len(t, seenRes, 5)
}

func TestFailedCycleDoesNotStopScheduler(t *testing.T) {
	r := &fakeRunner{cycleErr: errors.New("store down")}
	s, err := New(r, scheduleConfig(), 5, testLogger)
	require.NoError(t, err)

	s.cycle()
	s.cycle()
	assert.Equal(t, int64(2), s.Cycles())
}

func TestPanickingJobIsRecovered(t *testing.T) {
	r := &fakeRunner{panicking: true}
	s, err := New(r, scheduleConfig(), 5, testLogger)
	require.NoError(t, err)

	job := s.cron.Entry(s.cycleID).WrappedJob
	require.NotNil(t, job)
	assert.NotPanics(t, job.Run)
}

func TestSweepUsesRetentionDays(t *testing.T) {
	r := &fakeRunner{}
	s, err := New(r, scheduleConfig(), 5, testLogger)
	require.NoError(t, err)

	s.cron.Entry(s.sweepID).WrappedJob.Run()
	assert.Equal(t, []time.Duration{30 * 24 * time.Hour}, r.sweeps)
	assert.Len(t, s.Next(), 2)
}

func TestRetentionDisabled(t *testing.T) {
	cfg := scheduleConfig()
	cfg.RetentionDays = 0
	s, err := New(&fakeRunner{}, cfg, 5, testLogger)
	require.NoError(t, err)
	assert.Len(t, s.Next(), 1)
}

func TestNewRejectsBadSpecs(t *testing.T) {
	_, err := New(&fakeRunner{}, config.ScheduleConfig{}, 5, testLogger)
	assert.Error(t, err)

	cfg := scheduleConfig()
	cfg.RetentionEvery = "every tuesday"
	_, err = New(&fakeRunner{}, cfg, 5, testLogger)
	assert.Error(t, err)
}

func TestStopCancelsRunningTick(t *testing.T) {
	r := &fakeRunner{block: true, started: make(chan struct{})}
	cfg := scheduleConfig()
	cfg.RunOnStart = true
	s, err := New(r, cfg, 5, testLogger)
	require.NoError(t, err)

	s.Start()
	select {
	case <-r.started:
	case <-time.After(5 * time.Second):
		t.Fatal("initial cycle did not start")
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Equal(t, int64(1), s.Cycles())
}
