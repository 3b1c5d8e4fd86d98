// Package schedule runs background jobs on cron expressions, and provides
// the schema maintenance job that prepares the storage of every generated
// entity.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// Scheduler wraps a cron runner. Jobs that panic are recovered and a job
// still running when its next tick arrives is skipped.
type Scheduler struct {
	log  *zap.Logger
	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
	running bool
}

// New returns a stopped scheduler using standard five-field cron specs and
// descriptors such as "@every 1h".
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("schedule")
	cl := cronLogger{log.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log: log,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// Add schedules fn under name. Adding a name twice replaces the first job.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, s.wrap(name, fn))
	if err != nil {
		return errors.Wrapf(err, "schedule: job %q spec %q", name, spec)
	}
	if prev, ok := s.entries[name]; ok {
		s.cron.Remove(prev)
	}
	s.entries[name] = id
	s.log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Remove unschedules name. Unknown names are ignored.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Next returns when name runs next. It is zero while the scheduler is stopped.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.ctx.Err() != nil {
		return
	}
	s.running = true
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.entries)))
}

// Stop cancels the context of running jobs and waits for them, or for ctx.
// A stopped scheduler is not restarted.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "schedule: waiting for running jobs")
	}
}

func (s *Scheduler) wrap(name string, fn JobFunc) func() {
	return func() {
		start := time.Now()
		if err := fn(s.ctx); err != nil {
			s.log.Error("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Debug("job finished", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	}
}

// cronLogger routes the runner's own messages to zap.
type cronLogger struct{ log *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
