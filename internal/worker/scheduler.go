// Package worker runs the periodic background tasks of the admin service:
// job statistics pushes, stuck job detection and resource sampling.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
)

// Task is one unit of periodic work.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs registered tasks on cron schedules. A run that is still
// in progress when its next tick fires is skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	timeout time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
	running bool
	stopped bool
}

// NewScheduler creates a scheduler. Each run gets at most timeout.
func NewScheduler(timeout time.Duration, log *logger.Logger) *Scheduler {
	log = log.Component("scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log}))),
		logger:  log,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// Every schedules task at a fixed interval.
func (s *Scheduler) Every(interval time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval for %s: %s", task.Name(), interval)
	}
	return s.Add(fmt.Sprintf("@every %s", interval), task)
}

// Add schedules task with a standard cron spec or descriptor.
func (s *Scheduler) Add(spec string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[task.Name()]; ok {
		return fmt.Errorf("task %s is already scheduled", task.Name())
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(task) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, task.Name(), err)
	}
	s.entries[task.Name()] = id

	s.logger.WithFields(map[string]interface{}{
		"task":     task.Name(),
		"schedule": spec,
	}).Info("Task scheduled")
	return nil
}

func (s *Scheduler) run(task Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		s.logger.With("task", task.Name()).ErrorWithErr(err, "Task failed")
		return
	}
	s.logger.WithFields(map[string]interface{}{
		"task":     task.Name(),
		"duration": time.Since(start).String(),
	}).Debug("Task finished")
}

// Start begins dispatching. Calling it again is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.stopped {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Infof("Scheduler started with %d task(s)", len(s.entries))
}

// Stop cancels in-flight runs and waits for them to return, or for ctx
// to expire. Only the first call has any effect.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.running = false
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the scheduler is dispatching tasks.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tasks returns the names of the scheduled tasks.
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	l *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.WithFields(pairs(keysAndValues)).ErrorWithErr(err, msg)
}

func pairs(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
