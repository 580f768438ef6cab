// Package scheduler runs periodic maintenance tasks such as spool cleanup
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunStatus is the outcome of the latest run of a task
type RunStatus string

const (
	RunStatusPending RunStatus = "PENDING"
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// Task is a unit of periodic work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to Task
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

// Name implements Task
func (f TaskFunc) Name() string { return f.TaskName }

// Run implements Task
func (f TaskFunc) Run(ctx context.Context) error { return f.Fn(ctx) }

// TaskState tracks the runs of one registered task
type TaskState struct {
	Name        string
	Interval    time.Duration
	Status      RunStatus
	Error       string
	Runs        int
	Failures    int
	LastStarted *time.Time
	LastEnded   *time.Time
}

// Config holds scheduler configuration
type Config struct {
	Enabled bool
	// RunTimeout bounds one run of a task
	RunTimeout time.Duration
	// RetryDelay is how soon a failed run is retried instead of waiting a full interval
	RetryDelay time.Duration
	// RunOnStart runs every task once right after Start
	RunOnStart bool
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		RunTimeout: 5 * time.Minute,
		RetryDelay: time.Minute,
	}
}

type entry struct {
	task     Task
	interval time.Duration
	state    TaskState
}

// Scheduler runs registered tasks on their own intervals, one goroutine per task.
// A task never overlaps with itself.
type Scheduler struct {
	config Config
	logger *zap.Logger

	mu        sync.Mutex
	entries   []*entry
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// New creates a scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = DefaultConfig().RunTimeout
	}
	return &Scheduler{config: config, logger: logger}
}

// Register adds a task. Tasks must be registered before Start.
func (s *Scheduler) Register(task Task, interval time.Duration) error {
	if task == nil || interval <= 0 {
		return ErrInvalidConfig
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrAlreadyRunning
	}
	for _, e := range s.entries {
		if e.task.Name() == task.Name() {
			return ErrDuplicateTask
		}
	}
	s.entries = append(s.entries, &entry{
		task:     task,
		interval: interval,
		state:    TaskState{Name: task.Name(), Interval: interval, Status: RunStatusPending},
	})
	return nil
}

// Start launches the task loops. It is a no-op when disabled or already running.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	entries := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}

	s.logger.Info("Scheduler started",
		zap.Int("tasks", len(entries)),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)
	return nil
}

// Stop cancels the task loops and waits for in-flight runs until ctx ends
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether Start has been called without a matching Stop
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// States returns a snapshot of every registered task
func (s *Scheduler) States() []TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskState, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.state
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	delay := e.interval
	if s.config.RunOnStart {
		delay = 0
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Task loop stopping", zap.String("task", e.task.Name()))
			return
		case <-timer.C:
			next := e.interval
			if err := s.runOnce(ctx, e); err != nil && s.config.RetryDelay > 0 && s.config.RetryDelay < next {
				next = s.config.RetryDelay
			}
			timer.Reset(next)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, e *entry) error {
	started := time.Now()
	s.mu.Lock()
	e.state.Status = RunStatusRunning
	e.state.LastStarted = &started
	e.state.Error = ""
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()
	err := e.task.Run(runCtx)

	ended := time.Now()
	s.mu.Lock()
	e.state.Runs++
	e.state.LastEnded = &ended
	if err != nil {
		e.state.Status = RunStatusFailed
		e.state.Error = err.Error()
		e.state.Failures++
	} else {
		e.state.Status = RunStatusSuccess
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled task failed",
			zap.String("task", e.task.Name()),
			zap.Duration("duration", ended.Sub(started)),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("Scheduled task completed",
		zap.String("task", e.task.Name()),
		zap.Duration("duration", ended.Sub(started)),
	)
	return nil
}
