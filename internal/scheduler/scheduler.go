// Package scheduler runs the assistant's background tasks on cron
// schedules using gocron.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// TaskFunc is the signature for all scheduled tasks. Tasks should respect
// the context for cancellation.
type TaskFunc func(ctx context.Context) error

// Scheduler manages scheduled tasks using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	schedules map[string]string
	taskMap   map[string]TaskFunc
	mu        sync.Mutex
	running   bool
}

// New creates a scheduler. schedules maps task names to cron expressions;
// tasks with no schedule entry are not run.
func New(logger *slog.Logger, schedules map[string]string, taskMap map[string]TaskFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		schedules: schedules,
		taskMap:   taskMap,
	}, nil
}

// Start registers all schedulable tasks and starts the scheduler ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduled := 0
	for name, taskFunc := range s.taskMap {
		cronExpr, ok := s.schedules[name]
		if !ok || cronExpr == "" {
			s.logger.Warn("Task has no schedule configured, skipping", "task_name", name)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(cronExpr, false),
			gocron.NewTask(s.wrap(name, taskFunc), context.Background()),
			gocron.WithName(name),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule task %q: %w", name, err)
		}

		s.logger.Info("Scheduled task", "task_name", name, "schedule", cronExpr)
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)
	return nil
}

// wrap adds start/finish logging and error reporting around a task.
func (s *Scheduler) wrap(name string, taskFunc TaskFunc) func(ctx context.Context) {
	return func(ctx context.Context) {
		s.logger.InfoContext(ctx, "Running scheduled task", "task_name", name)
		startTime := time.Now()

		if err := taskFunc(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Scheduled task failed", "task_name", name, "error", err)
		}

		s.logger.InfoContext(ctx, "Finished scheduled task",
			"task_name", name, "duration", time.Since(startTime))
	}
}

// Stop shuts the scheduler down, waiting for running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	s.running = false
	if err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}

	s.logger.Info("Scheduler stopped gracefully")
	return nil
}
