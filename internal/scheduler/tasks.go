package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"assistant-api/internal/ai"
	"assistant-api/internal/config"
	"assistant-api/internal/database"
)

// TaskDeps contains the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	AI     ai.Client
	Config *config.Config
}

// TaskDBMaintenance is the registry key for the database maintenance task.
const TaskDBMaintenance = "db_maintenance"

// RegisterAllTasks builds the map of all scheduled task functions keyed by
// task name. The keys match the scheduler section of the configuration.
func RegisterAllTasks(deps TaskDeps) map[string]TaskFunc {
	tasks := map[string]TaskFunc{
		TaskDBMaintenance: newDBMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

// newDBMaintenanceTask prunes conversation history beyond the configured
// cap and compacts the database file.
func newDBMaintenanceTask(deps TaskDeps) TaskFunc {
	log := deps.Logger.With("task", TaskDBMaintenance)

	return func(ctx context.Context) error {
		taskCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		pruned, err := deps.Store.PruneConversations(taskCtx, deps.Config.Memory.MaxConversations)
		if err != nil {
			return fmt.Errorf("failed to prune conversations: %w", err)
		}
		if pruned > 0 {
			log.InfoContext(taskCtx, "Pruned conversations beyond history cap", "pruned", pruned)
		}

		if err := deps.Store.RunMaintenance(taskCtx); err != nil {
			return fmt.Errorf("database maintenance failed: %w", err)
		}

		return nil
	}
}
