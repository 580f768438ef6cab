package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SpoolSweeper removes spooled artifacts older than a retention period
type SpoolSweeper interface {
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// SpoolCleanupTask deletes spooled print files past their retention
type SpoolCleanupTask struct {
	spool     SpoolSweeper
	retention time.Duration
	logger    *zap.Logger
}

// NewSpoolCleanupTask creates the cleanup task
func NewSpoolCleanupTask(spool SpoolSweeper, retention time.Duration, logger *zap.Logger) *SpoolCleanupTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpoolCleanupTask{spool: spool, retention: retention, logger: logger}
}

// Name implements Task
func (t *SpoolCleanupTask) Name() string { return "spool-cleanup" }

// Run implements Task
func (t *SpoolCleanupTask) Run(ctx context.Context) error {
	removed, err := t.spool.CleanupOlderThan(ctx, t.retention)
	if err != nil {
		return err
	}
	if removed > 0 {
		t.logger.Info("Spool cleanup removed expired artifacts",
			zap.Int("removed", removed),
			zap.Duration("retention", t.retention),
		)
	}
	return nil
}
