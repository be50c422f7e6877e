package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/angas/nordpool-go/config"
)

type maintainer interface {
	Backup(ctx context.Context) (string, error)
	PurgeBackups(ctx context.Context, retentionDays int) (int, error)
	PurgeLog(ctx context.Context, maxLogEntries int) error
	PurgeResponses(ctx context.Context, retentionDays int) error
}

func NewMaintenanceTask(logger *slog.Logger, db maintainer, cnfg *config.AppConfig) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		if _, err := db.Backup(ctx); err != nil {
			logger.Error("database backup error", slog.Any("error", err))
		}

		if _, err := db.PurgeBackups(ctx, cnfg.Database.GetBackupRetentionDays()); err != nil {
			logger.Error("backup maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeLog(ctx, cnfg.Logging.GetDbMaxEntries()); err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeResponses(ctx, cnfg.Database.GetResponseRetentionDays()); err != nil {
			logger.Error("response maintenance error", slog.Any("error", err))
		}

		logger.Info("maintenance task done")
	}
}
