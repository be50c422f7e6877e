package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angas/nordpool-go/config"
	"github.com/angas/nordpool-go/database"
	"github.com/angas/nordpool-go/dates"
	"github.com/robfig/cron/v3"
)

const maintenanceSchedule = "30 2 * * *"

type scheduled struct {
	name       string
	runAt      string
	runOnStart bool
	fn         func()
}

type Tasks struct {
	cron            *cron.Cron
	logger          *slog.Logger
	scheduled       []scheduled
	FetchTasks      map[string]func()
	MaintenanceTask func()
}

// NewTasks prepares one fetch task per configured job plus the nightly
// maintenance. Nothing runs until Run is called. publisher may be nil.
// Schedules are read in market time.
func NewTasks(
	db *database.Database,
	client Querier,
	publisher Publisher,
	cnfg *config.AppConfig,
) (*Tasks, error) {
	logger := slog.Default().With("module", "tasks")

	var archive Archive
	var maintenance func()
	if db != nil {
		archive = db
		maintenance = NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg)
	}

	return newTasks(logger, cnfg.Jobs, client, archive, publisher, maintenance)
}

func newTasks(
	logger *slog.Logger,
	jobs []config.AppConfigJob,
	client Querier,
	archive Archive,
	publisher Publisher,
	maintenance func(),
) (*Tasks, error) {
	t := &Tasks{
		cron:            cron.New(cron.WithLocation(dates.MarketLocation())),
		logger:          logger,
		FetchTasks:      make(map[string]func(), len(jobs)),
		MaintenanceTask: maintenance,
	}

	for _, job := range jobs {
		name := job.GetName()
		if _, exists := t.FetchTasks[name]; exists {
			return nil, fmt.Errorf("duplicate job name %q", name)
		}
		if _, _, err := BuildArgs(job, time.Now()); err != nil {
			return nil, err
		}
		if _, err := cron.ParseStandard(job.RunAt); err != nil {
			return nil, fmt.Errorf("job %s: invalid run_at %q: %w", name, job.RunAt, err)
		}

		fn := NewFetchTask(logger.With(slog.String("task", name)), NewFetchJob(job, client, archive, publisher))
		t.FetchTasks[name] = fn
		t.scheduled = append(t.scheduled, scheduled{name: name, runAt: job.RunAt, runOnStart: job.RunOnStart, fn: fn})
	}

	if maintenance != nil {
		t.scheduled = append(t.scheduled, scheduled{name: "maintenance", runAt: maintenanceSchedule, fn: maintenance})
	}

	return t, nil
}

func (t *Tasks) Run() error {
	for _, s := range t.scheduled {
		if _, err := t.cron.AddFunc(s.runAt, s.fn); err != nil {
			return fmt.Errorf("scheduling %s: %w", s.name, err)
		}
		t.logger.Debug("task scheduled", slog.String("task", s.name), slog.String("runAt", s.runAt))
	}

	for _, s := range t.scheduled {
		if s.runOnStart {
			t.logger.Info("running task on start", slog.String("task", s.name))
			s.fn()
		}
	}

	t.cron.Start()
	return nil
}

// Stop stops the scheduler, the returned context is done when running tasks have completed.
func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}

func (t *Tasks) Location() *time.Location {
	return t.cron.Location()
}

func (t *Tasks) Names() []string {
	names := make([]string, len(t.scheduled))
	for i, s := range t.scheduled {
		names[i] = s.name
	}
	return names
}
