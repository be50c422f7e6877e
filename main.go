package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/angas/nordpool-go/config"
	"github.com/angas/nordpool-go/database"
	"github.com/angas/nordpool-go/logging"
	"github.com/angas/nordpool-go/mqtt"
	"github.com/angas/nordpool-go/nordpool"
	"github.com/angas/nordpool-go/task"
	"github.com/fsnotify/fsnotify"
	"github.com/lmittmann/tint"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	changes := newPendingConfig()
	cnfg, err := config.Watch(*configPath, func(c *config.AppConfig, e fsnotify.Event, err error) {
		if err != nil {
			slog.Default().Error("config reload failed", slog.String("file", e.Name), slog.Any("error", err))
			return
		}
		changes.offer(c)
	})
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("nordpool is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.GetPath())
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	client := nordpool.New(
		nordpool.WithBaseURL(cnfg.Api.GetBaseURL()),
		nordpool.WithOutputDir(cnfg.Api.GetOutputDir()))
	logger.Info("nordpool client ready", slog.String("baseURL", client.BaseURL()), slog.String("outputDir", cnfg.Api.GetOutputDir()))

	var publisher task.Publisher
	if !cnfg.Mqtt.Enabled() {
		logger.Info("no mqtt host configured, skipping publishing")
	} else if isDevMode() {
		logger.Info("dev mode, skipping mqtt connection")
	} else {
		p := mqtt.New(
			cnfg.Mqtt.Host,
			cnfg.Mqtt.GetPort(),
			cnfg.Mqtt.GetClientId(),
			cnfg.Mqtt.Username,
			cnfg.Mqtt.Password,
			cnfg.Mqtt.GetTopicPrefix(),
			cnfg.Mqtt.Retain)
		if err := p.Connect(); err != nil {
			panic(fmt.Sprintf("mqtt connection error: %v", err))
		}
		defer p.Disconnect()
		publisher = p
	}

	scheduler := &scheduler{logger: logger.With("module", "main")}
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		if err := scheduler.start(db, client, publisher, cnfg); err != nil {
			panic(fmt.Sprintf("failed to schedule tasks: %v", err))
		}
		defer scheduler.stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
			return
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		case next := <-changes.C():
			if isDevMode() {
				continue
			}
			logger.Info("config changed, rescheduling jobs", slog.Int("jobs", len(next.Jobs)))
			if err := scheduler.start(db, client, publisher, next); err != nil {
				logger.Error("rescheduling failed, keeping current jobs", slog.Any("error", err))
			}
		}
	}
}

// pendingConfig holds the newest config not yet applied. Offering a config
// replaces one still waiting.
type pendingConfig struct {
	ch chan *config.AppConfig
}

func newPendingConfig() *pendingConfig {
	return &pendingConfig{ch: make(chan *config.AppConfig, 1)}
}

func (p *pendingConfig) offer(c *config.AppConfig) {
	for {
		select {
		case p.ch <- c:
			return
		default:
		}
		select {
		case <-p.ch:
			slog.Default().Debug("pending config replaced by a newer one")
		default:
		}
	}
}

func (p *pendingConfig) C() <-chan *config.AppConfig {
	return p.ch
}

// scheduler swaps the running tasks when the config file changes.
type scheduler struct {
	mu     sync.Mutex
	logger *slog.Logger
	tasks  *task.Tasks
}

func (s *scheduler) start(db *database.Database, client task.Querier, publisher task.Publisher, cnfg *config.AppConfig) error {
	tasks, err := task.NewTasks(db, client, publisher, cnfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tasks != nil {
		<-s.tasks.Stop().Done()
	}
	if err := tasks.Run(); err != nil {
		return err
	}
	s.tasks = tasks
	s.logger.Info("tasks scheduled", slog.Any("tasks", tasks.Names()), slog.String("timezone", tasks.Location().String()))
	return nil
}

func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks != nil {
		<-s.tasks.Stop().Done()
		s.tasks = nil
	}
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	if syncer, ok := logger.Handler().(interface{ Sync() error }); ok {
		if syncErr := syncer.Sync(); syncErr != nil {
			logger.Error("failed to flush logger", slog.Any("error", syncErr))
		}
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
