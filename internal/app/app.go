package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/semmidev/mongo-s3-backup/internal/adapter/compressor"
	"github.com/semmidev/mongo-s3-backup/internal/adapter/database"
	"github.com/semmidev/mongo-s3-backup/internal/adapter/filesystem"
	"github.com/semmidev/mongo-s3-backup/internal/adapter/notifier"
	"github.com/semmidev/mongo-s3-backup/internal/adapter/storage"
	"github.com/semmidev/mongo-s3-backup/internal/config"
	"github.com/semmidev/mongo-s3-backup/internal/domain"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/logger"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/process"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/scheduler"
	"github.com/semmidev/mongo-s3-backup/internal/usecase"
)

// RetentionSchedule runs remote pruning daily at 03:00.
const RetentionSchedule = "0 3 * * *"

type App struct {
	config    *config.Config
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	backupUC  *usecase.Backup
	cleanupUC *usecase.Cleanup
	notifier  domain.Notifier
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return newWithLogger(cfg, log)
}

func newWithLogger(cfg *config.Config, log *logger.Logger) (*App, error) {
	log.Infof("Starting %s", cfg.App.Name)

	stor, err := initializeStorage(cfg, log)
	if err != nil {
		return nil, err
	}

	runner := process.NewExecRunner()
	db := database.NewMongoDB(&cfg.MongoDB, cfg.Tools.MongoDump, runner, log)
	archiver := compressor.NewTar(cfg.Tools.Tar, runner, log)

	backupUC := usecase.NewBackup(
		db,
		archiver,
		stor,
		filesystem.NewCleaner(log),
		log,
		cfg.WorkDir(),
	)

	cleanupUC := usecase.NewCleanup(stor, log, cfg.S3.RetentionDays)

	var n domain.Notifier
	if cfg.Notify.Telegram.Enabled {
		tg, err := notifier.NewTelegram(&cfg.Notify.Telegram)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Telegram: %w", err)
		}
		n = tg
		log.Infof("✓ Telegram notifications enabled")
	}

	loc, err := cfg.Cron.Location()
	if err != nil {
		return nil, err
	}

	return &App{
		config:    cfg,
		logger:    log,
		scheduler: scheduler.New(loc, log.SugaredLogger),
		backupUC:  backupUC,
		cleanupUC: cleanupUC,
		notifier:  n,
	}, nil
}

func initializeStorage(cfg *config.Config, log *logger.Logger) (domain.Storage, error) {
	switch cfg.S3.Driver {
	case config.DriverAWS:
		s, err := storage.NewS3(&cfg.S3, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3: %w", err)
		}
		log.Infof("✓ AWS S3 upload enabled (bucket: %s)", cfg.S3.Bucket)
		return s, nil

	case config.DriverMinio:
		s, err := storage.NewMinio(&cfg.S3, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MinIO: %w", err)
		}
		log.Infof("✓ MinIO upload enabled (endpoint: %s, bucket: %s)", cfg.S3.Endpoint, cfg.S3.Bucket)
		return s, nil

	case config.DriverLocal:
		path := filepath.Join(cfg.S3.Bucket, cfg.S3.Destination)
		s, err := storage.NewLocal(path, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		log.Infof("✓ Local upload enabled (path: %s)", path)
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.S3.Driver)
	}
}

// RunOnce performs a single backup and returns its error.
func (a *App) RunOnce(ctx context.Context) error {
	return a.runAndReport(ctx)
}

func (a *App) runAndReport(ctx context.Context) error {
	outcome := a.backupUC.Run(ctx)

	if a.notifier != nil {
		if err := a.notifier.Notify(ctx, outcome); err != nil {
			a.logger.Warnf("Failed to send notification: %v", err)
		}
	}

	return outcome.Err
}

// Run schedules the backup and, when retention is configured, the daily
// pruning job. It blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	expr, err := a.config.Cron.Expression()
	if err != nil {
		return err
	}

	if err := a.scheduler.AddJob(expr, func(ctx context.Context) error {
		a.logger.Infof("=== Triggered scheduled backup for %s ===", a.config.MongoDB.Database)
		return a.runAndReport(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule backup for %s: %w", a.config.MongoDB.Database, err)
	}

	next, err := a.scheduler.Next(expr)
	if err != nil {
		return err
	}
	a.logger.Infof("Scheduled backup for %s: %q (%s), next run at %s",
		a.config.MongoDB.Database, expr, a.config.Cron.Timezone, next.Format("2006-01-02 15:04:05 MST"))

	if a.config.S3.RetentionDays > 0 {
		a.logger.Infof("Scheduling cleanup: %s", RetentionSchedule)
		if err := a.scheduler.AddJob(RetentionSchedule, a.cleanupUC.Execute); err != nil {
			return fmt.Errorf("failed to schedule cleanup: %w", err)
		}
	}

	a.scheduler.Start()
	a.logger.Infof("Scheduler started successfully")

	<-ctx.Done()
	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	a.scheduler.Stop()
	a.logger.Close()
}
