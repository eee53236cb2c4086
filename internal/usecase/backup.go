package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

// ErrRunInProgress is returned when Sync is called while a previous run of
// the same Backup is still working in the shared directory.
var ErrRunInProgress = errors.New("a backup run is already in progress")

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type Cleaner interface {
	RemoveRecursive(path string) error
}

// StepError names the pipeline step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

type Backup struct {
	db       domain.Dumper
	archiver domain.Archiver
	storage  domain.Storage
	cleaner  Cleaner
	logger   Logger
	workDir  string
	now      func() time.Time

	running sync.Mutex
}

func NewBackup(
	db domain.Dumper,
	archiver domain.Archiver,
	storage domain.Storage,
	cleaner Cleaner,
	logger Logger,
	workDir string,
) *Backup {
	return &Backup{
		db:       db,
		archiver: archiver,
		storage:  storage,
		cleaner:  cleaner,
		logger:   logger,
		workDir:  workDir,
		now:      time.Now,
	}
}

// Sync performs one complete run and returns its error, if any.
func (uc *Backup) Sync(ctx context.Context) error {
	return uc.Run(ctx).Err
}

// Run dumps, compresses and uploads the database, then removes the local
// artifacts. Artifacts are only removed after a successful upload; a failed
// run leaves them for inspection and the next run clears them first.
func (uc *Backup) Run(ctx context.Context) domain.RunOutcome {
	start := uc.now()
	dbName := uc.db.GetName()
	outcome := domain.RunOutcome{Database: dbName, StartedAt: start}

	if !uc.running.TryLock() {
		uc.logger.Warnf("[%s] Previous backup still running, skipping", dbName)
		outcome.Err = ErrRunInProgress
		return outcome
	}
	defer uc.running.Unlock()

	layout := domain.NewLayout(uc.workDir, dbName, domain.ArchiveName(dbName, start))
	outcome.Archive = layout.ArchiveName

	uc.logger.Infof("[%s] Starting backup...", dbName)
	outcome.Err = uc.execute(ctx, layout)
	outcome.Duration = uc.now().Sub(start)

	if outcome.Err != nil {
		uc.logger.Errorf("[%s] Backup failed: %v", dbName, outcome.Err)
	} else {
		uc.logger.Infof("[%s] Backup completed in %s: %s",
			dbName, outcome.Duration.Round(time.Second), layout.ArchiveName)
	}

	return outcome
}

func (uc *Backup) execute(ctx context.Context, layout domain.Layout) error {
	if err := domain.ValidateDatabaseName(layout.DumpName); err != nil {
		return &StepError{Step: "prepare working directory", Err: err}
	}
	if err := os.MkdirAll(layout.Root, 0755); err != nil {
		return &StepError{Step: "prepare working directory", Err: err}
	}

	for _, s := range uc.steps(layout) {
		if err := s.run(ctx); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
	}

	return nil
}

func (uc *Backup) steps(layout domain.Layout) []step {
	return []step{
		{"remove stale dump", func(context.Context) error {
			return uc.cleaner.RemoveRecursive(layout.DumpDir)
		}},
		{"remove stale archive", func(context.Context) error {
			return uc.cleaner.RemoveRecursive(layout.ArchivePath)
		}},
		{"dump", func(ctx context.Context) error {
			return uc.db.Dump(ctx, layout.Root)
		}},
		{"compress", func(ctx context.Context) error {
			return uc.archiver.Compress(ctx, layout.Root, layout.DumpName, layout.ArchiveName)
		}},
		{"upload", func(ctx context.Context) error {
			return uc.storage.Upload(ctx, layout.ArchivePath, layout.ArchiveName)
		}},
		{"remove dump", func(context.Context) error {
			return uc.cleaner.RemoveRecursive(layout.DumpDir)
		}},
		{"remove archive", func(context.Context) error {
			return uc.cleaner.RemoveRecursive(layout.ArchivePath)
		}},
	}
}
