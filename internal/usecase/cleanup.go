package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

// Cleanup prunes remote archives older than the retention window.
type Cleanup struct {
	storage       domain.Storage
	logger        Logger
	retentionDays int
	now           func() time.Time
}

func NewCleanup(
	storage domain.Storage,
	logger Logger,
	retentionDays int,
) *Cleanup {
	return &Cleanup{
		storage:       storage,
		logger:        logger,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Execute is the scheduled entry point. Individual delete failures are
// logged and do not fail the job; only an unreadable listing does.
func (uc *Cleanup) Execute(ctx context.Context) error {
	if uc.retentionDays <= 0 {
		return nil
	}

	uc.logger.Infof("Starting cleanup, retention: %d days", uc.retentionDays)

	deleted, err := uc.Prune(ctx)
	var listErr *listError
	if errors.As(err, &listErr) {
		uc.logger.Errorf("Cleanup failed: %v", err)
		return err
	}
	if err != nil {
		uc.logger.Errorf("Some old backups could not be deleted: %v", err)
	}

	uc.logger.Infof("Cleanup completed, deleted %d old backup(s)", deleted)
	return nil
}

// Prune deletes every archive created before the retention cutoff and
// reports how many were removed. Delete failures are joined into the error.
func (uc *Cleanup) Prune(ctx context.Context) (int, error) {
	cutoff := uc.now().AddDate(0, 0, -uc.retentionDays)

	candidates, err := uc.expired(ctx, cutoff)
	if err != nil {
		return 0, &listError{err}
	}

	var (
		deleted int
		errs    []error
	)
	for _, name := range candidates {
		uc.logger.Infof("Deleting old backup: %s", name)
		if err := uc.storage.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		deleted++
	}

	return deleted, errors.Join(errs...)
}

// expired prefers the storage's own modification times and falls back to
// the timestamp encoded in each archive name.
func (uc *Cleanup) expired(ctx context.Context, cutoff time.Time) ([]string, error) {
	files, err := uc.storage.GetOldFiles(ctx, cutoff)
	if err == nil {
		return files, nil
	}
	uc.logger.Warnf("Listing old backups failed, falling back to archive names: %v", err)

	all, err := uc.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var old []string
	for _, name := range all {
		created, err := domain.ExtractTimestamp(name)
		if err != nil {
			uc.logger.Warnf("Could not parse timestamp from %s: %v", name, err)
			continue
		}
		if created.Before(cutoff) {
			old = append(old, name)
		}
	}

	return old, nil
}

type listError struct{ err error }

func (e *listError) Error() string { return e.err.Error() }
func (e *listError) Unwrap() error { return e.err }
