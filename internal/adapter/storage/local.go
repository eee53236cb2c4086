package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

// LocalStorage stands in for a bucket with a directory, which is handy for
// development and for mounting network filesystems.
type LocalStorage struct {
	basePath string
	logger   Logger
}

func NewLocal(basePath string, logger Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, logger: logger}, nil
}

// Upload copies the archive into place through a temporary file, so readers
// of the directory never observe a partial archive.
func (l *LocalStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer source.Close()

	tmp, err := os.CreateTemp(l.basePath, "."+remoteName+".*")
	if err != nil {
		return fmt.Errorf("failed to create dest: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, source)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to copy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close dest: %w", err)
	}

	destPath := l.GetPath(remoteName)
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}

	l.logger.Infof("Stored %s at %s (%s)", remoteName, destPath, domain.FriendlySize(written))
	return nil
}

func (l *LocalStorage) List(ctx context.Context) ([]string, error) {
	var files []string
	err := l.walk(func(name string, _ time.Time) {
		files = append(files, name)
	})
	return files, err
}

func (l *LocalStorage) Delete(ctx context.Context, remoteName string) error {
	if err := os.Remove(l.GetPath(remoteName)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	var oldFiles []string
	err := l.walk(func(name string, modified time.Time) {
		if modified.Before(cutoffTime) {
			oldFiles = append(oldFiles, name)
		}
	})
	return oldFiles, err
}

// walk visits every archive directly inside the base directory.
func (l *LocalStorage) walk(visit func(name string, modified time.Time)) error {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), domain.ArchiveExt) || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info for %s: %w", entry.Name(), err)
		}
		visit(entry.Name(), info.ModTime())
	}

	return nil
}

func (l *LocalStorage) GetPath(filename string) string {
	return filepath.Join(l.basePath, filename)
}
