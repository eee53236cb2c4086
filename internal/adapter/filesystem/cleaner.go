package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

type Logger interface {
	Warnf(template string, args ...interface{})
}

type Cleaner struct {
	logger Logger
}

func NewCleaner(logger Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// RemoveRecursive deletes path and everything below it. A missing path is
// not an error.
func (c *Cleaner) RemoveRecursive(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	c.logger.Warnf("Removing %s", path)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}
