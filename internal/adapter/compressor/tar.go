package compressor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/process"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// TarArchiver packs a directory into a gzip-compressed tarball using the
// system tar binary.
type TarArchiver struct {
	bin    string
	runner process.Runner
	logger Logger
}

func NewTar(bin string, runner process.Runner, logger Logger) *TarArchiver {
	return &TarArchiver{
		bin:    bin,
		runner: runner,
		logger: logger,
	}
}

// Compress runs tar inside workingDir, so inputName and outputName are
// relative to it.
func (t *TarArchiver) Compress(ctx context.Context, workingDir, inputName, outputName string) error {
	err := t.runner.Run(ctx, process.Command{
		Name: t.bin,
		Args: []string{"-czf", outputName, inputName},
		Dir:  workingDir,
	}, nil, func(line string) {
		t.logger.Errorf("[tar] %s", line)
	})
	if err != nil {
		return fmt.Errorf("tar failed: %w", err)
	}

	var size int64
	if info, err := os.Stat(filepath.Join(workingDir, outputName)); err == nil {
		size = info.Size()
	}

	t.logger.Infof("Compressed %s into %s (%s)", inputName, outputName, domain.FriendlySize(size))
	return nil
}
