package domain

import (
	"context"
	"path/filepath"
	"time"
)

// Layout is the on-disk working area of a single run.
type Layout struct {
	Root        string
	DumpName    string
	DumpDir     string
	ArchiveName string
	ArchivePath string
}

func NewLayout(root, databaseName, archiveName string) Layout {
	return Layout{
		Root:        root,
		DumpName:    databaseName,
		DumpDir:     filepath.Join(root, databaseName),
		ArchiveName: archiveName,
		ArchivePath: filepath.Join(root, archiveName),
	}
}

// RunOutcome describes how a finished run ended. Err is nil on success.
type RunOutcome struct {
	Database  string
	Archive   string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

func (o RunOutcome) Succeeded() bool {
	return o.Err == nil
}

type Notifier interface {
	Notify(ctx context.Context, outcome RunOutcome) error
}
