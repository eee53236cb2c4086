package domain

import (
	"context"
	"time"
)

// Storage is a destination for finished archives. Names are archive file
// names relative to the configured destination prefix.
type Storage interface {
	// Upload stores the file at localPath under remoteName.
	Upload(ctx context.Context, localPath string, remoteName string) error
	// List returns the archive names present at the destination.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, remoteName string) error
	// GetOldFiles returns archives last modified before cutoffTime.
	GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error)
}
