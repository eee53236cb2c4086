package domain

import "context"

// Dumper exports a database into outputDir. The dump tool creates a
// subdirectory named after the database inside outputDir.
type Dumper interface {
	Dump(ctx context.Context, outputDir string) error
	GetName() string
	GetType() string
}
