package domain

import "context"

type Archiver interface {
	Compress(ctx context.Context, workingDir, inputName, outputName string) error
}
