package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// UploadError reports a failed upload. StatusCode is zero when the request
// never produced an HTTP response.
type UploadError struct {
	StatusCode int
	Code       string
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upload failed before a response was received: %v", e.Err)
	}
	return fmt.Sprintf("upload rejected with status %d: %v", e.StatusCode, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// objectKey places name under prefix. Keys never start with a slash; an
// empty or "/" prefix means the bucket root.
func objectKey(prefix, name string) string {
	return strings.TrimPrefix(path.Join("/", prefix, name), "/")
}

// listPrefix is the key prefix shared by every archive under prefix.
func listPrefix(prefix string) string {
	p := strings.TrimPrefix(path.Join("/", prefix), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// archiveName maps a listed key back to an archive name, rejecting nested
// keys and foreign objects.
func archiveName(key, prefix string) (string, bool) {
	name := strings.TrimPrefix(key, prefix)
	if name == "" || strings.Contains(name, "/") || !strings.HasSuffix(name, domain.ArchiveExt) {
		return "", false
	}
	return name, true
}
