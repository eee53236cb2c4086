package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	appconfig "github.com/semmidev/mongo-s3-backup/internal/config"
)

// MinioStorage talks to any S3-compatible service through minio-go.
type MinioStorage struct {
	client *minio.Client
	bucket string
	prefix string
	logger Logger
}

func NewMinio(cfg *appconfig.S3Config, logger Logger) (*MinioStorage, error) {
	endpoint, secure, err := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStorage{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Destination,
		logger: logger,
	}, nil
}

// splitEndpoint accepts either host[:port] or a URL; a URL scheme overrides
// the use_ssl setting.
func splitEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, useSSL, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid s3.endpoint %q: %w", endpoint, err)
	}
	return u.Host, u.Scheme == "https", nil
}

func (m *MinioStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	key := objectKey(m.prefix, remoteName)

	info, err := m.client.FPutObject(ctx, m.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/gzip",
	})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode != 0 {
			m.logger.Errorf("S3 responded %d to %s/%s: %s: %s", resp.StatusCode, m.bucket, key, resp.Code, resp.Message)
		}
		return &UploadError{StatusCode: resp.StatusCode, Code: resp.Code, Err: err}
	}

	m.logger.Infof("Uploaded %s/%s (%d bytes, etag %s)", m.bucket, key, info.Size, info.ETag)
	return nil
}

func (m *MinioStorage) List(ctx context.Context) ([]string, error) {
	var files []string
	err := m.walk(ctx, func(name string, _ time.Time) {
		files = append(files, name)
	})
	return files, err
}

func (m *MinioStorage) Delete(ctx context.Context, remoteName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectKey(m.prefix, remoteName), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (m *MinioStorage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	var oldFiles []string
	err := m.walk(ctx, func(name string, modified time.Time) {
		if modified.Before(cutoffTime) {
			oldFiles = append(oldFiles, name)
		}
	})
	return oldFiles, err
}

// walk stops the listing goroutine through ctx when it returns early.
func (m *MinioStorage) walk(ctx context.Context, visit func(name string, modified time.Time)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prefix := listPrefix(m.prefix)
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list S3 objects: %w", obj.Err)
		}
		name, ok := archiveName(obj.Key, prefix)
		if !ok {
			continue
		}
		visit(name, obj.LastModified)
	}
	return nil
}
