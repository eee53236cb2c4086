package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appconfig "github.com/semmidev/mongo-s3-backup/internal/config"
)

func TestMinioStorage(t *testing.T) {
	Convey("Given a MinioStorage backed by a fake endpoint", t, func() {
		backend := &fakeS3{bucket: "backups", puts: map[string]string{}}
		server := httptest.NewServer(backend)
		defer server.Close()

		core, logs := observer.New(zapcore.InfoLevel)
		log := zap.New(core).Sugar()
		ctx := context.Background()

		tempDir, err := os.MkdirTemp("", "minio_storage_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		archive := filepath.Join(tempDir, "shop_2024_1_2_3.tar.gz")
		So(os.WriteFile(archive, []byte("archive-bytes"), 0644), ShouldBeNil)

		cfg := &appconfig.S3Config{
			AccessKey:   "minio",
			SecretKey:   "minio123",
			Bucket:      "backups",
			Destination: "nightly",
			Region:      "us-east-1",
			Endpoint:    server.URL,
			UseSSL:      true,
		}

		Convey("When the upload is accepted", func() {
			storage, err := NewMinio(cfg, log)
			So(err, ShouldBeNil)

			err = storage.Upload(ctx, archive, "shop_2024_1_2_3.tar.gz")

			Convey("It should put the file under the destination prefix", func() {
				So(err, ShouldBeNil)
				So(backend.puts, ShouldContainKey, "nightly/shop_2024_1_2_3.tar.gz")
				So(backend.puts["nightly/shop_2024_1_2_3.tar.gz"], ShouldContainSubstring, "archive-bytes")
				So(logs.FilterLevelExact(zapcore.InfoLevel).Len(), ShouldEqual, 1)
			})
		})

		Convey("When the service rejects the upload", func() {
			cfg.Bucket = "other-bucket"
			storage, err := NewMinio(cfg, log)
			So(err, ShouldBeNil)

			err = storage.Upload(ctx, archive, "shop_2024_1_2_3.tar.gz")

			Convey("It should fail with the HTTP status", func() {
				var uploadErr *UploadError
				So(errors.As(err, &uploadErr), ShouldBeTrue)
				So(uploadErr.StatusCode, ShouldEqual, http.StatusForbidden)
				So(logs.FilterLevelExact(zapcore.ErrorLevel).Len(), ShouldEqual, 1)
			})
		})

		Convey("When listing is denied", func() {
			storage, err := NewMinio(cfg, log)
			So(err, ShouldBeNil)

			files, err := storage.List(ctx)
			_, oldErr := storage.GetOldFiles(ctx, time.Now())

			Convey("It should stop at the first listing error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to list S3 objects")
				So(files, ShouldBeEmpty)
				So(oldErr, ShouldNotBeNil)
			})
		})
	})
}

func TestSplitEndpoint(t *testing.T) {
	Convey("Given endpoint notations", t, func() {
		Convey("A bare host keeps the use_ssl setting", func() {
			host, secure, err := splitEndpoint("minio.local:9000", true)
			So(err, ShouldBeNil)
			So(host, ShouldEqual, "minio.local:9000")
			So(secure, ShouldBeTrue)
		})

		Convey("A URL scheme decides TLS", func() {
			host, secure, err := splitEndpoint("http://minio.local:9000", true)
			So(err, ShouldBeNil)
			So(host, ShouldEqual, "minio.local:9000")
			So(secure, ShouldBeFalse)

			host, secure, err = splitEndpoint("https://s3.example.com", false)
			So(err, ShouldBeNil)
			So(strings.HasPrefix(host, "s3.example.com"), ShouldBeTrue)
			So(secure, ShouldBeTrue)
		})
	})
}
