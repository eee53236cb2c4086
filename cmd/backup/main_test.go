package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeMongodump mimics the dump tool: it creates <out>/<db> with one file.
const fakeMongodump = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --out) out="$2"; shift ;;
    --db) db="$2"; shift ;;
  esac
  shift
done
mkdir -p "$out/$db"
echo '{}' > "$out/$db/orders.bson"
echo "done dumping $db"
`

func writeFile(path, content string, mode os.FileMode) {
	So(os.WriteFile(path, []byte(content), mode), ShouldBeNil)
}

func TestRun(t *testing.T) {
	Convey("Given a local backup configuration", t, func() {
		tempDir, err := os.MkdirTemp("", "backup_cli_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		dumpBin := filepath.Join(tempDir, "mongodump")
		writeFile(dumpBin, fakeMongodump, 0755)

		bucket := filepath.Join(tempDir, "bucket")
		workDir := filepath.Join(tempDir, "work")

		configFor := func(mongodump string) string {
			path := filepath.Join(tempDir, "config.yaml")
			writeFile(path, fmt.Sprintf(`
app:
  log_level: error
  work_dir: %s
tools:
  mongodump: %s
mongodb:
  database: shop
s3:
  driver: local
  bucket: %s
  destination: /nightly
`, workDir, mongodump, bucket), 0644)
			return path
		}

		Convey("When running immediately and every step succeeds", func() {
			code := run([]string{configFor(dumpBin), "--now"})

			Convey("It should exit 0 and store one archive", func() {
				So(code, ShouldEqual, 0)

				entries, err := os.ReadDir(filepath.Join(bucket, "nightly"))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(strings.HasPrefix(entries[0].Name(), "shop_"), ShouldBeTrue)
				So(strings.HasSuffix(entries[0].Name(), ".tar.gz"), ShouldBeTrue)
			})

			Convey("It should leave the working directory empty", func() {
				entries, err := os.ReadDir(workDir)
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When the dump tool fails", func() {
			code := run([]string{configFor("false"), "-n"})

			Convey("It should exit 1", func() {
				So(code, ShouldEqual, 1)
			})
		})

		Convey("When the config argument is missing", func() {
			Convey("It should exit 1", func() {
				So(run([]string{"--now"}), ShouldEqual, 1)
			})
		})

		Convey("When the config file does not exist", func() {
			Convey("It should exit 1", func() {
				So(run([]string{filepath.Join(tempDir, "missing.yaml"), "--now"}), ShouldEqual, 1)
			})
		})
	})
}
