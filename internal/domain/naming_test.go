package domain

import (
	"regexp"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestArchiveName(t *testing.T) {
	Convey("Given a database name and a point in time", t, func() {
		now := time.Date(2024, time.March, 7, 14, 5, 9, 123_000_000, time.UTC)

		Convey("It should join name, date parts and epoch millis", func() {
			So(ArchiveName("shop", now), ShouldEqual, "shop_2024_3_7_1709820309123.tar.gz")
		})

		Convey("It should match the archive pattern", func() {
			pattern := regexp.MustCompile(`^shop_\d{4}_\d{1,2}_\d{1,2}_\d+\.tar\.gz$`)
			So(pattern.MatchString(ArchiveName("shop", now)), ShouldBeTrue)
		})

		Convey("It should be deterministic", func() {
			So(ArchiveName("shop", now), ShouldEqual, ArchiveName("shop", now))
		})

		Convey("It should differ for distinct milliseconds", func() {
			So(ArchiveName("shop", now), ShouldNotEqual, ArchiveName("shop", now.Add(time.Millisecond)))
		})

		Convey("It should round-trip through ExtractTimestamp", func() {
			ts, err := ExtractTimestamp(ArchiveName("shop_eu", now))
			So(err, ShouldBeNil)
			So(ts.Equal(now), ShouldBeTrue)
		})
	})
}

func TestExtractTimestamp(t *testing.T) {
	Convey("Given foreign file names", t, func() {
		Convey("A name without the archive extension is rejected", func() {
			_, err := ExtractTimestamp("notes.txt")
			So(err, ShouldNotBeNil)
		})

		Convey("A name without a numeric suffix is rejected", func() {
			_, err := ExtractTimestamp("shop_latest.tar.gz")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFriendlySize(t *testing.T) {
	Convey("Given byte counts", t, func() {
		Convey("Zero and negative render as 0 B", func() {
			So(FriendlySize(0), ShouldEqual, "0 B")
			So(FriendlySize(-5), ShouldEqual, "0 B")
		})

		Convey("Values below 1 KiB stay in bytes", func() {
			So(FriendlySize(1), ShouldEqual, "1 B")
			So(FriendlySize(1023), ShouldEqual, "1023 B")
		})

		Convey("Fractions keep one decimal place", func() {
			So(FriendlySize(1536), ShouldEqual, "1.5 KiB")
			So(FriendlySize(1024*1024+1024*1024/4), ShouldEqual, "1.3 MiB")
		})

		Convey("Each unit starts exactly at its threshold", func() {
			So(FriendlySize(1<<10), ShouldEqual, "1 KiB")
			So(FriendlySize(1<<20-1), ShouldEqual, "1024 KiB")
			So(FriendlySize(1<<20), ShouldEqual, "1 MiB")
			So(FriendlySize(1<<30), ShouldEqual, "1 GiB")
			So(FriendlySize(1<<40), ShouldEqual, "1 TiB")
		})

		Convey("Fractions round to the nearest tenth", func() {
			So(FriendlySize(2007), ShouldEqual, "2 KiB")
			So(FriendlySize(1126), ShouldEqual, "1.1 KiB")
		})

		Convey("Values beyond TiB stay in TiB", func() {
			So(FriendlySize(2048*(1<<40)), ShouldEqual, "2048 TiB")
		})
	})
}

func TestValidateDatabaseName(t *testing.T) {
	Convey("Given database names", t, func() {
		Convey("Plain names are accepted", func() {
			So(ValidateDatabaseName("shop"), ShouldBeNil)
			So(ValidateDatabaseName("shop_2024-prod"), ShouldBeNil)
		})

		Convey("Empty names are rejected", func() {
			So(ValidateDatabaseName(""), ShouldNotBeNil)
		})

		Convey("Path-like and reserved characters are rejected", func() {
			for _, name := range []string{"..", ".", "a/b", `a\b`, "my db", `a"b`, "$cmd", "a.b"} {
				So(ValidateDatabaseName(name), ShouldNotBeNil)
			}
		})
	})
}
