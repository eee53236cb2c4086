package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const ArchiveExt = ".tar.gz"

// ArchiveName returns <database>_<year>_<month>_<day>_<epoch millis>.tar.gz.
func ArchiveName(databaseName string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%d_%d_%d%s",
		databaseName, now.Year(), int(now.Month()), now.Day(), now.UnixMilli(), ArchiveExt)
}

// ExtractTimestamp recovers the creation time encoded in an archive name.
func ExtractTimestamp(filename string) (time.Time, error) {
	name := strings.TrimSuffix(filename, ArchiveExt)
	if name == filename {
		return time.Time{}, fmt.Errorf("invalid archive name %q: missing %s", filename, ArchiveExt)
	}

	idx := strings.LastIndex(name, "_")
	if idx < 0 {
		return time.Time{}, fmt.Errorf("invalid archive name %q: no timestamp found", filename)
	}

	millis, err := strconv.ParseInt(name[idx+1:], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid archive name %q: %w", filename, err)
	}

	return time.UnixMilli(millis), nil
}

var sizeUnits = []struct {
	threshold uint64
	name      string
}{
	{humanize.TiByte, "TiB"},
	{humanize.GiByte, "GiB"},
	{humanize.MiByte, "MiB"},
	{humanize.KiByte, "KiB"},
}

// FriendlySize renders a byte count in binary units with at most one decimal.
func FriendlySize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	for _, unit := range sizeUnits {
		if uint64(bytes) >= unit.threshold {
			value := float64(bytes) / float64(unit.threshold)
			return humanize.FtoaWithDigits(roundTenth(value), 1) + " " + unit.name
		}
	}

	return strconv.FormatInt(bytes, 10) + " B"
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// ValidateDatabaseName rejects names MongoDB would not accept. Such names
// could also escape the working directory once joined into a dump path.
func ValidateDatabaseName(name string) error {
	if name == "" {
		return fmt.Errorf("database name is empty")
	}
	if i := strings.IndexAny(name, "/\\. \"$\x00"); i >= 0 {
		return fmt.Errorf("database name %q contains invalid character %q", name, name[i])
	}
	return nil
}
