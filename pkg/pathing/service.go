package pathing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDirs creates every directory in dirs that does not exist yet.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// EnsureFileDirs creates the parent directories of the given files.
func EnsureFileDirs(files ...string) error {
	dirs := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			dirs = append(dirs, filepath.Dir(f))
		}
	}
	return EnsureDirs(dirs...)
}

func GetMeterDbPath() string {
	return filepath.Join(GetDataDir(), "p1-meter.db")
}

func GetDataDir() string {
	return "/var/lib/p1reader"
}

func GetConfigDir() string {
	return "/etc/p1reader"
}

func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "p1reader.toml")
}

// DataFile joins name onto the data directory.
func DataFile(name string) string {
	return filepath.Join(GetDataDir(), name)
}

// Placeholder is a date token that can appear in an export file name.
type Placeholder string

const (
	Period Placeholder = "PERIOD" // YYYYmmdd-HHMMSS
	Day    Placeholder = "DAY"    // YYYYmmdd
	Year   Placeholder = "YYYY"
	Week   Placeholder = "ww" // ISO week, two digits
)

func (p Placeholder) value(now time.Time) string {
	switch p {
	case Period:
		return now.Format("20060102-150405")
	case Day:
		return now.Format("20060102")
	case Year:
		return now.Format("2006")
	case Week:
		_, week := now.ISOWeek()
		return fmt.Sprintf("%02d", week)
	}
	return string(p)
}

// ExpandFilename substitutes the given placeholders in the file name of
// pattern. Directory names are never touched.
func ExpandFilename(pattern string, now time.Time, placeholders ...Placeholder) string {
	if len(placeholders) == 0 {
		return pattern
	}
	pairs := make([]string, 0, 2*len(placeholders))
	for _, p := range placeholders {
		pairs = append(pairs, string(p), p.value(now))
	}
	dir, name := filepath.Split(pattern)
	return dir + strings.NewReplacer(pairs...).Replace(name)
}
