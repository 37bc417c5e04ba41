package pathing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandFilename(t *testing.T) {
	now := time.Date(2021, 6, 8, 13, 0, 46, 0, time.Local)

	assert.Equal(t, "/tmp/P1reader-2021-W23.log", ExpandFilename("/tmp/P1reader-YYYY-Www.log", now, Year, Week))
	assert.Equal(t, "/tmp/p1_reader_day-20210608.csv", ExpandFilename("/tmp/p1_reader_day-DAY.csv", now, Day))
	assert.Equal(t, "/tmp/p1_reader_interval-20210608-130046.csv", ExpandFilename("/tmp/p1_reader_interval-PERIOD.csv", now, Period))
	assert.Equal(t, "/tmp/plain.html", ExpandFilename("/tmp/plain.html", now))
}

func TestExpandFilenameLeavesDirectoriesAlone(t *testing.T) {
	now := time.Date(2021, 6, 8, 13, 0, 46, 0, time.Local)

	assert.Equal(t, "/var/www/html/lastm.html", ExpandFilename("/var/www/html/lastm.html", now))
	assert.Equal(t, "/var/www/P1reader-2021-W23.log", ExpandFilename("/var/www/P1reader-YYYY-Www.log", now, Year, Week))
	assert.Equal(t, "/srv/DAYTONA/p1_reader_details-20210608.csv", ExpandFilename("/srv/DAYTONA/p1_reader_details-DAY.csv", now, Day))
}

func TestExpandFilenameOnlyGivenPlaceholders(t *testing.T) {
	now := time.Date(2021, 6, 8, 13, 0, 46, 0, time.Local)

	// ww is not a placeholder of the interval file.
	assert.Equal(t, "/tmp/www-20210608-130046.csv", ExpandFilename("/tmp/www-PERIOD.csv", now, Period))
}

func TestEnsureFileDirsCreatesParents(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "out.csv")

	require.NoError(t, EnsureFileDirs(target, ""))
	assert.DirExists(t, filepath.Dir(target))

	// Existing directories are left alone.
	require.NoError(t, EnsureDirs(dir))
}
