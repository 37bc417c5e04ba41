package export

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/types"
)

// Samples shown per table row, one per second of a ten second slot.
const rowSlots = 10

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"slots": func() []int { return make([]int, rowSlots) },
}).ParseFS(templatesFS, "templates/*.html"))

type htmlCell struct {
	Import int64
	Export int64
}

type htmlRow struct {
	Time   string
	Blanks []struct{}
	Cells  []htmlCell
	// Repeat the column header below this row.
	Header bool
}

type htmlPage struct {
	Day  string
	Self string
	Rows []htmlRow
}

// buildPage lays out runs (oldest first, as grouped by the aggregator) newest
// first. The newest row is padded with blank cells so a partial slot lines up.
func buildPage(path string, runs [][]types.PowerSample, now time.Time) htmlPage {
	page := htmlPage{Day: now.Format("20060102"), Self: filepath.Base(path)}
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		if len(run) == 0 {
			continue
		}
		row := htmlRow{Time: time.Unix(run[0].Time, 0).Format("15:04:05")}
		if len(page.Rows) == 0 && len(run) < rowSlots {
			row.Blanks = make([]struct{}, rowSlots-len(run))
		}
		for _, s := range run {
			row.Cells = append(row.Cells, htmlCell{Import: s.PowerIn, Export: s.PowerOut})
		}
		row.Header = run[len(run)-1].Time%60 == 0
		page.Rows = append(page.Rows, row)
	}
	return page
}

// WriteHTML renders the last measurements page to path. The file is replaced
// atomically so a browser never sees a half written page.
func WriteHTML(path string, runs [][]types.PowerSample, now time.Time) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lastm-*.html")
	if err != nil {
		return fmt.Errorf("failed to create html report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := templates.ExecuteTemplate(tmp, "lastm.html", buildPage(path, runs, now)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to render html report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
