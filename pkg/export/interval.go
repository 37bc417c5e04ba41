package export

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/esmutils"
	"github.com/NotCoffee418/p1reader/pkg/types"
)

// Rows are stamped with the close time floored to this many seconds.
const intervalStampStep = 300

// FormatBatch renders one closed batch window as an interval row.
func FormatBatch(b types.BatchSummary) string {
	stamp := time.Unix(esmutils.FloorTo(b.End, intervalStampStep), 0).Format("2006-01-02 15:04:05")
	return fmt.Sprintf("%s, %d, %4d, %6.1f, %4d,    %d, %4d, %6.1f, %4d",
		stamp,
		b.TotalImport, b.Import.Min, b.Import.Avg, b.Import.Max,
		b.TotalExport, b.Export.Min, b.Export.Avg, b.Export.Max)
}

// WriteBatches writes the rows to path, appending when appendRows is set and
// truncating otherwise.
func WriteBatches(path string, batches []types.BatchSummary, appendRows bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendRows {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open interval file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, b := range batches {
		fmt.Fprintln(w, FormatBatch(b))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write interval file: %w", err)
	}
	return nil
}
