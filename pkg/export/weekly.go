package export

import (
	"bufio"
	"fmt"
	"os"

	"github.com/NotCoffee418/p1reader/pkg/types"
)

func FormatMeasurement(m types.Measurement) string {
	return fmt.Sprintf("%d:%7.3f:%7.3f:%5.3f : %7.3f:%7.3f:%5.3f",
		m.Time,
		float64(m.EnergyInT1), float64(m.EnergyInT2), float64(m.PowerIn),
		float64(m.EnergyOutT1), float64(m.EnergyOutT2), float64(m.PowerOut))
}

// AppendWeekly appends the measurements to the weekly log at path.
func AppendWeekly(path string, rows []types.Measurement) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open weekly log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, m := range rows {
		fmt.Fprintln(w, FormatMeasurement(m))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write weekly log: %w", err)
	}
	return nil
}
