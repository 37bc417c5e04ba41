package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/NotCoffee418/p1reader/pkg/types"
)

const detailSeparator = ";"

// WriteDetails appends one row per record to the semicolon separated file at
// path. A new file starts with two header rows: the OBIS keys and their names.
func WriteDetails(path string, records []types.DetailRecord) error {
	_, err := os.Stat(path)
	isNew := errors.Is(err, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open detail file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if isNew {
		writeDetailHeader(w)
	}
	for _, r := range records {
		writeDetailRow(w, r)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write detail file: %w", err)
	}
	return nil
}

func writeDetailHeader(w io.Writer) {
	fmt.Fprint(w, "datum", detailSeparator, strings.Join(telegram.DetailKeys, detailSeparator), "\n")

	fmt.Fprint(w, "datum", detailSeparator)
	for _, key := range telegram.DetailKeys {
		fmt.Fprint(w, telegram.FriendlyNames[key], detailSeparator)
	}
	fmt.Fprint(w, "\n")
}

func writeDetailRow(w io.Writer, r types.DetailRecord) {
	fmt.Fprint(w, r.Received.Format("02-01-2006 15:04:05"), detailSeparator)
	for _, key := range telegram.DetailKeys {
		if v, ok := r.Telegram.Get(key); ok {
			fmt.Fprint(w, v.String())
		}
		fmt.Fprint(w, detailSeparator)
	}
	fmt.Fprint(w, "\n")
}
