package port_reader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const capture = "/ISK5\\2M550T-1013\r\n\r\n1-0:1.7.0(00.500*kW)\r\n1-0:2.7.0(00.100*kW)\r\n!1234\r\n" +
	"/ISK5\\2M550T-1013\r\n\r\n1-0:1.7.0(00.600*kW)\r\n!5678\r\n"

func TestRunReplaysCaptureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.txt")
	require.NoError(t, os.WriteFile(path, []byte(capture), 0644))

	reader := NewP1Reader(Options{Device: path})
	var got []*telegram.Message
	err := reader.Run(context.Background(), func(msg *telegram.Message) {
		got = append(got, msg)
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, int64(500), got[0].Telegram.IntOr(telegram.KeyPowerIn, 0))
	assert.Equal(t, "5678", got[1].Telegram.Checksum)
	assert.Equal(t, int64(2), got[1].Meta.FrameNumber)
	assert.Same(t, got[1], reader.GetLatestMessage())
}

func TestRunRetriesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	reader := NewP1Reader(Options{
		Device:     "/dev/ttyP1test",
		RetryDelay: time.Millisecond,
		Open: func() (io.ReadCloser, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("device busy")
			}
			return io.NopCloser(strings.NewReader(capture)), nil
		},
	})

	var frames int
	err := reader.Run(ctx, func(msg *telegram.Message) {
		frames++
		if frames == 2 {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, frames)
}

func TestReadLinesNotConnected(t *testing.T) {
	reader := NewP1Reader(Options{Device: "/dev/ttyP1test"})
	err := reader.readLines(context.Background(), func(*telegram.Message) {})
	assert.ErrorIs(t, err, ErrNotConnected)
}
