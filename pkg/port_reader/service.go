package port_reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/logging"
	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/jacobsa/go-serial/serial"
)

// Initialize a new P1Reader client.
func NewP1Reader(opts Options) *P1Reader {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Baudrate == 0 {
		opts.Baudrate = 115200
	}
	reader := &P1Reader{opts: opts, log: opts.Logger, decoder: opts.Decoder}
	if reader.log == nil {
		reader.log = logging.Discard()
	}
	if reader.decoder == nil {
		reader.decoder = telegram.NewDecoder(telegram.DecoderConfig{Logger: reader.log, Metrics: opts.Metrics})
	}
	if info, err := os.Stat(opts.Device); err == nil && info.Mode().IsRegular() {
		reader.replay = true
	}
	return reader
}

// Run reads lines until ctx is cancelled and calls handle for every complete
// frame. Read failures are retried after the retry delay and never end the
// loop. A replayed capture file ends the loop at its end.
func (p *P1Reader) Run(ctx context.Context, handle func(msg *telegram.Message)) error {
	for {
		if err := p.connect(); err != nil {
			p.log.Errorf("Could not open %s, retrying in %s: %v", p.opts.Device, p.opts.RetryDelay, err)
			p.opts.Metrics.ReadError()
			if !sleepCtx(ctx, p.opts.RetryDelay) {
				return nil
			}
			continue
		}

		err := p.readLines(ctx, handle)
		p.disconnect()
		switch {
		case ctx.Err() != nil:
			return nil
		case p.replay && errors.Is(err, io.EOF):
			p.log.Infof("End of replay file %s", p.opts.Device)
			return nil
		}

		p.log.Errorf("Error reading %s, retrying in %s: %v", p.opts.Device, p.opts.RetryDelay, err)
		p.opts.Metrics.ReadError()
		if !sleepCtx(ctx, p.opts.RetryDelay) {
			return nil
		}
	}
}

func (p *P1Reader) GetLatestMessage() *telegram.Message {
	p.messageMutex.RLock()
	defer p.messageMutex.RUnlock()
	return p.latestMessage
}

// Open the connection to the P1 port.
func (p *P1Reader) connect() error {
	var port io.ReadCloser
	var err error
	switch {
	case p.opts.Open != nil:
		port, err = p.opts.Open()
	case p.replay:
		port, err = os.Open(p.opts.Device)
	default:
		port, err = serial.Open(serial.OpenOptions{
			PortName:        p.opts.Device,
			BaudRate:        p.opts.Baudrate,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	p.port = port
	p.log.Infof("Connected to P1 port on %s", p.opts.Device)
	return nil
}

func (p *P1Reader) disconnect() {
	if p.port != nil {
		p.port.Close()
		p.port = nil
		p.log.Info("Disconnected from P1 port")
	}
}

func (p *P1Reader) readLines(ctx context.Context, handle func(msg *telegram.Message)) error {
	if p.port == nil {
		return ErrNotConnected
	}

	// Unblock the pending read on cancellation.
	port := p.port
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer stop()

	reader := bufio.NewReader(port)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			p.handleLine(line, handle)
		}
		if err != nil {
			return err
		}
	}
}

func (p *P1Reader) handleLine(line string, handle func(msg *telegram.Message)) {
	event := p.decoder.DecodeLine(line)
	if event.Kind != telegram.FrameEnd || event.Message == nil {
		return
	}

	p.messageMutex.Lock()
	p.latestMessage = event.Message
	p.messageMutex.Unlock()

	handle(event.Message)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
