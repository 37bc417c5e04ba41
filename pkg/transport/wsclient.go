package transport

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/logging"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRetryDelay = 5 * time.Second
	// The producer sends a telegram every second.
	readTimeout  = 10 * time.Second
	pingInterval = 30 * time.Second
)

// WebSocketListener receives telegrams from a producer's /ws endpoint and
// reconnects after a fixed delay whenever the connection breaks.
type WebSocketListener struct {
	url        url.URL
	retryDelay time.Duration
	log        logrus.FieldLogger
}

func NewWebSocketListener(host string, retryDelay time.Duration, log logrus.FieldLogger) *WebSocketListener {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if log == nil {
		log = logging.Discard()
	}
	return &WebSocketListener{
		url:        url.URL{Scheme: "ws", Host: host, Path: "/ws"},
		retryDelay: retryDelay,
		log:        log,
	}
}

func (l *WebSocketListener) URL() string { return l.url.String() }

// Listen never gives up on the producer; it returns when ctx is cancelled.
func (l *WebSocketListener) Listen(ctx context.Context, out chan<- Envelope) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	for connection := 1; ; connection++ {
		l.log.Infof("Connecting to %s", l.url.String())
		c, _, err := dialer.DialContext(ctx, l.url.String(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.log.Warnf("Connection failed, retrying in %s: %v", l.retryDelay, err)
			if !sleepCtx(ctx, l.retryDelay) {
				return nil
			}
			continue
		}

		l.log.Info("Connected! Accepting telegrams.")
		sender := fmt.Sprintf("%s#%d", c.RemoteAddr(), connection)
		l.handleConnection(ctx, c, sender, out)
		c.Close()

		if ctx.Err() != nil {
			return nil
		}
		l.log.Warnf("Connection lost, retrying in %s", l.retryDelay)
		if !sleepCtx(ctx, l.retryDelay) {
			return nil
		}
	}
}

func (l *WebSocketListener) handleConnection(ctx context.Context, c *websocket.Conn, sender string, out chan<- Envelope) {
	done := make(chan struct{})

	// Set read deadline to detect dead connections
	c.SetReadDeadline(time.Now().Add(readTimeout))

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					l.log.Warnf("WebSocket error: %v", err)
				} else {
					l.log.Infof("Connection closed: %v", err)
				}
				return
			}
			c.SetReadDeadline(time.Now().Add(readTimeout))

			if messageType != websocket.TextMessage {
				l.log.Debugf("Received unexpected message type: %d", messageType)
				continue
			}
			select {
			case out <- Envelope{Sender: sender, Payload: message}:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				l.log.Warnf("Failed to send ping: %v", err)
			}
		case <-ctx.Done():
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				l.log.Debugf("Error sending close message: %v", err)
			}
			// Wait for close confirmation or timeout
			select {
			case <-done:
			case <-time.After(time.Second):
				c.Close()
				<-done
			}
			return
		}
	}
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
