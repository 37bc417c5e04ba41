package transport

import (
	"context"

	"github.com/NotCoffee418/p1reader/pkg/telegram"
)

// Envelope is one received payload and the identity of the connection it
// arrived on. Sender changes whenever the connection is re-established.
type Envelope struct {
	Sender  string
	Payload []byte
}

// Publisher sends telegrams to consumers without waiting for them.
type Publisher interface {
	Publish(msg *telegram.Message)
}

// Source delivers payloads to out until ctx is cancelled.
type Source interface {
	Listen(ctx context.Context, out chan<- Envelope) error
}
