package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/logging"
	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Consumers run on the local network
	},
}

const (
	// Frames queued per client before new ones are dropped.
	clientQueueSize = 8
	writeWait       = 5 * time.Second
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newWsClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan []byte, clientQueueSize),
		done: make(chan struct{}),
	}
}

// enqueue never blocks. A full queue means the client is not keeping up.
func (c *wsClient) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Hub broadcasts telegrams to every connected websocket client.
// Publish never waits on a client: each one has its own writer goroutine.
type Hub struct {
	log     logrus.FieldLogger
	metrics *metrics.Set

	clientsMutex sync.RWMutex
	clients      map[*wsClient]bool
	latest       []byte
}

func NewHub(log logrus.FieldLogger, m *metrics.Set) *Hub {
	if log == nil {
		log = logging.Discard()
	}
	return &Hub{log: log, metrics: m, clients: make(map[*wsClient]bool)}
}

// Publish queues msg for all clients. Frames for a client whose queue is full
// are dropped.
func (h *Hub) Publish(msg *telegram.Message) {
	data, err := msg.ToJsonBytes()
	if err != nil {
		h.log.Errorf("Not publishing frame %d: %v", msg.Meta.FrameNumber, err)
		return
	}

	h.clientsMutex.Lock()
	h.latest = data
	for client := range h.clients {
		if !client.enqueue(data) {
			h.log.Debugf("Websocket client %s is behind, dropping frame %d",
				client.conn.RemoteAddr(), msg.Meta.FrameNumber)
		}
	}
	h.clientsMutex.Unlock()
	h.metrics.Published("websocket")
}

// Len is the number of connected clients.
func (h *Hub) Len() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until its
// connection breaks. The last telegram is sent immediately.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	client := newWsClient(conn)
	h.clientsMutex.Lock()
	h.clients[client] = true
	if h.latest != nil {
		client.enqueue(h.latest)
	}
	h.clientsMutex.Unlock()
	h.log.Infof("WebSocket client connected from %s", conn.RemoteAddr())

	go h.writeLoop(client)

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(client)
			return
		}
	}
}

func (h *Hub) writeLoop(client *wsClient) {
	for {
		select {
		case <-client.done:
			return
		case data := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debugf("Dropping websocket client %s: %v", client.conn.RemoteAddr(), err)
				h.remove(client)
				return
			}
		}
	}
}

func (h *Hub) remove(client *wsClient) {
	h.clientsMutex.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.clientsMutex.Unlock()
	if ok {
		close(client.done)
		client.conn.Close()
	}
}
