package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/oakline/taskherald/internal/model"
)

// writeTimeout bounds how long a single client write may block a
// broadcast.
const writeTimeout = 5 * time.Second

type wsClient struct {
	conn *websocket.Conn
	id   string
}

// Hub broadcasts deadline alerts to connected websocket observers.
// Publishing is best-effort: a hub with no clients, or clients with
// stalled connections, never affects the caller.
type Hub struct {
	clients sync.Map
	nextID  atomic.Int64
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// HandleWS upgrades the request to a websocket and registers the
// client until its connection closes. Inbound frames are drained and
// discarded; the alert stream is one-way.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[alert] websocket accept error: %v", err)
		return
	}

	clientID := fmt.Sprintf("observer-%d", h.nextID.Add(1))
	h.clients.Store(clientID, &wsClient{conn: conn, id: clientID})
	log.Printf("[alert] client connected: %s", clientID)

	defer func() {
		h.clients.Delete(clientID)
		conn.CloseNow()
		log.Printf("[alert] client disconnected: %s", clientID)
	}()

	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

// Publish sends the alert to every connected client. Failed writes are
// logged and otherwise ignored.
func (h *Hub) Publish(a model.Alert) {
	data, err := json.Marshal(a)
	if err != nil {
		log.Printf("[alert] marshal error: %v", err)
		return
	}

	h.clients.Range(func(key, value any) bool {
		c := value.(*wsClient)
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
			log.Printf("[alert] write to %s failed: %v", c.id, err)
		}
		cancel()
		return true
	})
}

// ClientCount reports how many observers are connected.
func (h *Hub) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.clients.Range(func(key, value any) bool {
		value.(*wsClient).conn.CloseNow()
		h.clients.Delete(key)
		return true
	})
}
