package stubapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type seatClient struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	topic string
}

// Hub fans seat map changes out to the clients watching a flight date
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*seatClient]bool
	log     *zap.Logger
}

// NewHub creates an empty hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*seatClient]bool),
		log:     log,
	}
}

func seatTopic(flightID, date string) string {
	return flightID + "/" + date
}

func (h *Hub) register(c *seatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.topic] == nil {
		h.clients[c.topic] = make(map[*seatClient]bool)
	}
	h.clients[c.topic][c] = true
	h.log.Debug("Seat watcher registered", zap.String("topic", c.topic), zap.Int("watchers", len(h.clients[c.topic])))
}

func (h *Hub) unregister(c *seatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *seatClient) {
	clients, ok := h.clients[c.topic]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.topic)
	}
	h.log.Debug("Seat watcher unregistered", zap.String("topic", c.topic))
}

// Broadcast sends update to every watcher of its flight date. Watchers that
// cannot keep up are dropped.
func (h *Hub) Broadcast(update gateway.SeatsUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		h.log.Error("Failed to marshal seat update", zap.Error(err))
		return
	}
	topic := seatTopic(update.FlightID, update.Date)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[topic] {
		select {
		case c.send <- data:
		default:
			h.removeLocked(c)
		}
	}
}

// Watchers returns the number of clients watching a flight date
func (h *Hub) Watchers(flightID, date string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[seatTopic(flightID, date)])
}

func (c *seatClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards incoming messages and notices the peer going away
func (c *seatClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Hub returns the live seat feed hub
func (h *Handler) Hub() *Hub { return h.hub }

// WatchSeats handles GET /ws/seats/{flightId}/{date}. The current seat list is
// sent first, then one message per change.
func (h *Handler) WatchSeats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	flightID, date := vars["flightId"], vars["date"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	c := &seatClient{hub: h.hub, conn: conn, send: make(chan []byte, 16), topic: seatTopic(flightID, date)}
	h.hub.register(c)

	snapshot, _ := json.Marshal(h.seatsUpdate(flightID, date))
	c.send <- snapshot

	go c.writePump()
	go c.readPump()
}

func (h *Handler) seatsUpdate(flightID, date string) gateway.SeatsUpdate {
	return gateway.SeatsUpdate{
		Type:        gateway.SeatsUpdatedMessage,
		FlightID:    flightID,
		Date:        date,
		BookedSeats: h.store.BookedSeats(flightID, date),
		Timestamp:   h.now().UnixMilli(),
	}
}

// notifySeats pushes the seat list of every flight date a booking touches
func (h *Handler) notifySeats(groups ...[]models.Ticket) {
	seen := map[string]bool{}
	for _, tickets := range groups {
		for _, t := range tickets {
			topic := seatTopic(t.FlightID, t.DepartureDate)
			if seen[topic] {
				continue
			}
			seen[topic] = true
			if h.hub.Watchers(t.FlightID, t.DepartureDate) > 0 {
				h.hub.Broadcast(h.seatsUpdate(t.FlightID, t.DepartureDate))
			}
		}
	}
}
