package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin:     func(r *http.Request) bool { return true },
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	readTimeout  = 60 * time.Second
)

// HerdSource provides the live horse list for stream snapshots.
type HerdSource interface {
	AllUpdates() []model.HorseUpdate
}

// AlertSource provides the active alerts for stream snapshots.
type AlertSource interface {
	ActiveAlerts() []model.Alert
}

// Client is one connected stream observer.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans live events out to stream observers. A new observer gets a
// connection ack and a state snapshot before any incremental event;
// observers that stop draining their buffer are dropped.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan model.Event
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	done       chan struct{}

	herd   HerdSource
	alerts AlertSource
	logger *zap.Logger

	mu       sync.RWMutex
	stopOnce sync.Once
}

// NewHub creates a hub. SetSources must be called before Run so that
// snapshots have something to draw from.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan model.Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Named("hub"),
	}
}

// SetSources wires the snapshot providers. The hub and the engines
// reference each other, so the sources arrive after construction.
func (h *Hub) SetSources(herd HerdSource, alerts AlertSource) {
	h.herd = herd
	h.alerts = alerts
}

// Publish queues an event for broadcast. It never blocks; when the hub
// is saturated or stopped the event is dropped.
func (h *Hub) Publish(event model.Event) {
	select {
	case <-h.quit:
	case h.broadcast <- event:
	default:
	}
}

// Run owns the client set. Register, unregister and broadcast all pass
// through this loop, so a snapshot is always queued before the
// broadcasts that follow it.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.closeAll()
			return

		case client := <-h.register:
			h.sendSnapshot(client)
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("observer connected",
				zap.String("client_id", client.id), zap.Int("total", total))

		case client := <-h.unregister:
			h.remove(client)

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("marshal event failed",
					zap.String("kind", string(event.Kind)), zap.Error(err))
				continue
			}

			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- data:
				default:
					h.logger.Warn("observer not draining, dropping",
						zap.String("client_id", client.id))
					h.remove(client)
				}
			}
		}
	}
}

// sendSnapshot queues the ack and the state snapshot ahead of anything
// else the client will see.
func (h *Hub) sendSnapshot(client *Client) {
	var snap model.Snapshot
	if h.herd != nil {
		snap.Horses = h.herd.AllUpdates()
	}
	if h.alerts != nil {
		snap.Alerts = h.alerts.ActiveAlerts()
	}

	events := []model.Event{
		{Kind: model.EventConnectionAck, Data: model.ConnectionAck{
			ClientID: client.id,
			Message:  "connected to live stream",
		}},
		{Kind: model.EventSnapshot, Data: snap},
	}
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("marshal event failed",
				zap.String("kind", string(event.Kind)), zap.Error(err))
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("observer disconnected",
			zap.String("client_id", client.id), zap.Int("total", total))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		client.conn.Close()
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

// Stop disconnects every observer and halts the loop. Safe to call
// more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		<-h.done
	})
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump discards inbound frames; observers are read-only. Pongs
// refresh the read deadline.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the send buffer to the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// WSHandler exposes the hub over HTTP.
type WSHandler struct {
	hub *Hub
}

// NewWSHandler creates a WebSocket handler.
func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleLive upgrades the connection and attaches it as an observer.
func (h *WSHandler) HandleLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	clientID := c.Query("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	client := &Client{
		id:   clientID,
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h.hub,
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// GetStats reports stream statistics.
func (h *WSHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": h.hub.ClientCount(),
	})
}
