package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/menu"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/monitoring"
	"github.com/yukiben/MaShangKaiFan-HorseYearDinnerMenu/internal/timeline"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// TimelineHub pushes freshly derived preparation timelines to subscribed
// clients. The minute ticker runs only while at least one client is
// connected and is stopped when the last one leaves, so no orphaned
// timer keeps recomputing for nobody.
type TimelineHub struct {
	store   *menu.Store
	clock   timeline.Clock
	ticker  *timeline.Ticker
	metrics *monitoring.Collector

	mu      sync.Mutex
	clients map[*wsClient]bool
	closed  bool
}

// wsClient maintains one WebSocket subscriber
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewTimelineHub creates a hub over the given store and clock
func NewTimelineHub(store *menu.Store, clock timeline.Clock, metrics *monitoring.Collector) *TimelineHub {
	return &TimelineHub{
		store:   store,
		clock:   clock,
		ticker:  timeline.NewTicker(clock, timeline.DefaultTickInterval),
		metrics: metrics,
		clients: make(map[*wsClient]bool),
	}
}

// Handle upgrades the connection and subscribes the client to live
// timeline updates. Screens without a menu are turned away at this
// boundary.
func (h *TimelineHub) Handle(c *gin.Context) {
	if !h.store.HasMenu() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no menu generated yet"})
		return
	}
	if h.isClosed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "timeline updates are shutting down"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 16),
	}
	// A shutdown may have landed between the check above and the
	// upgrade; a client the hub refuses must not restart the ticker.
	if !h.register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go h.readPump(client)

	// Initial snapshot so the client does not wait for the first tick
	h.push(client, h.snapshot())
}

// Broadcast derives the current timeline and pushes it to every
// subscriber. Invoked on every clock tick and on menu or meal-time
// changes.
func (h *TimelineHub) Broadcast() {
	h.mu.Lock()
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return
	}
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	payload := h.snapshot()
	for _, client := range clients {
		h.push(client, payload)
	}
}

// Close tears down the hub, stopping the ticker and disconnecting all
// subscribers
func (h *TimelineHub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*wsClient]bool)
	h.mu.Unlock()

	h.ticker.Stop()
	h.metrics.SetTimelineSubscribers(0)
	for _, client := range clients {
		close(client.send)
	}
}

func (h *TimelineHub) register(client *wsClient) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetTimelineSubscribers(count)
	if count == 1 {
		h.ticker.Start(func(time.Time) {
			h.Broadcast()
		})
	}
	return true
}

func (h *TimelineHub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *TimelineHub) unregister(client *wsClient) {
	h.mu.Lock()
	if h.closed || !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetTimelineSubscribers(count)
	if count == 0 {
		h.ticker.Stop()
	}
	close(client.send)
}

// snapshot derives the current timeline payload
func (h *TimelineHub) snapshot() []byte {
	current := h.store.Menu()
	now := h.clock.Now()
	mealTime := h.store.MealTime()

	h.metrics.RecordTimelineRecompute()
	payload, err := json.Marshal(timelineResponse{
		MealTime: mealTime.String(),
		Now:      now,
		Tasks:    timeline.Build(current, mealTime, now),
	})
	if err != nil {
		log.Printf("Failed to encode timeline payload: %v", err)
		return nil
	}
	return payload
}

// push queues a payload for a client, dropping it if the client is slow
func (h *TimelineHub) push(client *wsClient, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

// readPump consumes control frames until the client goes away
func (h *TimelineHub) readPump(client *wsClient) {
	defer func() {
		h.unregister(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writePump pumps queued payloads to the WebSocket connection
func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
