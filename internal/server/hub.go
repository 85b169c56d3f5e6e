package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/fairway/internal/resolver"
	"github.com/jmylchreest/fairway/internal/site"
	"github.com/jmylchreest/fairway/internal/store"
)

const writeTimeout = 5 * time.Second

// ApplyMessage tells a page to set its root theme marker.
type ApplyMessage struct {
	Type  string `json:"type"`
	Theme string `json:"theme"`
}

// Hub tracks websocket clients viewing pages. Each client has its own
// Provider, so an assignment change re-applies only on equivalent pages.
type Hub struct {
	resolver    *resolver.Resolver
	assignments *store.Assignments
	renderer    *site.Renderer
	logger      *slog.Logger
	upgrader    websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	id       string
	conn     *websocket.Conn
	writeMu  sync.Mutex
	provider *resolver.Provider
	cancel   context.CancelFunc
}

// NewHub creates an empty hub.
func NewHub(res *resolver.Resolver, assignments *store.Assignments, renderer *site.Renderer, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		resolver:    res,
		assignments: assignments,
		renderer:    renderer,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams apply messages for the page
// named by the "page" query parameter until the client disconnects.
func (h *Hub) ServeWS(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		respondError(c, http.StatusBadRequest, "require websocket upgrade")
		return
	}

	path := c.Query("page")
	explicit := c.Query("theme")
	if explicit == "" {
		if route, ok := h.renderer.Catalog().Lookup(path); ok {
			explicit = route.Theme
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	cl := &client{
		id:   ulid.Make().String(),
		conn: conn,
	}
	cell := resolver.NewCell(h.resolver.Registry())
	cl.provider = resolver.NewProvider(h.resolver, h.assignments, cell, h.logger)

	// Subscribe before mounting so an assignment made in between still
	// reaches the client.
	events := cl.provider.Subscribe()
	initial := cl.provider.Mount(path, explicit)
	cell.OnChange(func(key string) {
		if err := cl.send(ApplyMessage{Type: "apply", Theme: key}); err != nil {
			h.logger.Debug("failed to push theme", "client", cl.id, "error", err)
		}
	})
	if err := cl.send(ApplyMessage{Type: "apply", Theme: initial}); err != nil {
		h.assignments.Unsubscribe(events)
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	cl.cancel = cancel
	h.add(cl)
	defer h.remove(cl)

	go cl.provider.Follow(ctx, events)

	h.logger.Debug("websocket client connected", "client", cl.id, "page", path, "theme", initial)

	// Read until the client goes away; incoming messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		cl.close()
	}
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl.id] = cl
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl.id)
	h.mu.Unlock()

	cl.close()
	h.logger.Debug("websocket client disconnected", "client", cl.id)
}

func (cl *client) send(msg ApplyMessage) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()

	if err := cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return cl.conn.WriteJSON(msg)
}

func (cl *client) close() {
	if cl.cancel != nil {
		cl.cancel()
	}
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	cl.conn.Close()
}
