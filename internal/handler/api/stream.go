package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"TrendPull/internal/domain/models"
	applogger "TrendPull/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StreamMessage is the frame pushed to websocket subscribers.
type StreamMessage struct {
	Type    string           `json:"type"`
	Payload *models.Artifact `json:"payload"`
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// StreamHub pushes every fresh artifact to connected websocket clients.
type StreamHub struct {
	logger   *applogger.Logger
	provider ArtifactProvider

	mu      sync.RWMutex
	clients map[*subscriber]struct{}
}

// NewStreamHub creates a hub that greets new clients with provider's latest
// artifact.
func NewStreamHub(logger *applogger.Logger, provider ArtifactProvider) *StreamHub {
	return &StreamHub{
		logger:   logger,
		provider: provider,
		clients:  make(map[*subscriber]struct{}),
	}
}

// RegisterRoutes mounts the websocket endpoint on /ws.
func (h *StreamHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve upgrades the connection, sends the current artifact if there is one
// and keeps the client registered until it disconnects.
func (h *StreamHub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}

	sub := &subscriber{conn: conn}
	h.add(sub)
	defer h.remove(sub)

	if a := h.provider.Latest(); a != nil {
		if data, err := encodeSnapshot(a); err == nil {
			if err := sub.write(websocket.TextMessage, data); err != nil {
				return nil
			}
		}
	}

	done := make(chan struct{})
	defer close(done)
	go h.ping(sub, done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *StreamHub) ping(sub *subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := sub.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast sends a to every client. Clients that fail the write are dropped.
func (h *StreamHub) Broadcast(a *models.Artifact) {
	data, err := encodeSnapshot(a)
	if err != nil {
		h.logger.Error("encode stream message", applogger.Error(err))
		return
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.clients))
	for s := range h.clients {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if err := s.write(websocket.TextMessage, data); err != nil {
			h.logger.Debug("websocket client dropped", applogger.Error(err))
			h.remove(s)
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *StreamHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *StreamHub) Close() {
	h.mu.Lock()
	subs := h.clients
	h.clients = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for s := range subs {
		_ = s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
		_ = s.conn.Close()
	}
}

func (h *StreamHub) add(s *subscriber) {
	h.mu.Lock()
	h.clients[s] = struct{}{}
	h.mu.Unlock()
}

func (h *StreamHub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.clients[s]
	delete(h.clients, s)
	h.mu.Unlock()
	if ok {
		_ = s.conn.Close()
	}
}

func encodeSnapshot(a *models.Artifact) ([]byte, error) {
	return json.Marshal(StreamMessage{Type: "trend_index", Payload: a})
}
