package http

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pledg/domain"
	"pledg/logger"
	"pledg/service"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 54 * time.Second
	wsMaxMessageSize = 4096
	wsSendBuffer     = 8
)

type wsMessage struct {
	Type    string `json:"type"`
	Seq     uint64 `json:"seq,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type wsRequest struct {
	Type  string                    `json:"type"`
	Seq   uint64                    `json:"seq"`
	Input domain.RawCalculatorInput `json:"input"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	// send is owned by the hub, which closes it on unregister.
	send chan []byte
	// replies is written only by the read pump and never closed.
	replies chan []byte
	done    chan struct{}
}

// Hub fans price snapshots out to every connected websocket client.
type Hub struct {
	clients    map[*wsClient]struct{}
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	done       chan struct{}
	upgrader   websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]struct{}),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// Run owns the client set until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			logger.Debug("websocket client registered", zap.String("client", client.id))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				logger.Debug("websocket client unregistered", zap.String("client", client.id))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer.
					close(client.send)
					delete(h.clients, client)
				}
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// PublishPrice queues a snapshot for every client. It never blocks the
// price poller; a full queue drops the update.
func (h *Hub) PublishPrice(snap domain.PriceSnapshot) {
	payload, err := json.Marshal(wsMessage{Type: "price", Data: snap})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		logger.Warn("dropping price broadcast, hub busy")
	}
}

func (h *Hub) ServeWS(
	w http.ResponseWriter,
	r *http.Request,
	calculator *service.CalculatorService,
	initial domain.PriceSnapshot,
) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, wsSendBuffer),
		replies: make(chan []byte, wsSendBuffer),
		done:    make(chan struct{}),
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	if payload, err := json.Marshal(wsMessage{Type: "price", Data: initial}); err == nil {
		client.replies <- payload
	}

	go client.writePump()
	go client.readPump(h, calculator)
}

func (c *wsClient) readPump(hub *Hub, calculator *service.CalculatorService) {
	defer func() {
		close(c.done)
		select {
		case hub.unregister <- c:
		case <-hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	session := service.NewSession()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(raw, &req); err != nil || req.Type != "calculate" {
			c.reply(wsMessage{Type: "error", Message: "expected a calculate request"})
			continue
		}

		calc, err := calculator.Calculate(context.Background(), req.Input)
		if err != nil {
			c.reply(wsMessage{Type: "error", Seq: req.Seq, Message: err.Error()})
			continue
		}
		if !session.Publish(req.Seq, calc) {
			// Superseded by a newer request from this client.
			continue
		}
		c.reply(wsMessage{Type: "calculation", Seq: req.Seq, Data: calc})
	}
}

func (c *wsClient) reply(msg wsMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.replies <- payload:
	default:
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case message := <-c.replies:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
