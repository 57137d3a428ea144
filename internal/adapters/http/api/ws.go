package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/okian/scramble/internal/domain/model"
	"github.com/okian/scramble/pkg/logger"
	"github.com/okian/scramble/pkg/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 64

	// Upper bound for one command issued over the socket
	commandTimeout = 5 * time.Second
)

// clientMessage is a player action sent over the socket.
type clientMessage struct {
	Type           string `json:"type"`
	Category       string `json:"category,omitempty"`
	Text           string `json:"text,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// serverError is pushed when a socket command fails.
type serverError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WSHandler streams session events and accepts player actions over a WebSocket.
type WSHandler struct {
	deps     Dependencies
	upgrader websocket.Upgrader
	logger   logger.Logger
}

// NewWSHandler creates a WebSocket handler. allowedOrigins follows the CORS list.
func NewWSHandler(deps Dependencies, allowedOrigins []string, log logger.Logger) *WSHandler {
	return &WSHandler{
		deps:   deps,
		logger: log.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// HandleEvents handles GET /v1/sessions/{id}/events.
func (h *WSHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// fail before upgrading so clients get a plain 404
	if _, err := h.deps.Snapshot(r.Context(), id); err != nil {
		status, code, _ := classify(err)
		writeError(w, status, code, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	events, unsubscribe, err := h.deps.Subscribe(ctx, id)
	if err != nil {
		_, code, _ := classify(err)
		_ = conn.WriteJSON(serverError{Type: "error", Code: code, Message: err.Error()})
		_ = conn.Close()
		return
	}

	c := &wsClient{
		conn:      conn,
		sessionID: id,
		deps:      h.deps,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
		hangup:    make(chan struct{}),
		logger:    h.logger.With(logger.String("session_id", id)),
	}

	metrics.UpdateWebSocketConnections(1)
	defer metrics.UpdateWebSocketConnections(-1)

	go c.forward(events)
	go c.writePump()
	c.readPump(ctx)

	unsubscribe()
	c.close()
}

// wsClient is one socket bound to one session.
type wsClient struct {
	conn      *websocket.Conn
	sessionID string
	deps      Dependencies
	send      chan []byte
	done      chan struct{}
	hangup    chan struct{}
	logger    logger.Logger

	mu         sync.Mutex
	closed     bool
	hangupOnce sync.Once
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	_ = c.conn.Close()
}

// enqueue never blocks; a slow reader loses messages.
func (c *wsClient) enqueue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		metrics.RecordEventDropped()
		c.logger.Warn(context.Background(), "send buffer full, message dropped")
	}
}

// forward copies session events to the socket until the subscription ends.
func (c *wsClient) forward(events <-chan model.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				c.hangupOnce.Do(func() { close(c.hangup) })
				return
			}
			c.enqueue(ev)
		case <-c.done:
			return
		}
	}
}

// readPump pumps messages from the WebSocket connection.
func (c *wsClient) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug(ctx, "websocket read error", logger.Error(err))
			}
			return
		}
		c.handleMessage(ctx, message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case <-c.hangup:
			// session closed: flush what is queued, then say goodbye
			for n := len(c.send); n > 0; n-- {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage runs one player action. State and notices come back through
// the event stream; only failures are answered directly.
func (c *wsClient) handleMessage(ctx context.Context, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.enqueue(serverError{Type: "error", Code: codeBadRequest, Message: "invalid message format"})
		return
	}
	kind, ok := model.ParseKind(msg.Type)
	if !ok {
		c.enqueue(serverError{Type: "error", Code: codeBadRequest, Message: ErrUnknownKind.Error() + ": " + msg.Type})
		return
	}

	cmd := model.NewCommand(c.sessionID, kind)
	cmd.Category = msg.Category
	cmd.Text = msg.Text
	cmd.IdempotencyKey = msg.IdempotencyKey

	cctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	reply, err := c.deps.Do(cctx, c.sessionID, cmd)
	if err == nil {
		err = reply.Err
	}
	if _, code, isErr := classify(err); isErr {
		c.enqueue(serverError{Type: "error", Code: code, Message: err.Error()})
	}
}
