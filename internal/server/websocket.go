package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/synapse-topology/internal/flow"
	"github.com/muurk/synapse-topology/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Outgoing messages buffered per client before it is dropped
	sendBuffer = 16
)

// Message types exchanged over the WebSocket.
const (
	MessageState    = "state"
	MessageNavigate = "navigate"
	MessageCheck    = "check"
	MessageError    = "error"
)

// Message is the envelope for every WebSocket message.
type Message struct {
	Type   string         `json:"type"`
	State  *StateResponse `json:"state,omitempty"`
	Action *flow.Action   `json:"action,omitempty"`
	Error  string         `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type client struct {
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
}

// hub tracks connected clients and fans out state messages.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast queues msg for every client. Clients whose buffer is full are
// dropped rather than blocking the caller.
func (h *hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			logging.Warn("Dropping slow WebSocket client", zap.String("remote_addr", c.remoteAddr))
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// sendTo queues msg for a single client if it is still connected.
func (h *hub) sendTo(c *client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func stateMessage(resp StateResponse) []byte {
	data, err := json.Marshal(Message{Type: MessageState, State: &resp})
	if err != nil {
		logging.Error("Failed to encode state message", zap.Error(err))
		return nil
	}
	return data
}

func errorMessage(text string) []byte {
	data, _ := json.Marshal(Message{Type: MessageError, Error: text})
	return data
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		remoteAddr: r.RemoteAddr,
	}
	logging.LogConnection(c.remoteAddr, "websocket_upgraded")

	// register and queue the current state under the session lock so that no
	// broadcast can slip in ahead of it
	s.mu.Lock()
	s.hub.add(c)
	s.hub.sendTo(c, stateMessage(s.snapshot()))
	s.mu.Unlock()

	go s.writePump(c)
	s.readPump(c)
}

// readPump handles incoming messages until the connection fails.
func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.remove(c)
		_ = c.conn.Close()
		logging.LogConnection(c.remoteAddr, "websocket_closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("WebSocket closed unexpectedly",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
		logging.LogWebSocketMessage(c.remoteAddr, "received", data)

		if text := s.handleMessage(data); text != "" {
			s.hub.sendTo(c, errorMessage(text))
		}
	}
}

// handleMessage applies a client message and returns an error text for the
// client, or "" on success. Successful changes reach the client through the
// state broadcast.
func (s *Server) handleMessage(data []byte) string {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return "invalid message: " + err.Error()
	}

	var action flow.Action
	switch msg.Type {
	case MessageNavigate:
		if msg.Action == nil || !msg.Action.Valid() {
			return "navigate requires a valid action"
		}
		action = *msg.Action
	case MessageCheck:
		action = flow.CheckBaseConfig()
	default:
		return "unknown message type " + msg.Type
	}

	if _, err := s.navigate(action); err != nil {
		return err.Error()
	}
	return ""
}

// writePump drains the client's queue and keeps the connection alive.
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			logging.LogWebSocketMessage(c.remoteAddr, "sent", msg)

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
