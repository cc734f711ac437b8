// Package websocket exposes realtime collection snapshots to browsers.
//
// A connection sends {"action":"subscribe","path":"/expenses"} to start a
// feed and {"action":"unsubscribe","path":"/expenses"} to stop it. Each feed
// pushes {"type":"snapshot","path":...,"data":...} frames; failures come back
// as {"type":"error","path":...,"error":...}.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"sitebooks/internal/access"
	"sitebooks/internal/middleware"
	"sitebooks/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"

	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// Request is a frame sent by the client.
type Request struct {
	Action string `json:"action"`
	Path   string `json:"path"`
}

// Frame is a message pushed to the client.
type Frame struct {
	Type  string      `json:"type"`
	Path  string      `json:"path,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	At    *time.Time  `json:"at,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Server upgrades authenticated requests and manages their subscriptions.
type Server struct {
	hub      *realtime.Hub
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer returns a server accepting browsers from origins. An empty list
// accepts any origin.
func NewServer(hub *realtime.Hub, log *zap.Logger, origins []string) *Server {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Server{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// Client is one connected browser.
type Client struct {
	server    *Server
	conn      *websocket.Conn
	principal *access.User
	send      chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[string]*realtime.Subscription
}

// ServeWs handles GET /ws. It must run after middleware.Authenticate.
func (s *Server) ServeWs(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		server:    s,
		conn:      conn,
		principal: principal,
		send:      make(chan []byte, sendBuffer),
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[string]*realtime.Subscription),
	}
	s.log.Debug("websocket client connected", zap.String("user_id", principal.ID))

	go client.writePump()
	go client.readPump()
}

// readPump handles client requests until the connection drops, then releases
// every subscription the client holds.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.closeAll()
		_ = c.conn.Close()
		c.server.log.Debug("websocket client disconnected", zap.String("user_id", c.principal.ID))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				c.enqueue(Frame{Type: FrameError, Error: "malformed request"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		switch req.Action {
		case ActionSubscribe:
			c.subscribe(req.Path)
		case ActionUnsubscribe:
			c.unsubscribe(req.Path)
		default:
			c.enqueue(Frame{Type: FrameError, Path: req.Path, Error: "unknown action " + req.Action})
		}
	}
}

func (c *Client) subscribe(path string) {
	if !access.HasPermission(c.principal, path, access.View) {
		c.enqueue(Frame{Type: FrameError, Path: path, Error: "access denied"})
		return
	}

	c.mu.Lock()
	_, exists := c.subs[path]
	c.mu.Unlock()
	if exists {
		return
	}

	sub, err := c.server.hub.Subscribe(c.ctx, path, func(snap realtime.Snapshot) {
		at := snap.At
		c.enqueue(Frame{Type: FrameSnapshot, Path: snap.Path, Data: snap.Data, At: &at})
	})
	if err != nil {
		c.enqueue(Frame{Type: FrameError, Path: path, Error: err.Error()})
		return
	}

	c.mu.Lock()
	c.subs[path] = sub
	c.mu.Unlock()
}

func (c *Client) unsubscribe(path string) {
	c.mu.Lock()
	sub, ok := c.subs[path]
	delete(c.subs, path)
	c.mu.Unlock()
	if ok {
		sub.Close()
	}
}

func (c *Client) closeAll() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]*realtime.Subscription)
	c.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}
}

// enqueue never blocks. A client that cannot keep up is disconnected.
func (c *Client) enqueue(f Frame) {
	payload, err := json.Marshal(f)
	if err != nil {
		c.server.log.Error("failed to encode frame", zap.String("path", f.Path), zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	case <-c.ctx.Done():
	default:
		c.server.log.Warn("websocket client too slow, dropping", zap.String("user_id", c.principal.ID))
		c.cancel()
	}
}

// writePump handles writing queued frames and keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.cancel()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		}
	}
}
