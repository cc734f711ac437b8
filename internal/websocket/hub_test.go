package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sitebooks/internal/access"
	"sitebooks/internal/middleware"
	"sitebooks/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuth struct{}

func (stubAuth) ParseToken(token string) (string, error) { return token, nil }

func (stubAuth) Principal(_ context.Context, userID string) (*access.User, error) {
	return &access.User{ID: userID, Permissions: access.Grants{"/expenses": {View: true}}}, nil
}

type store struct {
	mu    sync.Mutex
	items []string
}

func (s *store) load(context.Context) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.items...), nil
}

func (s *store) add(item string) {
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
}

type incoming struct {
	Type  string   `json:"type"`
	Path  string   `json:"path"`
	Data  []string `json:"data"`
	Error string   `json:"error"`
}

func setup(t *testing.T) (*realtime.Hub, *store, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := realtime.NewHub(zap.NewNop(), nil)
	expenses := &store{items: []string{"cement"}}
	hub.Register("/expenses", expenses.load)
	hub.Register("/users", func(context.Context) (interface{}, error) { return []string{"admin"}, nil })

	r := gin.New()
	r.GET("/ws", middleware.Authenticate(stubAuth{}), NewServer(hub, zap.NewNop(), nil).ServeWs)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=clerk"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return hub, expenses, conn
}

func read(t *testing.T, conn *websocket.Conn) incoming {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg incoming
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	hub, expenses, conn := setup(t)

	require.NoError(t, conn.WriteJSON(Request{Action: ActionSubscribe, Path: "/expenses"}))
	msg := read(t, conn)
	assert.Equal(t, FrameSnapshot, msg.Type)
	assert.Equal(t, "/expenses", msg.Path)
	assert.Equal(t, []string{"cement"}, msg.Data)

	expenses.add("steel")
	hub.Touch(context.Background(), "/expenses")
	msg = read(t, conn)
	assert.Equal(t, []string{"cement", "steel"}, msg.Data)
}

func TestSubscribeChecksViewPermission(t *testing.T) {
	_, _, conn := setup(t)

	require.NoError(t, conn.WriteJSON(Request{Action: ActionSubscribe, Path: "/users"}))
	msg := read(t, conn)
	assert.Equal(t, FrameError, msg.Type)
	assert.Equal(t, "/users", msg.Path)
	assert.Equal(t, "access denied", msg.Error)
}

func TestSubscribeUnknownPathAndAction(t *testing.T) {
	_, _, conn := setup(t)

	require.NoError(t, conn.WriteJSON(Request{Action: ActionSubscribe, Path: "/expenses/archive"}))
	msg := read(t, conn)
	assert.Equal(t, FrameError, msg.Type)
	assert.Equal(t, realtime.ErrUnknownPath.Error(), msg.Error)

	require.NoError(t, conn.WriteJSON(Request{Action: "replay", Path: "/expenses"}))
	msg = read(t, conn)
	assert.Equal(t, FrameError, msg.Type)
	assert.Contains(t, msg.Error, "unknown action")
}

func TestUnsubscribeStopsSnapshots(t *testing.T) {
	hub, expenses, conn := setup(t)

	require.NoError(t, conn.WriteJSON(Request{Action: ActionSubscribe, Path: "/expenses"}))
	read(t, conn)

	require.NoError(t, conn.WriteJSON(Request{Action: ActionUnsubscribe, Path: "/expenses"}))
	// A denied subscribe acts as a barrier: once its error arrives, the
	// unsubscribe before it has been handled.
	require.NoError(t, conn.WriteJSON(Request{Action: ActionSubscribe, Path: "/users"}))
	msg := read(t, conn)
	require.Equal(t, FrameError, msg.Type)

	expenses.add("sand")
	hub.Touch(context.Background(), "/expenses")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var next incoming
	err := conn.ReadJSON(&next)
	require.Error(t, err, "unexpected frame %+v", next)
}
