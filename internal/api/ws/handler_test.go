package ws

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/engine"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/shared/id"
)

type stubSource struct {
	mu   sync.Mutex
	subs map[int]func(engine.Event)
	next int
}

func (s *stubSource) Subscribe(fn func(engine.Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(engine.Event))
	}
	n := s.next
	s.next++
	s.subs[n] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, n)
	}
}

func (s *stubSource) emit(ev engine.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fn := range s.subs {
		fn(ev)
	}
}

func (s *stubSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func dial(t *testing.T, src *stubSource) (*websocket.Conn, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())
	h := NewHandler(src, metrics, zaptest.NewLogger(t))

	router := gin.New()
	router.GET("/ws", h.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, metrics
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, sonic.Unmarshal(data, &msg))
	return msg
}

func TestWelcomeAndEvents(t *testing.T) {
	src := &stubSource{}
	conn, _ := dial(t, src)

	welcome := read(t, conn)
	assert.Equal(t, "welcome", welcome.Type)
	assert.True(t, id.IsValid(welcome.ClientID))

	require.Eventually(t, func() bool { return src.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	src.emit(engine.Event{Kind: "added", Entry: &engine.EntrySnapshot{ID: "win_1", Kind: "window", Title: "Email"}})

	msg := read(t, conn)
	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "added", msg.Event.Kind)
	assert.Equal(t, "Email", msg.Event.Entry.Title)
}

func TestPingPong(t *testing.T) {
	src := &stubSource{}
	conn, _ := dial(t, src)
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", read(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"dance"}`)))
	msg := read(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "unknown message type", msg.Message)
}

func TestDisconnectUnsubscribes(t *testing.T) {
	src := &stubSource{}
	conn, _ := dial(t, src)
	read(t, conn)
	require.Eventually(t, func() bool { return src.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return src.count() == 0 }, 5*time.Second, 10*time.Millisecond)
}
