package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/engine"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/shared/id"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Source delivers outward notifications.
type Source interface {
	Subscribe(fn func(engine.Event)) func()
}

// Message is a control message exchanged with a client.
type Message struct {
	Type     string        `json:"type"`
	ClientID string        `json:"client_id,omitempty"`
	Event    *engine.Event `json:"event,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// Handler streams notifications to websocket clients.
type Handler struct {
	source  Source
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(source Source, metrics *monitoring.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{source: source, metrics: metrics, log: log.Named("ws")}
}

type client struct {
	id   id.ClientID
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// enqueue never blocks: it runs on the event loop. A client that falls
// behind is disconnected.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- data:
		return true
	default:
		c.close()
		return false
	}
}

// HandleConnection handles WebSocket upgrade and streams events until the
// client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   id.NewClientID(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	h.log.Debug("client connected", zap.Stringer("client", cl.id))

	welcome, _ := sonic.Marshal(Message{Type: "welcome", ClientID: cl.id.String()})
	cl.enqueue(welcome)

	unsubscribe := h.source.Subscribe(func(ev engine.Event) {
		data, err := sonic.Marshal(Message{Type: "event", Event: &ev})
		if err != nil {
			return
		}
		if cl.enqueue(data) {
			h.record("out", ev.Kind)
		}
	})
	defer unsubscribe()

	go h.readPump(cl)
	h.writePump(cl)
	h.log.Debug("client disconnected", zap.Stringer("client", cl.id))
}

func (h *Handler) readPump(cl *client) {
	defer cl.close()

	cl.conn.SetReadLimit(4096)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.reply(cl, Message{Type: "error", Message: "invalid message"})
			continue
		}
		h.record("in", msg.Type)

		switch msg.Type {
		case "ping":
			h.reply(cl, Message{Type: "pong"})
		default:
			h.reply(cl, Message{Type: "error", Message: "unknown message type"})
		}
	}
}

func (h *Handler) reply(cl *client, msg Message) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return
	}
	if cl.enqueue(data) {
		h.record("out", msg.Type)
	}
}

func (h *Handler) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case <-cl.done:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				cl.close()
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.close()
				return
			}
		}
	}
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
