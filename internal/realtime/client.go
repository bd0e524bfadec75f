package realtime

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
	statsTimeout   = 5 * time.Second
)

var clientIDCounter atomic.Uint64

// Client is one WebSocket connection. Only the hub writes to send.
type Client struct {
	id      uint64
	adminID string
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
}

type incoming struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewClient wraps an upgraded connection for the admin adminID.
func NewClient(hub *Hub, conn *websocket.Conn, adminID string) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		adminID: adminID,
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, sendBuffer),
	}
}

// ID returns the process-unique client id.
func (c *Client) ID() uint64 {
	return c.id
}

// Serve registers the client, sends the greeting and the current job
// statistics, and runs the pumps until the connection ends.
func (c *Client) Serve() {
	if !c.hub.Attach(c) {
		_ = c.conn.Close()
		return
	}
	go c.writePump()

	c.hub.SendTo(c, EventConnected, map[string]interface{}{"clientId": c.id})
	c.sendStats()

	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.With("client_id", c.id).WarnWithErr(err, "Unexpected realtime close")
			}
			return
		}

		var msg incoming
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.SendTo(c, EventError, map[string]string{"message": "Malformed message"})
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg incoming) {
	switch msg.Event {
	case EventSubscribeJobs:
		c.hub.Subscribe(c, TopicJobUpdates)
	case EventUnsubscribeJobs:
		c.hub.Unsubscribe(c, TopicJobUpdates)
	case EventSubscribeAlerts:
		c.hub.Subscribe(c, TopicAlerts)
	case EventUnsubscribeAlerts:
		c.hub.Unsubscribe(c, TopicAlerts)
	case EventRequestJobStats:
		c.sendStats()
	case EventPing:
		c.hub.SendTo(c, EventPong, nil)
	default:
		c.hub.SendTo(c, EventError, map[string]string{"message": "Unknown event: " + msg.Event})
	}
}

func (c *Client) sendStats() {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	stats, err := c.hub.Snapshot(ctx)
	if err != nil {
		c.hub.logger.With("client_id", c.id).WarnWithErr(err, "Failed to compute job stats for client")
		c.hub.SendTo(c, EventError, map[string]string{"message": "Failed to fetch job statistics"})
		return
	}
	if stats != nil {
		c.hub.SendTo(c, EventJobStats, stats)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			frame, err := json.Marshal(msg)
			if err != nil {
				c.hub.logger.With("event", msg.Event).ErrorWithErr(err, "Failed to encode realtime message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
