// Package realtime pushes events to admin dashboards over WebSocket.
//
// Clients join named topics. Alert events go to the alerts topic, which
// every client joins on connect; job events go to job-updates, which a
// client joins by sending subscribe:jobs. Delivery is best effort: a
// client whose send buffer is full is dropped and must reconnect.
package realtime

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/metrics"
)

// Topics
const (
	TopicAlerts     = "alerts"
	TopicJobUpdates = "job-updates"
)

// Server-to-client events
const (
	EventConnected = "connected"
	EventJobStats  = "job-stats"
	EventJobUpdate = "job-update"
	EventJobAlert  = "job-alert"
	EventError     = "error"
	EventPong      = "pong"
)

// Client-to-server events
const (
	EventSubscribeJobs     = "subscribe:jobs"
	EventUnsubscribeJobs   = "unsubscribe:jobs"
	EventRequestJobStats   = "request:job-stats"
	EventSubscribeAlerts   = "subscribe:alerts"
	EventUnsubscribeAlerts = "unsubscribe:alerts"
	EventPing              = "ping"
)

// Message is the frame exchanged in both directions.
type Message struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// StatsFunc computes the job statistics snapshot sent on connect and on
// request:job-stats.
type StatsFunc func(ctx context.Context) (interface{}, error)

// delivery targets one client when target is set, else the topic's
// subscribers, else everyone.
type delivery struct {
	topic  string
	target *Client
	msg    Message
}

type membership struct {
	client *Client
	topic  string
	join   bool
}

// Hub owns the set of connected clients and their topic memberships.
// All mutation happens on the Run goroutine.
type Hub struct {
	clients map[*Client]map[string]bool

	register   chan *Client
	unregister chan *Client
	membership chan membership
	broadcast  chan delivery
	done       chan struct{}
	closeOnce  sync.Once

	mu     sync.RWMutex
	stats  StatsFunc
	logger *logger.Logger
}

// NewHub creates a hub. stats may be nil.
func NewHub(stats StatsFunc, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		membership: make(chan membership, 64),
		broadcast:  make(chan delivery, 256),
		done:       make(chan struct{}),
		stats:      stats,
		logger:     log.Component("realtime-hub"),
	}
}

// Run processes registrations and deliveries until ctx is done, then
// closes every client. Run must be called once.
func (h *Hub) Run(ctx context.Context) {
	for {
		// lifecycle events first so a fresh subscriber sees the next delivery
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.add(c)
			continue
		case c := <-h.unregister:
			h.remove(c)
			continue
		case m := <-h.membership:
			h.apply(m)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case m := <-h.membership:
			h.apply(m)
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = map[string]bool{TopicAlerts: true}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.SetRealtimeClients(n)
	h.logger.WithFields(map[string]interface{}{
		"client_id":     c.id,
		"admin_id":      c.adminID,
		"total_clients": n,
	}).Info("Realtime client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.SetRealtimeClients(n)
		h.logger.WithFields(map[string]interface{}{
			"client_id":     c.id,
			"total_clients": n,
		}).Info("Realtime client disconnected")
	}
}

func (h *Hub) apply(m membership) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topics, ok := h.clients[m.client]
	if !ok {
		return
	}
	if m.join {
		topics[m.topic] = true
	} else {
		delete(topics, m.topic)
	}
	h.logger.WithFields(map[string]interface{}{
		"client_id": m.client.id,
		"topic":     m.topic,
		"joined":    m.join,
	}).Debug("Realtime membership changed")
}

func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c, topics := range h.clients {
		switch {
		case d.target != nil:
			if c == d.target {
				clients = append(clients, c)
			}
		case d.topic == "" || topics[d.topic]:
			clients = append(clients, c)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var slow []*Client
	for _, c := range clients {
		select {
		case c.send <- d.msg:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		close(c.send)
		delete(h.clients, c)
		h.logger.With("client_id", c.id).Warn("Dropped slow realtime client")
	}
	if len(slow) > 0 {
		metrics.SetRealtimeClients(len(h.clients))
	}
	metrics.RecordRealtimeEvent(d.msg.Event, len(clients)-len(slow))
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	n := len(h.clients)
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	metrics.SetRealtimeClients(0)
	h.logger.With("clients_closed", n).Info("Realtime hub stopped")
}

func (h *Hub) enqueue(topic string, target *Client, event string, data interface{}) {
	d := delivery{
		topic:  topic,
		target: target,
		msg:    Message{Event: event, Data: data, Timestamp: time.Now().UTC()},
	}
	select {
	case h.broadcast <- d:
	default:
		h.logger.With("event", event).Warn("Realtime broadcast buffer full, dropping event")
	}
}

// Publish sends an event to the subscribers of topic.
func (h *Hub) Publish(topic, event string, data interface{}) {
	h.enqueue(topic, nil, event, data)
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string, data interface{}) {
	h.enqueue("", nil, event, data)
}

// SendTo sends an event to a single client.
func (h *Hub) SendTo(c *Client, event string, data interface{}) {
	h.enqueue("", c, event, data)
}

// Attach registers c. It returns false once the hub has stopped.
func (h *Hub) Attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Detach unregisters c; safe to call after the hub has stopped.
func (h *Hub) Detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Subscribe adds c to topic.
func (h *Hub) Subscribe(c *Client, topic string) {
	select {
	case h.membership <- membership{client: c, topic: topic, join: true}:
	case <-h.done:
	}
}

// Unsubscribe removes c from topic.
func (h *Hub) Unsubscribe(c *Client, topic string) {
	select {
	case h.membership <- membership{client: c, topic: topic, join: false}:
	case <-h.done:
	}
}

// Done is closed when the hub stops.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of clients in topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, topics := range h.clients {
		if topics[topic] {
			n++
		}
	}
	return n
}

// Snapshot computes a job statistics snapshot.
func (h *Hub) Snapshot(ctx context.Context) (interface{}, error) {
	if h.stats == nil {
		return nil, nil
	}
	return h.stats(ctx)
}
