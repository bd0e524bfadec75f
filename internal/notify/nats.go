// Package notify mirrors critical alerts to a NATS subject so that paging
// and chat integrations can subscribe without talking to the admin API.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/pratik-mahalle/adminservice/internal/config"
	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
)

const connectionName = "admin-service-alerts"

// Message is the payload published for each critical alert.
type Message struct {
	Source    string       `json:"source"`
	Alert     *alert.Alert `json:"alert"`
	Published time.Time    `json:"publishedAt"`
}

// NATSNotifier publishes critical alerts to a NATS subject.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
	log     *logger.Logger
}

// NewNATSNotifier connects to the configured server. The connection keeps
// reconnecting in the background if the server goes away.
func NewNATSNotifier(cfg config.NotifyConfig, log *logger.Logger) (*NATSNotifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("nats url is not configured")
	}
	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		return nil, fmt.Errorf("nats subject is not configured")
	}
	log = log.Component("notify")

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name(connectionName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WarnWithErr(err, "NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	log.Infof("Critical alerts will be published to %s", subject)
	return &NATSNotifier{nc: nc, subject: subject, log: log}, nil
}

// Notify publishes a and flushes so delivery failures surface to the caller.
func (n *NATSNotifier) Notify(ctx context.Context, a *alert.Alert) error {
	body, err := json.Marshal(Message{Source: connectionName, Alert: a, Published: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = body
	msg.Header.Set("Nats-Msg-Id", a.ID)
	msg.Header.Set("Alert-Severity", a.Severity)
	if err := n.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	if err := n.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush alert: %w", err)
	}
	return nil
}

// Connected reports whether the underlying connection is usable.
func (n *NATSNotifier) Connected() bool {
	return n != nil && n.nc != nil && n.nc.IsConnected()
}

// Close drains pending messages and closes the connection.
func (n *NATSNotifier) Close() error {
	if n == nil || n.nc == nil {
		return nil
	}
	return n.nc.Drain()
}

var _ alert.Notifier = (*NATSNotifier)(nil)
