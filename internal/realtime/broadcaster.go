package realtime

import (
	"context"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
)

// PublishAlert implements alert.Publisher.
func (h *Hub) PublishAlert(event string, a *alert.Alert) {
	h.Publish(TopicAlerts, event, a)
}

// PublishJobUpdate tells job-updates subscribers that a job changed.
func (h *Hub) PublishJobUpdate(event string, job interface{}) {
	h.Publish(TopicJobUpdates, EventJobUpdate, map[string]interface{}{
		"event":     event,
		"job":       job,
		"timestamp": time.Now().UTC(),
	})
}

// PublishJobAlert sends a job-scoped alert to job-updates subscribers.
func (h *Hub) PublishJobAlert(a *alert.Alert) {
	h.Publish(TopicJobUpdates, EventJobAlert, a)
}

// PushJobStats recomputes the job statistics and sends them to every
// job-updates subscriber. Nothing is computed when nobody listens.
func (h *Hub) PushJobStats(ctx context.Context) error {
	if h.SubscriberCount(TopicJobUpdates) == 0 {
		return nil
	}
	stats, err := h.Snapshot(ctx)
	if err != nil {
		return err
	}
	h.Publish(TopicJobUpdates, EventJobStats, stats)
	return nil
}

var _ alert.Publisher = (*Hub)(nil)
