// Package memory holds process-local stores.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
)

// AlertStore is a capacity-bounded alert log guarded by a mutex.
// alerts is kept oldest first; reads walk it backwards.
type AlertStore struct {
	mu       sync.RWMutex
	capacity int
	alerts   []*alert.Alert
	byID     map[string]*alert.Alert
	now      func() time.Time
}

// NewAlertStore creates a store holding at most capacity alerts.
func NewAlertStore(capacity int) *AlertStore {
	if capacity <= 0 {
		capacity = alert.DefaultCapacity
	}
	return &AlertStore{
		capacity: capacity,
		alerts:   make([]*alert.Alert, 0, capacity),
		byID:     make(map[string]*alert.Alert, capacity),
		now:      time.Now,
	}
}

// Insert adds a copy of a as the newest alert.
func (s *AlertStore) Insert(_ context.Context, a *alert.Alert) error {
	if a == nil || a.ID == "" {
		return errors.BadRequest("alert id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[a.ID]; exists {
		return errors.Conflict("alert " + a.ID + " already exists")
	}

	if len(s.alerts) >= s.capacity {
		evict := len(s.alerts) - s.capacity + 1
		for _, old := range s.alerts[:evict] {
			delete(s.byID, old.ID)
		}
		n := copy(s.alerts, s.alerts[evict:])
		for i := n; i < len(s.alerts); i++ {
			s.alerts[i] = nil
		}
		s.alerts = s.alerts[:n]
	}

	stored := a.Clone()
	s.alerts = append(s.alerts, stored)
	s.byID[stored.ID] = stored
	return nil
}

// Get returns a copy of the alert.
func (s *AlertStore) Get(_ context.Context, id string) (*alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, errors.NotFound("Alert")
	}
	return a.Clone(), nil
}

// List returns matching alerts newest first.
func (s *AlertStore) List(_ context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*alert.Alert, 0, limit)
	total := 0
	for i := len(s.alerts) - 1; i >= 0; i-- {
		a := s.alerts[i]
		if !filter.Matches(a) {
			continue
		}
		if total >= offset && len(out) < limit {
			out = append(out, a.Clone())
		}
		total++
	}
	return out, total, nil
}

// Acknowledge moves an active alert to acknowledged.
func (s *AlertStore) Acknowledge(_ context.Context, id, actorID string) (*alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, errors.NotFound("Alert")
	}
	if !a.CanAcknowledge() {
		return nil, errors.InvalidState("Alert is " + a.Status + " and cannot be acknowledged")
	}

	now := s.now().UTC()
	a.Status = alert.StatusAcknowledged
	a.AcknowledgedAt = &now
	a.AcknowledgedBy = actorID
	return a.Clone(), nil
}

// Resolve moves an active or acknowledged alert to resolved.
func (s *AlertStore) Resolve(_ context.Context, id, actorID, resolution string) (*alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, errors.NotFound("Alert")
	}
	if !a.CanResolve() {
		return nil, errors.InvalidState("Alert is already resolved")
	}

	now := s.now().UTC()
	a.Status = alert.StatusResolved
	a.ResolvedAt = &now
	a.ResolvedBy = actorID
	a.Resolution = resolution
	return a.Clone(), nil
}

// Stats counts every alert currently held.
func (s *AlertStore) Stats(_ context.Context) (alert.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := alert.NewStats()
	for _, a := range s.alerts {
		stats.Add(a)
	}
	return stats, nil
}

// Len returns the number of alerts held.
func (s *AlertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

var _ alert.Store = (*AlertStore)(nil)
