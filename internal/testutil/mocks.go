package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/pratik-mahalle/adminservice/internal/auth"
	"github.com/pratik-mahalle/adminservice/internal/domain/activity"
	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
)

// PublishedAlert is one call to MockAlertPublisher.PublishAlert
type PublishedAlert struct {
	Event string
	Alert *alert.Alert
}

// MockAlertPublisher records published alert events
type MockAlertPublisher struct {
	mu     sync.Mutex
	Events []PublishedAlert
}

func NewMockAlertPublisher() *MockAlertPublisher {
	return &MockAlertPublisher{}
}

func (m *MockAlertPublisher) PublishAlert(event string, a *alert.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedAlert{Event: event, Alert: a})
}

// Published returns a copy of the recorded events
func (m *MockAlertPublisher) Published() []PublishedAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedAlert(nil), m.Events...)
}

// MockAuditWriter records alerts written to the audit log. Recorded
// receives each alert so tests can wait for the background write.
type MockAuditWriter struct {
	Recorded chan *alert.Alert
	Err      error
}

func NewMockAuditWriter() *MockAuditWriter {
	return &MockAuditWriter{Recorded: make(chan *alert.Alert, 16)}
}

func (m *MockAuditWriter) RecordAlert(ctx context.Context, a *alert.Alert) error {
	m.Recorded <- a
	return m.Err
}

// MockNotifier records critical alert notifications
type MockNotifier struct {
	mu       sync.Mutex
	Notified []*alert.Alert
	Err      error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, a *alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, a)
	return m.Err
}

// Count returns the number of notifications sent
func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Notified)
}

// MockActivityRepository is an in-memory activity.Repository
type MockActivityRepository struct {
	mu        sync.Mutex
	Entries   []*activity.Log
	RecordErr error
}

func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{}
}

func (m *MockActivityRepository) Record(ctx context.Context, entry *activity.Log) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = fmt.Sprintf("log-%d", len(m.Entries)+1)
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockActivityRepository) ListForUser(ctx context.Context, userID string, types []string, limit int) ([]*activity.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	var out []*activity.Log
	for i := len(m.Entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.Entries[i]
		if e.UserID != nil && *e.UserID == userID && (len(types) == 0 || allowed[e.ActivityType]) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Logs returns a copy of the recorded entries
func (m *MockActivityRepository) Logs() []*activity.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*activity.Log(nil), m.Entries...)
}

// MockVerifier accepts the tokens in Tokens
type MockVerifier struct {
	Tokens map[string]*auth.Principal
	Err    error
}

func NewMockVerifier() *MockVerifier {
	return &MockVerifier{Tokens: make(map[string]*auth.Principal)}
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*auth.Principal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Tokens[token]
	if !ok {
		return nil, errors.Unauthorized("Invalid or expired token")
	}
	return p, nil
}

var (
	_ alert.Publisher     = (*MockAlertPublisher)(nil)
	_ alert.AuditWriter   = (*MockAuditWriter)(nil)
	_ alert.Notifier      = (*MockNotifier)(nil)
	_ activity.Repository = (*MockActivityRepository)(nil)
	_ auth.Verifier       = (*MockVerifier)(nil)
)
