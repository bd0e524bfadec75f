package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/metrics"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

const auditTimeout = 5 * time.Second

// AlertService implements alert.Service
type AlertService struct {
	store     alert.Store
	audit     alert.AuditWriter
	publisher alert.Publisher
	notifier  alert.Notifier
	logger    *logger.Logger
	now       func() time.Time
}

// NewAlertService creates a new alert service. audit, publisher and
// notifier may be nil.
func NewAlertService(store alert.Store, audit alert.AuditWriter, publisher alert.Publisher, notifier alert.Notifier, log *logger.Logger) *AlertService {
	return &AlertService{
		store:     store,
		audit:     audit,
		publisher: publisher,
		notifier:  notifier,
		logger:    log,
		now:       time.Now,
	}
}

// Create stores a new active alert, records it in the activity log in
// the background and pushes alert:new to connected clients.
func (s *AlertService) Create(ctx context.Context, in alert.NewAlert) (*alert.Alert, error) {
	a := &alert.Alert{
		ID:        newAlertID(s.now()),
		Type:      in.Type,
		Severity:  in.Severity,
		Title:     in.Title,
		Message:   in.Message,
		Data:      in.Data,
		Status:    alert.StatusActive,
		CreatedAt: s.now().UTC(),
	}
	if a.Type == "" {
		a.Type = alert.TypeSystem
	}
	if a.Severity == "" {
		a.Severity = alert.SeverityInfo
	}
	if a.Data == nil {
		a.Data = map[string]interface{}{}
	}

	if err := s.store.Insert(ctx, a); err != nil {
		return nil, err
	}

	s.logger.With("id", a.ID).With("type", a.Type).With("severity", a.Severity).Warnf("Alert created: %s", a.Title)
	metrics.RecordAlertCreated(a.Type, a.Severity)
	s.refreshGauges(ctx)

	s.recordAudit(ctx, a.Clone())

	if s.publisher != nil {
		s.publisher.PublishAlert(alert.EventNew, a.Clone())
	}

	if a.Severity == alert.SeverityCritical {
		s.notify(ctx, a.Clone())
	}

	return a, nil
}

func (s *AlertService) recordAudit(ctx context.Context, a *alert.Alert) {
	if s.audit == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
		defer cancel()
		if err := s.audit.RecordAlert(ctx, a); err != nil {
			s.logger.With("id", a.ID).ErrorWithErr(err, "Failed to record alert in database")
		}
	}()
}

func (s *AlertService) notify(ctx context.Context, a *alert.Alert) {
	s.logger.With("id", a.ID).With("title", a.Title).Error("Critical alert raised")
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, a); err != nil {
		s.logger.With("id", a.ID).WarnWithErr(err, "Failed to send critical alert notification")
	}
}

// List returns one page of alerts, newest first
func (s *AlertService) List(ctx context.Context, filter alert.Filter, params utils.PaginationParams) (*utils.Page[*alert.Alert], error) {
	items, total, err := s.store.List(ctx, filter, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	return utils.NewPage("alerts", items, int64(total), params), nil
}

// Get returns one alert
func (s *AlertService) Get(ctx context.Context, id string) (*alert.Alert, error) {
	return s.store.Get(ctx, id)
}

// Acknowledge marks an active alert as seen by actorID
func (s *AlertService) Acknowledge(ctx context.Context, id, actorID string) (*alert.Alert, error) {
	a, err := s.store.Acknowledge(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	s.logger.With("id", id).With("admin_id", actorID).Info("Alert acknowledged")
	s.updated(ctx, a)
	return a, nil
}

// Resolve closes an alert with a resolution note
func (s *AlertService) Resolve(ctx context.Context, id, actorID, resolution string) (*alert.Alert, error) {
	a, err := s.store.Resolve(ctx, id, actorID, resolution)
	if err != nil {
		return nil, err
	}
	s.logger.With("id", id).With("admin_id", actorID).Info("Alert resolved")
	s.updated(ctx, a)
	return a, nil
}

func (s *AlertService) updated(ctx context.Context, a *alert.Alert) {
	s.refreshGauges(ctx)
	if s.publisher != nil {
		s.publisher.PublishAlert(alert.EventUpdate, a.Clone())
	}
}

// Stats counts alerts by status, severity and type
func (s *AlertService) Stats(ctx context.Context) (alert.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *AlertService) refreshGauges(ctx context.Context) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return
	}
	metrics.SetAlertsStored(alert.StatusActive, stats.Active)
	metrics.SetAlertsStored(alert.StatusAcknowledged, stats.Acknowledged)
	metrics.SetAlertsStored(alert.StatusResolved, stats.Resolved)
}

// newAlertID returns alert_<unix ms>_<9 base36 chars>.
func newAlertID(now time.Time) string {
	var b strings.Builder
	for b.Len() < 9 {
		b.WriteString(strconv.FormatUint(rand.Uint64(), 36))
	}
	return fmt.Sprintf("alert_%d_%s", now.UnixMilli(), b.String()[:9])
}

var _ alert.Service = (*AlertService)(nil)
