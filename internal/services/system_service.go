package services

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/pratik-mahalle/adminservice/internal/domain/system"
	"github.com/pratik-mahalle/adminservice/internal/pkg/cache"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
)

// metricsWindow is how far back job metrics look
const metricsWindow = 24 * time.Hour

// SystemService implements system.Service
type SystemService struct {
	repo    system.Repository
	health  *cache.TTL[*system.Health]
	metrics *cache.TTL[*system.Metrics]
	version string
	started time.Time
	logger  *logger.Logger
	now     func() time.Time

	cpuOnce  sync.Once
	cpuModel string
}

// SystemCaches holds the optional response caches. Nil caches disable
// caching for that report.
type SystemCaches struct {
	Health  *cache.TTL[*system.Health]
	Metrics *cache.TTL[*system.Metrics]
}

// NewSystemService creates a new system service
func NewSystemService(repo system.Repository, caches SystemCaches, version string, log *logger.Logger) *SystemService {
	return &SystemService{
		repo:    repo,
		health:  caches.Health,
		metrics: caches.Metrics,
		version: version,
		started: time.Now(),
		logger:  log,
		now:     time.Now,
	}
}

// Health pings every schema and reports host resources
func (s *SystemService) Health(ctx context.Context) (*system.Health, error) {
	if s.health == nil {
		return s.computeHealth(ctx)
	}
	return s.health.GetOrLoad(ctx, "health", s.computeHealth)
}

func (s *SystemService) computeHealth(ctx context.Context) (*system.Health, error) {
	db, err := s.Database(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := s.Resources(ctx)
	if err != nil {
		return nil, err
	}

	h := &system.Health{
		Timestamp: s.now().UTC(),
		Uptime:    s.uptime(),
		Database:  db,
		Cache:     system.CacheHealth{Status: system.StatusHealthy, Connected: true},
		Resources: resources,
		Version:   s.version,
	}
	h.Evaluate()

	if h.Status != system.StatusHealthy {
		s.logger.With("status", h.Status).Warn("System health degraded")
	}
	return h, nil
}

// Database pings each schema. Failures are reported per schema, never
// returned as an error.
func (s *SystemService) Database(ctx context.Context) (map[string]*system.SchemaHealth, error) {
	out := make(map[string]*system.SchemaHealth, len(system.Schemas))
	for _, schema := range system.Schemas {
		start := time.Now()
		err := s.repo.Ping(ctx, schema)
		if err != nil {
			s.logger.With("schema", schema).WarnWithErr(err, "Schema health check failed")
			out[schema] = &system.SchemaHealth{Status: system.StatusUnhealthy, Error: err.Error()}
			continue
		}
		out[schema] = &system.SchemaHealth{
			Status:       system.StatusHealthy,
			ResponseTime: time.Since(start).Round(time.Millisecond).String(),
		}
	}
	return out, nil
}

// Resources samples host CPU and memory and this process
func (s *SystemService) Resources(ctx context.Context) (*system.Resources, error) {
	res := &system.Resources{
		CPU: system.CPU{
			Cores:       runtime.NumCPU(),
			Model:       s.cpuModelName(ctx),
			LoadAverage: []float64{0, 0, 0},
		},
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		res.CPU.LoadAverage = []float64{round2(avg.Load1), round2(avg.Load5), round2(avg.Load15)}
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		res.Memory = system.Memory{
			Total:        humanize.IBytes(vm.Total),
			Used:         humanize.IBytes(vm.Used),
			Free:         humanize.IBytes(vm.Available),
			UsagePercent: round2(vm.UsedPercent),
		}
	} else {
		s.logger.WarnWithErr(err, "Failed to read host memory")
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	res.Process = system.Process{
		Memory:     humanize.IBytes(ms.Sys),
		Goroutines: runtime.NumGoroutine(),
		PID:        os.Getpid(),
		Uptime:     s.uptime(),
	}
	return res, nil
}

func (s *SystemService) cpuModelName(ctx context.Context) string {
	s.cpuOnce.Do(func() {
		s.cpuModel = "unknown"
		if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 && infos[0].ModelName != "" {
			s.cpuModel = infos[0].ModelName
		}
	})
	return s.cpuModel
}

func (s *SystemService) uptime() float64 {
	return round2(s.now().Sub(s.started).Seconds())
}

// Metrics reports job, user and chat activity
func (s *SystemService) Metrics(ctx context.Context) (*system.Metrics, error) {
	if s.metrics == nil {
		return s.computeMetrics(ctx)
	}
	return s.metrics.GetOrLoad(ctx, "metrics", s.computeMetrics)
}

func (s *SystemService) computeMetrics(ctx context.Context) (*system.Metrics, error) {
	now := s.now()

	jobs, err := s.repo.JobMetrics(ctx, now.Add(-metricsWindow))
	if err != nil {
		return nil, err
	}
	today := startOfDay(now)
	users, err := s.repo.UserMetrics(ctx, today)
	if err != nil {
		return nil, err
	}
	chat, err := s.repo.ChatMetrics(ctx, today)
	if err != nil {
		return nil, err
	}
	resources, err := s.Resources(ctx)
	if err != nil {
		return nil, err
	}

	return &system.Metrics{
		Timestamp: now.UTC(),
		Jobs:      jobs,
		Users:     users,
		Chat:      chat,
		System:    resources,
	}, nil
}

// Ready reports whether the required schemas answer
func (s *SystemService) Ready(ctx context.Context) bool {
	for _, schema := range []string{system.SchemaAuth, system.SchemaArchive} {
		if err := s.repo.Ping(ctx, schema); err != nil {
			return false
		}
	}
	return true
}

// SampleResources records host CPU and memory usage and the queue size
// as system metrics, the samples the job dashboard reads back.
func (s *SystemService) SampleResources(ctx context.Context, queueSize int64) error {
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		if err := s.repo.RecordMetric(ctx, "cpu_usage", round2(pct[0]), nil); err != nil {
			return err
		}
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		data := map[string]interface{}{"total": vm.Total, "used": vm.Used}
		if err := s.repo.RecordMetric(ctx, "memory_usage", round2(vm.UsedPercent), data); err != nil {
			return err
		}
	}
	return s.repo.RecordMetric(ctx, "queue_size", float64(queueSize), nil)
}

var _ system.Service = (*SystemService)(nil)
