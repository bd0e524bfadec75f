package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/system"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

const serviceName = "admin-service"

// HealthHandler handles unauthenticated health checks
type HealthHandler struct {
	system      system.Service
	version     string
	environment string
	started     time.Time
	logger      *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(svc system.Service, version, environment string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		system:      svc,
		version:     version,
		environment: environment,
		started:     time.Now(),
		logger:      log,
	}
}

type serviceInfo struct {
	Status      string    `json:"status"`
	Service     string    `json:"service"`
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      float64   `json:"uptime"`
	Environment string    `json:"environment"`
}

type memoryInfo struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
	Unit  string `json:"unit"`
}

type detailedHealth struct {
	serviceInfo
	Database     map[string]*system.SchemaHealth `json:"database"`
	Memory       memoryInfo                      `json:"memory"`
	ResponseTime int64                           `json:"responseTime"`
}

func (h *HealthHandler) info(status string) serviceInfo {
	return serviceInfo{
		Status:      status,
		Service:     serviceName,
		Version:     h.version,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.started).Seconds(),
		Environment: h.environment,
	}
}

// Root identifies the service
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "FutureGuide Admin Service is running",
		"version":   h.version,
		"timestamp": time.Now().UTC(),
	})
}

// Health is a static liveness report
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ok(w, "Service is healthy", h.info(system.StatusHealthy))
}

// Detailed pings every schema. Any unhealthy schema answers 503.
// @Summary Detailed health
// @Tags Health
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 503 {object} utils.SuccessResponse "Degraded"
// @Router /health/detailed [get]
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	schemas, err := h.system.Database(r.Context())
	if err != nil {
		h.logger.ErrorWithErr(err, "Detailed health check failed")
		fail(w, errors.New("SERVICE_UNHEALTHY", "Detailed health check failed", http.StatusServiceUnavailable))
		return
	}

	status := system.StatusHealthy
	for _, s := range schemas {
		if s.Status != system.StatusHealthy {
			status = system.StatusDegraded
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	code := http.StatusOK
	if status != system.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	_ = utils.WriteSuccessWithMessage(w, code, "Detailed health check completed", detailedHealth{
		serviceInfo: h.info(status),
		Database:    schemas,
		Memory: memoryInfo{
			Used:  ms.HeapAlloc / 1024 / 1024,
			Total: ms.HeapSys / 1024 / 1024,
			Unit:  "MB",
		},
		ResponseTime: time.Since(start).Milliseconds(),
	})
}

// Ready answers 200 once the required schemas respond
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /health/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.system.Ready(r.Context()) {
		fail(w, errors.New("SERVICE_NOT_READY", "Service is not ready", http.StatusServiceUnavailable))
		return
	}
	ok(w, "Service is ready", map[string]bool{"ready": true})
}

// Live always answers 200
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /health/live [get]
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	ok(w, "Service is alive", map[string]bool{"alive": true})
}
