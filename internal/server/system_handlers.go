package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/aristath/outfitter/internal/database"
	"github.com/aristath/outfitter/internal/modules/outfitcache"
	"github.com/aristath/outfitter/internal/queue"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const healthCheckTimeout = 2 * time.Second

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueStats reports generation queue counters
type QueueStats interface {
	Stats() queue.Stats
}

// CacheStats reports outfit cache counters
type CacheStats interface {
	Stats() outfitcache.Stats
}

// SystemDeps are the components reported on by the system endpoints
type SystemDeps struct {
	DataDir   string
	Databases []*database.DB
	Redis     Pinger
	Queue     QueueStats
	Cache     CacheStats
}

// SystemHandlers handles health and monitoring endpoints
type SystemHandlers struct {
	deps        SystemDeps
	startupTime time.Time
	sample      func() (float64, float64)
	log         zerolog.Logger
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(deps SystemDeps, log zerolog.Logger) *SystemHandlers {
	h := &SystemHandlers{
		deps:        deps,
		startupTime: time.Now(),
		log:         log.With().Str("handler", "system").Logger(),
	}
	h.sample = h.getSystemStats
	return h
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Databases map[string]string `json:"databases"`
	Redis     string            `json:"redis"`
}

// HandleHealth handles GET /health. Any failing database makes the service
// unhealthy; redis is reported but only degrades the status.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Service:   "outfitter",
		Databases: make(map[string]string, len(h.deps.Databases)),
		Redis:     "disabled",
	}
	status := http.StatusOK

	for _, db := range h.deps.Databases {
		if err := db.QuickCheck(ctx); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			resp.Databases[db.Name()] = "down"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Databases[db.Name()] = "ok"
	}

	if h.deps.Redis != nil {
		resp.Redis = "ok"
		if err := h.deps.Redis.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Redis health check failed")
			resp.Redis = "down"
			if resp.Status == "healthy" {
				resp.Status = "degraded"
			}
		}
	}

	writeJSON(w, h.log, status, resp)
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	CPUPercent    float64           `json:"cpu_percent"`
	MemoryPercent float64           `json:"memory_percent"`
	Goroutines    int               `json:"goroutines"`
	DataDirMB     float64           `json:"data_dir_mb"`
	Queue         queue.Stats       `json:"queue"`
	Cache         outfitcache.Stats `json:"cache"`
	Databases     []database.Stats  `json:"databases"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.sample()

	resp := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		DataDirMB:     h.calculateDirSize(h.deps.DataDir),
		Databases:     []database.Stats{},
	}
	if h.deps.Queue != nil {
		resp.Queue = h.deps.Queue.Stats()
	}
	if h.deps.Cache != nil {
		resp.Cache = h.deps.Cache.Stats()
	}
	for _, db := range h.deps.Databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to read database stats")
			continue
		}
		resp.Databases = append(resp.Databases, *stats)
	}

	writeJSON(w, h.log, http.StatusOK, resp)
}

// calculateDirSize returns the total size of a directory in MB
func (h *SystemHandlers) calculateDirSize(dirPath string) float64 {
	if dirPath == "" {
		return 0
	}

	var totalSize int64
	err := filepath.Walk(dirPath, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats samples CPU over 100ms and reads memory usage
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
