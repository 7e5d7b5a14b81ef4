package server

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/aristath/escrow/internal/database"
)

// SystemHandlers provides system monitoring endpoints
type SystemHandlers struct {
	db        *database.DB
	log       zerolog.Logger
	startedAt time.Time
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(db *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		db:        db,
		log:       log.With().Str("component", "system_handlers").Logger(),
		startedAt: time.Now(),
	}
}

// HandleSystemHealth runs the database integrity check and reports status
// GET /api/system/health
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	dbStatus := "ok"

	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Database health check failed")
		status = "unhealthy"
		dbStatus = err.Error()
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":         status,
		"database":       dbStatus,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleSystemStats reports process and host resource usage
// GET /api/system/stats
func (h *SystemHandlers) HandleSystemStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil {
			stats["process_rss_bytes"] = memInfo.RSS
		}
		if cpuPct, err := proc.CPUPercent(); err == nil {
			stats["process_cpu_percent"] = cpuPct
		}
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats["host_memory_used_percent"] = vm.UsedPercent
	}

	if usage, err := disk.Usage(h.db.Path()); err == nil {
		stats["disk_used_percent"] = usage.UsedPercent
		stats["disk_free_bytes"] = usage.Free
	}

	if dbStat, err := os.Stat(h.db.Path()); err == nil {
		stats["database_size_bytes"] = dbStat.Size()
	}

	writeJSON(w, http.StatusOK, stats)
}
