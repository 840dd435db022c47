package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/adarsh-anand15/quantum-learning/internal/database"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/reliability"
	"github.com/adarsh-anand15/quantum-learning/internal/version"
	"github.com/adarsh-anand15/quantum-learning/internal/work"
	"github.com/adarsh-anand15/quantum-learning/pkg/formulas"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	runsDB      *database.DB
	cacheDB     *database.DB
	runsService *runs.Service
	processor   *work.Processor
	workCache   *work.Cache
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	runsDB, cacheDB *database.DB,
	runsService *runs.Service,
	processor *work.Processor,
	workCache *work.Cache,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		runsDB:      runsDB,
		cacheDB:     cacheDB,
		runsService: runsService,
		processor:   processor,
		workCache:   workCache,
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status           string                  `json:"status"` // "healthy" or "degraded"
	Version          string                  `json:"version"`
	UptimeSeconds    float64                 `json:"uptime_seconds"`
	CPUPercent       float64                 `json:"cpu_percent"`
	MemPercent       float64                 `json:"mem_percent"`
	DiskFreeGB       float64                 `json:"disk_free_gb"`
	DiskUsedPct      float64                 `json:"disk_used_percent"`
	Databases        []DBInfo                `json:"databases"`
	RunCounts        map[string]int          `json:"run_counts"`
	RecentCostEMA    *float64                `json:"recent_cost_ema,omitempty"`
	RecentCostStdDev *float64                `json:"recent_cost_stddev,omitempty"`
	LastBackup       *reliability.BackupInfo `json:"last_backup,omitempty"`
	ActiveWork       []string                `json:"active_work"`
	RetryBacklog     int                     `json:"retry_backlog"`
	Timestamp        string                  `json:"timestamp"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	FreePages int64   `json:"free_pages"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DiskUsageResponse represents disk usage statistics
type DiskUsageResponse struct {
	DataDirMB   float64 `json:"data_dir_mb"`
	BackupsMB   float64 `json:"backups_mb"`
	FreeGB      float64 `json:"free_gb"`
	UsedPercent float64 `json:"used_percent"`
}

// GetSystemStatusSnapshot returns a snapshot of the current system status.
// Collection failures degrade the status instead of aborting; the first
// error encountered is returned alongside the partial snapshot.
func (h *SystemHandlers) GetSystemStatusSnapshot() (SystemStatusResponse, error) {
	var firstErr error
	recordErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	runCounts, err := h.runsService.CountByStatus()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count runs by status")
		recordErr(err)
		runCounts = map[string]int{}
	}

	cpuPercent, memPercent := h.getSystemStats()

	var diskFreeGB, diskUsedPct float64
	if usage, err := disk.Usage(h.dataDir); err != nil {
		h.log.Warn().Err(err).Msg("Failed to read disk usage")
		recordErr(err)
	} else {
		diskFreeGB = float64(usage.Free) / 1e9
		diskUsedPct = usage.UsedPercent
	}

	databases := make([]DBInfo, 0, 2)
	for _, db := range []*database.DB{h.runsDB, h.cacheDB} {
		info, err := h.databaseInfo(db)
		if err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Failed to read database stats")
			recordErr(err)
			continue
		}
		databases = append(databases, info)
	}

	status := "healthy"
	if firstErr != nil {
		status = "degraded"
	}

	costEMA, costSpread := h.recentCostTrend()

	response := SystemStatusResponse{
		Status:           status,
		Version:          version.Version,
		UptimeSeconds:    time.Since(h.startupTime).Seconds(),
		CPUPercent:       cpuPercent,
		MemPercent:       memPercent,
		DiskFreeGB:       diskFreeGB,
		DiskUsedPct:      diskUsedPct,
		Databases:        databases,
		RunCounts:        runCounts,
		RecentCostEMA:    costEMA,
		RecentCostStdDev: costSpread,
		LastBackup:       h.lastBackup(),
		ActiveWork:       h.processor.InFlight(),
		RetryBacklog:     h.processor.RetryBacklog(),
		Timestamp:        time.Now().Format(time.RFC3339),
	}

	return response, firstErr
}

// lastBackup reads the descriptor the R2 backup service records after each
// upload. Nil when no backup has run yet or the entry expired. The stored
// age is recomputed here so it reflects now, not the upload time.
func (h *SystemHandlers) lastBackup() *reliability.BackupInfo {
	if h.workCache == nil {
		return nil
	}

	var entry reliability.BackupInfo
	if err := h.workCache.GetJSON(reliability.LatestBackupCacheKey, &entry); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.log.Warn().Err(err).Msg("Failed to read latest backup metadata")
		}
		return nil
	}

	entry.AgeHours = int64(time.Since(entry.Timestamp).Hours())
	return &entry
}

// HandleSystemStatus returns comprehensive system status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	response, err := h.GetSystemStatusSnapshot()
	if err != nil {
		h.log.Warn().Err(err).Msg("System status collected with warnings")
	}

	h.writeJSON(w, response)
}

// HandleDatabaseStats returns database statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	databases := make([]DBInfo, 0, 2)
	totalSizeMB := 0.0

	for _, db := range []*database.DB{h.runsDB, h.cacheDB} {
		info, err := h.databaseInfo(db)
		if err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Failed to read database stats")
			continue
		}
		databases = append(databases, info)
		totalSizeMB += info.SizeMB + info.WALSizeMB
	}

	response := DatabaseStatsResponse{
		Databases:   databases,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	h.writeJSON(w, response)
}

// HandleDiskUsage returns disk usage statistics
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	response := DiskUsageResponse{
		DataDirMB: h.getDirSize(h.dataDir),
		BackupsMB: h.getDirSize(filepath.Join(h.dataDir, "backups")),
	}

	if usage, err := disk.Usage(h.dataDir); err != nil {
		h.log.Warn().Err(err).Msg("Failed to read disk usage")
	} else {
		response.FreeGB = float64(usage.Free) / 1e9
		response.UsedPercent = usage.UsedPercent
	}

	h.writeJSON(w, response)
}

// recentCostTrend smooths the final costs of the latest completed runs
// into an EMA plus their spread. Both are nil when no completed runs
// have a cost yet; the spread needs at least two samples.
func (h *SystemHandlers) recentCostTrend() (*float64, *float64) {
	recent, err := h.runsService.List(runs.StatusCompleted, "", 20)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to list recent runs for cost trend")
		return nil, nil
	}

	// List returns newest first; the EMA wants oldest first.
	costs := make([]float64, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].FinalCost != nil {
			costs = append(costs, *recent[i].FinalCost)
		}
	}

	var spread *float64
	if len(costs) >= 2 {
		sd := formulas.StdDev(costs)
		spread = &sd
	}

	return formulas.CalculateEMA(costs, 5), spread
}

// databaseInfo assembles the per-database stats row
func (h *SystemHandlers) databaseInfo(db *database.DB) (DBInfo, error) {
	stats, err := db.GetStats()
	if err != nil {
		return DBInfo{}, err
	}

	return DBInfo{
		Name:      db.Name(),
		Path:      db.Path(),
		SizeMB:    float64(stats.SizeBytes) / 1024 / 1024,
		WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
		FreePages: stats.FreelistCount,
	}, nil
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
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

// getSystemStats calculates CPU and RAM usage percentages.
// The 100ms sample keeps the endpoint fast; dashboards poll this every
// couple of seconds and a 1s CPU sample would dominate the response time.
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

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
